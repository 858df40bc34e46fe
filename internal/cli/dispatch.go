package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/herd/internal/command"
	"github.com/me/herd/internal/config"
)

// runCommand drives the client-side command flow: build the command
// from the registry, bind a client context, dispatch, print the
// rendered status block.
func runCommand(cmd *cobra.Command, group, name string, args command.Args, synchronous string, details bool) error {
	factory, err := registry.Lookup(group, name)
	if err != nil {
		return err
	}
	c := factory()
	if err := c.Bind(&command.ClientContext{
		Client: client,
		Config: config.DefaultClientConfig(),
	}); err != nil {
		return err
	}
	if d, ok := c.(interface{ SetDetails(bool) }); ok {
		d.SetDetails(details)
	}

	out, err := c.Dispatch(cmd.Context(), args, synchronous)
	if err != nil {
		return fmt.Errorf("dispatch %s.%s: %w", group, name, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// synchronousFlag translates the --async flag into the wire token.
func synchronousFlag(async bool) string {
	if async {
		return "false"
	}
	return "true"
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/herd/internal/command"
	"github.com/me/herd/pkg/model"
)

func newProcCmd() *cobra.Command {
	proc := &cobra.Command{
		Use:   "proc",
		Short: "Inspect scheduled procedures",
	}
	proc.AddCommand(newProcStatusCmd())
	return proc
}

func newProcStatusCmd() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "status <uuid>",
		Short: "Show the status of a procedure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get(cmd.Context(), "/api/v1/procedures/"+args[0])
			if err != nil {
				return fmt.Errorf("get procedure: %w", err)
			}

			var status model.Status
			if err := json.Unmarshal(resp.Data, &status); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), command.RenderProcedureStatus(status, details))
			return nil
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

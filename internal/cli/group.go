package cli

import (
	"github.com/spf13/cobra"

	"github.com/me/herd/internal/command"
)

func newGroupCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage server groups",
	}
	group.AddCommand(
		newGroupCreateCmd(),
		newGroupAddCmd(),
		newGroupRemoveCmd(),
		newGroupPromoteCmd(),
		newGroupDestroyCmd(),
		newGroupServersCmd(),
	)
	return group
}

func newGroupCreateCmd() *cobra.Command {
	var description string
	var async, details bool

	cmd := &cobra.Command{
		Use:   "create <group_id>",
		Short: "Create a new group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := command.Args{"group_id": args[0]}
			if description != "" {
				callArgs["description"] = description
			}
			return runCommand(cmd, "group", "create", callArgs, synchronousFlag(async), details)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Group description")
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newGroupAddCmd() *cobra.Command {
	var serverID string
	var async, details bool

	cmd := &cobra.Command{
		Use:   "add <group_id> <address>",
		Short: "Add a server to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := command.Args{"group_id": args[0], "address": args[1]}
			if serverID != "" {
				callArgs["server_id"] = serverID
			}
			return runCommand(cmd, "group", "add", callArgs, synchronousFlag(async), details)
		},
	}
	cmd.Flags().StringVar(&serverID, "server-id", "", "Server identifier (generated when omitted)")
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newGroupRemoveCmd() *cobra.Command {
	var async, details bool

	cmd := &cobra.Command{
		Use:   "remove <group_id> <server_id>",
		Short: "Remove a server from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, "group", "remove",
				command.Args{"group_id": args[0], "server_id": args[1]},
				synchronousFlag(async), details)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newGroupPromoteCmd() *cobra.Command {
	var async, details bool

	cmd := &cobra.Command{
		Use:   "promote <group_id> [server_id]",
		Short: "Switch the primary of a group",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := command.Args{"group_id": args[0]}
			if len(args) == 2 {
				callArgs["server_id"] = args[1]
			}
			return runCommand(cmd, "group", "promote", callArgs, synchronousFlag(async), details)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newGroupDestroyCmd() *cobra.Command {
	var async, details bool

	cmd := &cobra.Command{
		Use:   "destroy <group_id>",
		Short: "Destroy an empty group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, "group", "destroy",
				command.Args{"group_id": args[0]}, synchronousFlag(async), details)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newGroupServersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "servers <group_id>",
		Short: "List the servers of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, "group", "lookup_servers",
				command.Args{"group_id": args[0]}, "true", false)
		},
	}
}

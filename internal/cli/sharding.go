package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/herd/internal/command"
)

func newShardingCmd() *cobra.Command {
	sharding := &cobra.Command{
		Use:   "sharding",
		Short: "Manage shard mappings and shards",
	}
	sharding.AddCommand(
		newCreateMappingCmd(),
		newAddShardCmd(),
		newMoveShardCmd(),
		newSplitShardCmd(),
	)
	return sharding
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &parseIDError{what: what, raw: s}
	}
	return id, nil
}

type parseIDError struct {
	what string
	raw  string
}

func (e *parseIDError) Error() string {
	return "invalid " + e.what + " '" + e.raw + "': expected an integer"
}

func newCreateMappingCmd() *cobra.Command {
	var mappingType string
	var async, details bool

	cmd := &cobra.Command{
		Use:   "create-mapping <table_name> <column_name> <global_group>",
		Short: "Declare a table as sharded",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := command.Args{
				"table_name":   args[0],
				"column_name":  args[1],
				"global_group": args[2],
			}
			if mappingType != "" {
				callArgs["type"] = mappingType
			}
			return runCommand(cmd, "sharding", "create_mapping", callArgs, synchronousFlag(async), details)
		},
	}
	cmd.Flags().StringVar(&mappingType, "type", "", "Mapping type (RANGE or HASH, default RANGE)")
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newAddShardCmd() *cobra.Command {
	var lowerBound string
	var async, details bool

	cmd := &cobra.Command{
		Use:   "add-shard <shard_mapping_id> <group_id>",
		Short: "Add a shard under an existing mapping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingID, err := parseID(args[0], "shard_mapping_id")
			if err != nil {
				return err
			}
			callArgs := command.Args{"shard_mapping_id": mappingID, "group_id": args[1]}
			if lowerBound != "" {
				callArgs["lower_bound"] = lowerBound
			}
			return runCommand(cmd, "sharding", "add_shard", callArgs, synchronousFlag(async), details)
		},
	}
	cmd.Flags().StringVar(&lowerBound, "lower-bound", "", "Lower bound of the shard's key range")
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newMoveShardCmd() *cobra.Command {
	var async, details bool

	cmd := &cobra.Command{
		Use:   "move-shard <shard_id> <group_id>",
		Short: "Move a shard to another group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shardID, err := parseID(args[0], "shard_id")
			if err != nil {
				return err
			}
			return runCommand(cmd, "sharding", "move_shard",
				command.Args{"shard_id": shardID, "group_id": args[1]},
				synchronousFlag(async), details)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

func newSplitShardCmd() *cobra.Command {
	var async, details bool

	cmd := &cobra.Command{
		Use:   "split-shard <shard_id> <group_id> <lower_bound>",
		Short: "Split a shard at a boundary, placing the upper half in another group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			shardID, err := parseID(args[0], "shard_id")
			if err != nil {
				return err
			}
			return runCommand(cmd, "sharding", "split_shard",
				command.Args{"shard_id": shardID, "group_id": args[1], "lower_bound": args[2]},
				synchronousFlag(async), details)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Do not wait for the procedure to finish")
	cmd.Flags().BoolVar(&details, "details", false, "Show the full activity log")
	return cmd
}

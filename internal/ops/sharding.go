package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/me/herd/internal/command"
	"github.com/me/herd/internal/executor"
	"github.com/me/herd/pkg/model"
)

// createMapping declares a table as sharded and pins its global group.
type createMapping struct {
	command.ProcedureBase
}

func (c *createMapping) LockResolver() command.Resolver { return command.ShardScope{} }

func (c *createMapping) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	tableName, err := stringArg(args, "table_name")
	if err != nil {
		return nil, err
	}
	columnName, err := stringArg(args, "column_name")
	if err != nil {
		return nil, err
	}
	globalGroup, err := stringArg(args, "global_group")
	if err != nil {
		return nil, err
	}

	mappingType := model.ShardMappingType(strings.ToUpper(optionalStringArg(args, "type", string(model.ShardMappingRange))))
	if mappingType != model.ShardMappingRange && mappingType != model.ShardMappingHash {
		return nil, model.NewValidationError("unknown mapping type '%s'", mappingType)
	}

	g, err := rt.Store.GetGroup(ctx, globalGroup)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", globalGroup)
	}

	id, err := rt.Store.CreateShardMapping(ctx, &model.ShardMapping{
		TableName:   tableName,
		ColumnName:  columnName,
		Type:        mappingType,
		GlobalGroup: globalGroup,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// addShard creates a shard under an existing mapping and assigns it to
// a group.
type addShard struct {
	command.ProcedureBase
}

func (c *addShard) LockResolver() command.Resolver { return command.ShardScope{} }

func (c *addShard) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	mappingID, err := int64Arg(args, "shard_mapping_id")
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}

	m, err := rt.Store.GetShardMapping(ctx, mappingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, model.NewNotFoundError("shard mapping", fmt.Sprint(mappingID))
	}
	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", groupID)
	}

	id, err := rt.Store.AddShard(ctx, &model.Shard{
		MappingID:  mappingID,
		GroupID:    groupID,
		LowerBound: optionalStringArg(args, "lower_bound", ""),
		State:      model.ShardStateEnabled,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// moveShard reassigns an existing shard to another group.
type moveShard struct {
	command.ProcedureBase
}

func (c *moveShard) LockResolver() command.Resolver { return command.ShardScope{} }

func (c *moveShard) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	shardID, err := int64Arg(args, "shard_id")
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}

	sh, err := rt.Store.GetShard(ctx, shardID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, model.NewNotFoundError("shard", fmt.Sprint(shardID))
	}
	if sh.GroupID == groupID {
		return nil, model.NewConflictError("shard %d already lives in group '%s'", shardID, groupID)
	}
	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", groupID)
	}

	if err := rt.Store.UpdateShardGroup(ctx, shardID, groupID); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Shard %d moved to group '%s'", shardID, groupID), nil
}

// splitShard splits an existing shard at a boundary, with the upper
// half landing in another group. The first job validates the split and
// the second creates the new shard; both run under the same lock keys,
// so no conflicting operation can slip in between.
type splitShard struct {
	command.ProcedureBase
}

func (c *splitShard) LockResolver() command.Resolver { return command.ShardScope{} }

func (c *splitShard) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	shardID, err := int64Arg(args, "shard_id")
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}
	splitPoint, err := stringArg(args, "lower_bound")
	if err != nil {
		return nil, err
	}

	sh, err := rt.Store.GetShard(ctx, shardID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, model.NewNotFoundError("shard", fmt.Sprint(shardID))
	}
	if sh.State != model.ShardStateEnabled {
		return nil, model.NewConflictError("shard %d is not enabled", shardID)
	}
	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", groupID)
	}

	mappingID := sh.MappingID
	jc.Enqueue(fmt.Sprintf("Executing creation of split shard at '%s'", splitPoint),
		func(ctx context.Context, jc *executor.JobContext) (any, error) {
			id, err := rt.Store.AddShard(ctx, &model.Shard{
				MappingID:  mappingID,
				GroupID:    groupID,
				LowerBound: splitPoint,
				State:      model.ShardStateEnabled,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil {
				return nil, err
			}
			return id, nil
		})

	return shardID, nil
}

package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/me/herd/internal/command"
	"github.com/me/herd/internal/executor"
	"github.com/me/herd/pkg/model"
)

// createGroup registers a new, empty group.
type createGroup struct {
	command.ProcedureBase
}

func (c *createGroup) LockResolver() command.Resolver { return command.GroupScope{} }

func (c *createGroup) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}

	existing, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewConflictError("group '%s' already exists", groupID)
	}

	now := time.Now().UTC()
	g := &model.Group{
		ID:          groupID,
		Description: optionalStringArg(args, "description", ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := rt.Store.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Group '%s' created", groupID), nil
}

// addServer attaches a server to a group as a secondary.
type addServer struct {
	command.ProcedureBase
}

func (c *addServer) LockResolver() command.Resolver { return command.GroupScope{} }

func (c *addServer) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}
	address, err := stringArg(args, "address")
	if err != nil {
		return nil, err
	}

	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", groupID)
	}

	srv := &model.Server{
		ID:        optionalStringArg(args, "server_id", uuid.NewString()),
		GroupID:   groupID,
		Address:   address,
		Status:    model.ServerStatusSecondary,
		CreatedAt: time.Now().UTC(),
	}
	if err := rt.Store.AddServer(ctx, srv); err != nil {
		return nil, err
	}
	return srv.ID, nil
}

// removeServer detaches a server from its group. The primary cannot be
// removed; promote another server first.
type removeServer struct {
	command.ProcedureBase
}

func (c *removeServer) LockResolver() command.Resolver { return command.GroupScope{} }

func (c *removeServer) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}
	serverID, err := stringArg(args, "server_id")
	if err != nil {
		return nil, err
	}

	srv, err := rt.Store.GetServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if srv == nil || srv.GroupID != groupID {
		return nil, model.NewNotFoundError("server", serverID)
	}
	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g != nil && g.PrimaryServer == serverID {
		return nil, model.NewConflictError("server '%s' is the primary of group '%s'", serverID, groupID)
	}

	if err := rt.Store.RemoveServer(ctx, serverID); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Server '%s' removed from group '%s'", serverID, groupID), nil
}

// promoteServer switches a group's primary. The work is split in two
// jobs: the first elects the candidate and demotes the old primary, the
// second commits the switch. Both run under the same group lock.
type promoteServer struct {
	command.ProcedureBase
}

func (c *promoteServer) LockResolver() command.Resolver { return command.GroupScope{} }

func (c *promoteServer) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}

	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", groupID)
	}

	candidateID := optionalStringArg(args, "server_id", "")
	if candidateID == "" {
		servers, err := rt.Store.ListServers(ctx, groupID)
		if err != nil {
			return nil, err
		}
		for _, srv := range servers {
			if srv.Status == model.ServerStatusSecondary {
				candidateID = srv.ID
				break
			}
		}
		if candidateID == "" {
			return nil, model.NewConflictError("group '%s' has no secondary to promote", groupID)
		}
	} else {
		srv, err := rt.Store.GetServer(ctx, candidateID)
		if err != nil {
			return nil, err
		}
		if srv == nil || srv.GroupID != groupID {
			return nil, model.NewNotFoundError("server", candidateID)
		}
		if srv.ID == g.PrimaryServer {
			return nil, model.NewConflictError("server '%s' is already the primary", candidateID)
		}
	}

	if g.PrimaryServer != "" {
		if err := rt.Store.UpdateServerStatus(ctx, g.PrimaryServer, model.ServerStatusSecondary); err != nil {
			return nil, err
		}
	}

	jc.Enqueue(fmt.Sprintf("Executing switch of group '%s' to '%s'", groupID, candidateID),
		func(ctx context.Context, jc *executor.JobContext) (any, error) {
			if err := rt.Store.UpdateServerStatus(ctx, candidateID, model.ServerStatusPrimary); err != nil {
				return nil, err
			}
			if err := rt.Store.UpdateGroupPrimary(ctx, groupID, candidateID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Server '%s' promoted in group '%s'", candidateID, groupID), nil
		})

	return candidateID, nil
}

// destroyGroup deletes an empty group.
type destroyGroup struct {
	command.ProcedureBase
}

func (c *destroyGroup) LockResolver() command.Resolver { return command.GroupScope{} }

func (c *destroyGroup) Execute(ctx context.Context, jc *executor.JobContext, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}

	servers, err := rt.Store.ListServers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(servers) > 0 {
		return nil, model.NewConflictError("group '%s' still has %d server(s)", groupID, len(servers))
	}

	if err := rt.Store.DeleteGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Group '%s' destroyed", groupID), nil
}

// lookupServers lists the servers of a group. It runs inline in the
// dispatching request rather than as a procedure.
type lookupServers struct {
	command.Base
}

func (c *lookupServers) Execute(ctx context.Context, args command.Args) (any, error) {
	rt, err := c.Runtime()
	if err != nil {
		return nil, err
	}
	groupID, err := stringArg(args, "group_id")
	if err != nil {
		return nil, err
	}

	g, err := rt.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.NewNotFoundError("group", groupID)
	}
	return rt.Store.ListServers(ctx, groupID)
}

package ops

import "github.com/me/herd/internal/command"

// Bootstrap populates the registry with every fleet operation. It is
// called once at process start, before the registry is shared; nothing
// registers commands afterwards.
func Bootstrap(reg *command.Registry) {
	reg.Register("group", "create", func() command.Command {
		return &createGroup{ProcedureBase: command.NewProcedureBase("group", "create")}
	})
	reg.Register("group", "add", func() command.Command {
		return &addServer{ProcedureBase: command.NewProcedureBase("group", "add")}
	})
	reg.Register("group", "remove", func() command.Command {
		return &removeServer{ProcedureBase: command.NewProcedureBase("group", "remove")}
	})
	reg.Register("group", "promote", func() command.Command {
		return &promoteServer{ProcedureBase: command.NewProcedureBase("group", "promote")}
	})
	reg.Register("group", "destroy", func() command.Command {
		return &destroyGroup{ProcedureBase: command.NewProcedureBase("group", "destroy")}
	})
	reg.Register("group", "lookup_servers", func() command.Command {
		return &lookupServers{Base: command.NewBase("group", "lookup_servers")}
	})

	reg.Register("sharding", "create_mapping", func() command.Command {
		return &createMapping{ProcedureBase: command.NewProcedureBase("sharding", "create_mapping")}
	})
	reg.Register("sharding", "add_shard", func() command.Command {
		return &addShard{ProcedureBase: command.NewProcedureBase("sharding", "add_shard")}
	})
	reg.Register("sharding", "move_shard", func() command.Command {
		return &moveShard{ProcedureBase: command.NewProcedureBase("sharding", "move_shard")}
	})
	reg.Register("sharding", "split_shard", func() command.Command {
		return &splitShard{ProcedureBase: command.NewProcedureBase("sharding", "split_shard")}
	})

	reg.Register("manage", "ping", func() command.Command {
		return &ping{Base: command.NewBase("manage", "ping")}
	})
}

package ops

import (
	"context"

	"github.com/me/herd/internal/command"
)

// ping answers inline; it exists so clients can probe liveness through
// the same dispatch path every other command uses.
type ping struct {
	command.Base
}

func (c *ping) Execute(ctx context.Context, args command.Args) (any, error) {
	return "pong", nil
}

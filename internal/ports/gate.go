package ports

import "context"

// Gate is the external access-control collaborator. Every entry point
// consults it before touching any state; a paused gate rejects the
// operation outright. op is the entry point name, so a gate can allow
// reads while mutations are halted.
type Gate interface {
	Allow(ctx context.Context, op string) error
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, op string) error

func (f GateFunc) Allow(ctx context.Context, op string) error {
	return f(ctx, op)
}

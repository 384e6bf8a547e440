// Package pipeline holds the render data model and the stage contract the
// orchestrator chains together.
package pipeline

import "context"

// Stage turns one input into one output. Implementations must honor ctx
// cancellation.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc lets a plain function act as a Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

package services

import "context"

// Stage checks or enriches a value on its way to a write. Returning an error
// stops the pipeline.
type Stage[T any] func(ctx context.Context, in T) (T, error)

// Run passes in through stages in order and returns the first error.
func Run[T any](ctx context.Context, in T, stages ...Stage[T]) (T, error) {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return in, err
		}
		out, err := stage(ctx, in)
		if err != nil {
			return in, err
		}
		in = out
	}
	return in, nil
}

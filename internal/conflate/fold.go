package conflate

import (
	"context"
	"iter"

	"github.com/rotisserie/eris"
)

// Fold threads state through step for every value of seq. It stops at the
// first step error or when ctx is done, returning the state reached so far.
func Fold[T, S any](ctx context.Context, seq iter.Seq[T], init S, step func(context.Context, S, T) (S, error)) (S, error) {
	state := init
	for v := range seq {
		if err := ctx.Err(); err != nil {
			return state, eris.Wrap(err, "conflate: fold")
		}
		next, err := step(ctx, state, v)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

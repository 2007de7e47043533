package oracle

import (
	"context"
	"sync/atomic"
)

type callCounterKey struct{}

// WithCallCounter returns a context that tallies Generate calls made through
// a Counted client. Read the tally with CallCount.
func WithCallCounter(ctx context.Context) context.Context {
	return context.WithValue(ctx, callCounterKey{}, new(atomic.Int64))
}

// CallCount reports the calls charged to ctx so far, 0 without a counter.
func CallCount(ctx context.Context) int {
	if n, ok := ctx.Value(callCounterKey{}).(*atomic.Int64); ok {
		return int(n.Load())
	}
	return 0
}

type counted struct {
	next Client
}

// Counted wraps c so every call is charged to the counter on its context.
// A nil c stays nil.
func Counted(c Client) Client {
	if c == nil {
		return nil
	}
	return counted{next: c}
}

func (c counted) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	if n, ok := ctx.Value(callCounterKey{}).(*atomic.Int64); ok {
		n.Add(1)
	}
	return c.next.Generate(ctx, prompt, image)
}

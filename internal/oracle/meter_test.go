package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountedTalliesPerContext(t *testing.T) {
	f := &Fake{Reply: func(string, []byte) (string, error) { return "ok", nil }}
	c := Counted(f)

	ctxA := WithCallCounter(context.Background())
	ctxB := WithCallCounter(context.Background())

	for i := 0; i < 3; i++ {
		out, err := c.Generate(ctxA, "a", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	}
	_, _ = c.Generate(ctxB, "b", nil)
	_, _ = c.Generate(context.Background(), "untracked", nil)

	assert.Equal(t, 3, CallCount(ctxA))
	assert.Equal(t, 1, CallCount(ctxB))
	assert.Zero(t, CallCount(context.Background()))
	assert.Equal(t, 5, f.CallCount())
}

func TestCountedChargesFailedCalls(t *testing.T) {
	c := Counted(&Fake{Reply: func(string, []byte) (string, error) { return "", errors.New("rate limited") }})
	ctx := WithCallCounter(context.Background())

	_, err := c.Generate(ctx, "x", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, CallCount(ctx))
}

func TestCountedNilStaysNil(t *testing.T) {
	assert.Nil(t, Counted(nil))
}

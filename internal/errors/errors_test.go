package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	require.Error(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(ErrIntegrity, "decryption failed")
		require.Error(t, wrapped)
		assert.Equal(t, "decryption failed: integrity check failed", wrapped.Error())
		assert.True(t, Is(wrapped, ErrIntegrity))
		assert.False(t, Is(wrapped, ErrNotFound))
	})

	t.Run("wrap nil error", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "wrapped"))
	})

	t.Run("double wrap keeps the chain", func(t *testing.T) {
		inner := Wrap(ErrIntegrity, "authentication failed")
		outer := Wrap(inner, "key mismatch")
		assert.True(t, Is(outer, inner))
		assert.True(t, Is(outer, ErrIntegrity))
	})
}

func TestAs(t *testing.T) {
	err := Wrap(customError{Msg: "boom"}, "context")

	var target customError
	require.True(t, As(err, &target))
	assert.Equal(t, "boom", target.Msg)
}

func TestJoin(t *testing.T) {
	joined := Join(ErrNotFound, nil, ErrConflict)
	assert.True(t, errors.Is(joined, ErrNotFound))
	assert.True(t, errors.Is(joined, ErrConflict))
	assert.Nil(t, Join(nil, nil))
}

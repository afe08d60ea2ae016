package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	t.Run("direct domain error", func(t *testing.T) {
		assert.Equal(t, CodeValidation, Kind(Validation("bad input")))
		assert.Equal(t, CodeGateway, Kind(Gateway("rail down", nil)))
	})

	t.Run("wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("handling request: %w", Conflict("already completed"))
		assert.Equal(t, CodeConflict, Kind(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, CodeInternal, Kind(stderrors.New("boom")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", Kind(nil))
	})
}

func TestIs(t *testing.T) {
	t.Run("sentinel matches wrapped copy", func(t *testing.T) {
		err := fmt.Errorf("scan: %w", ErrSessionExpired)
		assert.True(t, stderrors.Is(err, ErrSessionExpired))
		assert.False(t, stderrors.Is(err, ErrSessionNotFound))
	})

	t.Run("cause is reachable through unwrap", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Gateway("rail unreachable", cause)
		assert.True(t, stderrors.Is(err, cause))
	})
}

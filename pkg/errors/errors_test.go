package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/promise/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "item",
			ID:       "9781405892469",
		}
		assert.Equal(t, "item with ID 9781405892469 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("item", "test")
		wrapped := fmt.Errorf("lookup: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("batch_size", 0, "must be positive")
		assert.Equal(t, "validation failed for field batch_size: must be positive", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid snapshot"}
		assert.Equal(t, "validation failed: invalid snapshot", err.Error())
	})
}

func TestPreconditionError(t *testing.T) {
	err := pkgerrors.NewPreconditionError("count hits", "pallet has not been reconciled")
	assert.Equal(t, "cannot count hits: pallet has not been reconciled", err.Error())
	assert.True(t, pkgerrors.IsPrecondition(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestTransportError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
		temporary   bool
	}{
		{name: "not found", status: 404},
		{name: "rate limited", status: 429, rateLimited: true, temporary: true},
		{name: "server error", status: 502, unavailable: true, temporary: true},
		{name: "network", status: 0, temporary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewTransportError("openlibrary", tt.status, "boom")
			assert.True(t, pkgerrors.IsTransport(err))
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsUnavailable(err))
			assert.Equal(t, tt.temporary, err.Temporary())
		})
	}

	t.Run("wrapped cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := pkgerrors.WrapTransport("archive", "https://archive.org", cause)
		require.Error(t, err)
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestResultOverflowError(t *testing.T) {
	err := pkgerrors.NewResultOverflowError("isbn:(1)", 5, 2)
	assert.True(t, pkgerrors.IsResultOverflow(err))
	assert.False(t, pkgerrors.IsTransport(err))
}

func TestDuplicateExportError(t *testing.T) {
	err := pkgerrors.NewDuplicateExportError("data/p_misses.tsv")
	assert.Equal(t, "export data/p_misses.tsv already exists", err.Error())
	assert.True(t, pkgerrors.IsAlreadyExists(err))

	var dup *pkgerrors.DuplicateExportError
	require.True(t, errors.As(fmt.Errorf("export: %w", err), &dup))
	assert.Equal(t, "data/p_misses.tsv", dup.Path)
}

func TestWrapHelpers(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
	assert.Nil(t, pkgerrors.WrapResource("load", "pallet", "x", nil))
	assert.Nil(t, pkgerrors.WrapParse("yaml", "x", nil))
	assert.Nil(t, pkgerrors.WrapTransport("svc", "x", nil))
	assert.Nil(t, pkgerrors.WrapCanceled("op", nil))

	base := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "data/p.yaml", base)
	assert.True(t, errors.Is(err, base))
	assert.Contains(t, err.Error(), "data/p.yaml")

	err = pkgerrors.WrapResource("save", "pallet", "p1", base)
	assert.Equal(t, "failed to save pallet p1: disk full", err.Error())
}

func TestWrapCanceled(t *testing.T) {
	err := pkgerrors.WrapCanceled("register misses", context.Canceled)
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

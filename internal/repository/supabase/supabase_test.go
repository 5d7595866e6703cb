package supabase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
)

// Network-free tests only: the unconfigured degradation path and the error
// code translation. Query behavior against a live project is covered by the
// sqlite backend's tests, which run the same repository contract.

func TestUnconfiguredClientDegradesToDependencyError(t *testing.T) {
	client, err := New("", "")
	require.NoError(t, err, "missing credentials must not be a startup failure")

	ctx := context.Background()

	assert.ErrorIs(t, client.Create(ctx, &model.Memory{Title: "x"}), apperror.ErrDependency)

	_, err = client.GetBySlug(ctx, "anything")
	assert.ErrorIs(t, err, apperror.ErrDependency)

	_, err = client.List(ctx)
	assert.ErrorIs(t, err, apperror.ErrDependency)

	assert.ErrorIs(t, client.Delete(ctx, "id"), apperror.ErrDependency)

	lores := client.Lores()
	assert.ErrorIs(t, lores.Create(ctx, &model.Lore{Content: "x"}), apperror.ErrDependency)

	_, err = lores.ListApproved(ctx)
	assert.ErrorIs(t, err, apperror.ErrDependency)

	assert.ErrorIs(t, lores.SetApproved(ctx, "id", true), apperror.ErrDependency)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"single row miss", errors.New(`(PGRST116) JSON object requested, multiple (or no) rows returned`), apperror.ErrNotFound},
		{"unique violation", errors.New(`(23505) duplicate key value violates unique constraint "memories_slug_key"`), apperror.ErrConflict},
		{"row level security", errors.New(`(42501) new row violates row-level security policy`), apperror.ErrForbidden},
		{"anything else", errors.New("dial tcp: connection refused"), apperror.ErrDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, "memory", "key")
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

// Package repository defines the storage interfaces the service layer
// depends on. Two implementations exist: sqlite (embedded, the default) and
// supabase (managed Postgres over PostgREST). The service layer only ever
// sees these interfaces.
package repository

import (
	"context"

	"github.com/mkaye/memorybox/internal/model"
)

// MemoryRepository persists Memory records.
//
// List returns memories newest-first. Slug uniqueness is enforced by the
// store itself (unique index / constraint), not pre-checked by callers;
// a duplicate insert surfaces as apperror.ErrConflict.
type MemoryRepository interface {
	Create(ctx context.Context, memory *model.Memory) error
	GetByID(ctx context.Context, id string) (*model.Memory, error)
	GetBySlug(ctx context.Context, slug string) (*model.Memory, error)
	List(ctx context.Context) ([]model.Memory, error)
	Delete(ctx context.Context, id string) error
}

// LoreRepository persists Lore records.
//
// ListApproved returns only approved entries, newest-first; unapproved
// submissions are invisible to every read path. SetApproved is the
// moderation flip, performed outside the public API surface.
type LoreRepository interface {
	Create(ctx context.Context, lore *model.Lore) error
	ListApproved(ctx context.Context) ([]model.Lore, error)
	SetApproved(ctx context.Context, id string, approved bool) error
}

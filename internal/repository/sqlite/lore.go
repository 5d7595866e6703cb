package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository"
)

var _ repository.LoreRepository = (*LoreRepo)(nil)

// LoreRepo implements the lore repository over the shared connection. It is
// a separate receiver from DB because both entities define a Create.
type LoreRepo struct {
	db *DB
}

// Lores returns the lore repository view of this database.
func (db *DB) Lores() *LoreRepo {
	return &LoreRepo{db: db}
}

// Create inserts a lore submission. IsApproved is always written as false
// here regardless of what the caller set; approval only ever happens through
// SetApproved.
func (r *LoreRepo) Create(ctx context.Context, lore *model.Lore) error {
	lore.ID = xid.New().String()
	lore.IsApproved = false
	lore.CreatedAt = time.Now().UTC()

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO lores (id, content, is_approved, created_at)
		 VALUES (?, ?, 0, ?)`,
		lore.ID, lore.Content, lore.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating lore: %w", err)
	}
	return nil
}

// ListApproved returns approved lore entries, newest first.
func (r *LoreRepo) ListApproved(ctx context.Context) ([]model.Lore, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, content, is_approved, created_at
		 FROM lores
		 WHERE is_approved = 1
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing approved lores: %w", err)
	}
	defer rows.Close()

	lores := []model.Lore{}
	for rows.Next() {
		var lore model.Lore
		if err := rows.Scan(&lore.ID, &lore.Content, &lore.IsApproved, &lore.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning lore: %w", err)
		}
		lore.CreatedAt = lore.CreatedAt.UTC()
		lores = append(lores, lore)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing approved lores: %w", err)
	}

	return lores, nil
}

// SetApproved flips the moderation flag on a lore entry.
func (r *LoreRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE lores SET is_approved = ? WHERE id = ?`, approved, id)
	if err != nil {
		return fmt.Errorf("sqlite: approving lore %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: approving lore %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("lore", id)
	}
	return nil
}

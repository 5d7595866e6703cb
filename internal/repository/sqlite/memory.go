package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository"
)

// Compile-time check that *DB satisfies the repository interface.
var _ repository.MemoryRepository = (*DB)(nil)

const memoryColumns = `id, title, slug, creator_names, short_description, content,
	thumbnail_url, media_keys, spotify_id, spotify_kind, password_hash,
	memory_date, created_at, updated_at`

// Create inserts a new memory, generating its ID and timestamps. A slug
// collision surfaces as apperror.ErrConflict — the unique index is the only
// arbiter of slug uniqueness.
func (db *DB) Create(ctx context.Context, memory *model.Memory) error {
	memory.ID = xid.New().String()

	now := time.Now().UTC()
	memory.CreatedAt = now
	memory.UpdatedAt = now

	mediaKeys, err := json.Marshal(keysOrEmpty(memory.MediaKeys))
	if err != nil {
		return fmt.Errorf("sqlite: encoding media keys: %w", err)
	}

	var spotifyID, spotifyKind string
	if memory.Spotify != nil {
		spotifyID = memory.Spotify.ID
		spotifyKind = string(memory.Spotify.Kind)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO memories (`+memoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		memory.ID,
		memory.Title,
		memory.Slug,
		memory.CreatorNames,
		memory.ShortDescription,
		memory.Content,
		memory.ThumbnailURL,
		string(mediaKeys),
		spotifyID,
		spotifyKind,
		memory.PasswordHash,
		nullTime(memory.MemoryDate),
		memory.CreatedAt,
		memory.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("memory", memory.Slug)
		}
		return fmt.Errorf("sqlite: creating memory: %w", err)
	}

	return nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)

	memory, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("memory", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting memory %s: %w", id, err)
	}
	return memory, nil
}

func (db *DB) GetBySlug(ctx context.Context, slug string) (*model.Memory, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE slug = ?`, slug)

	memory, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("memory", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting memory by slug %s: %w", slug, err)
	}
	return memory, nil
}

// List returns all memories, newest first.
func (db *DB) List(ctx context.Context) ([]model.Memory, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+memoryColumns+` FROM memories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing memories: %w", err)
	}
	defer rows.Close()

	memories := []model.Memory{}
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning memory: %w", err)
		}
		memories = append(memories, *memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing memories: %w", err)
	}

	return memories, nil
}

// Delete removes a memory record. The media objects it referenced are not
// garbage-collected (known gap).
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting memory %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting memory %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("memory", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (*model.Memory, error) {
	var (
		memory      model.Memory
		mediaKeys   string
		spotifyID   string
		spotifyKind string
		memoryDate  sql.NullTime
	)

	err := row.Scan(
		&memory.ID,
		&memory.Title,
		&memory.Slug,
		&memory.CreatorNames,
		&memory.ShortDescription,
		&memory.Content,
		&memory.ThumbnailURL,
		&mediaKeys,
		&spotifyID,
		&spotifyKind,
		&memory.PasswordHash,
		&memoryDate,
		&memory.CreatedAt,
		&memory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(mediaKeys), &memory.MediaKeys); err != nil {
		return nil, fmt.Errorf("decoding media keys: %w", err)
	}
	if len(memory.MediaKeys) == 0 {
		memory.MediaKeys = nil
	}

	if spotifyID != "" {
		memory.Spotify = &model.SpotifyRef{
			ID:   spotifyID,
			Kind: model.SpotifyKind(spotifyKind),
		}
	}

	if memoryDate.Valid {
		d := memoryDate.Time.UTC()
		memory.MemoryDate = &d
	}
	memory.CreatedAt = memory.CreatedAt.UTC()
	memory.UpdatedAt = memory.UpdatedAt.UTC()

	return &memory, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func keysOrEmpty(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}

// isUniqueViolation detects a unique-constraint failure from the driver.
// modernc.org/sqlite does not export a typed error for this, so the message
// text is the contract.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/supabase-community/postgrest-go"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository"
)

var _ repository.MemoryRepository = (*Client)(nil)

const memoriesTable = "memories"

// memoryRow mirrors the memories table. Timestamps travel as strings:
// created_at/updated_at as RFC 3339, memory_date as a bare date.
type memoryRow struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Slug             string   `json:"slug"`
	CreatorNames     string   `json:"creator_names"`
	ShortDescription string   `json:"short_description"`
	Content          string   `json:"content"`
	ThumbnailURL     string   `json:"thumbnail_url"`
	MediaKeys        []string `json:"media_keys"`
	SpotifyID        string   `json:"spotify_id"`
	SpotifyKind      string   `json:"spotify_kind"`
	PasswordHash     string   `json:"password_hash"`
	MemoryDate       *string  `json:"memory_date"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

const dateOnly = "2006-01-02"

func toRow(m *model.Memory) memoryRow {
	row := memoryRow{
		ID:               m.ID,
		Title:            m.Title,
		Slug:             m.Slug,
		CreatorNames:     m.CreatorNames,
		ShortDescription: m.ShortDescription,
		Content:          m.Content,
		ThumbnailURL:     m.ThumbnailURL,
		MediaKeys:        m.MediaKeys,
		PasswordHash:     m.PasswordHash,
		CreatedAt:        m.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        m.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if row.MediaKeys == nil {
		row.MediaKeys = []string{}
	}
	if m.Spotify != nil {
		row.SpotifyID = m.Spotify.ID
		row.SpotifyKind = string(m.Spotify.Kind)
	}
	if m.MemoryDate != nil {
		d := m.MemoryDate.UTC().Format(dateOnly)
		row.MemoryDate = &d
	}
	return row
}

func (r memoryRow) toModel() (*model.Memory, error) {
	m := &model.Memory{
		ID:               r.ID,
		Title:            r.Title,
		Slug:             r.Slug,
		CreatorNames:     r.CreatorNames,
		ShortDescription: r.ShortDescription,
		Content:          r.Content,
		ThumbnailURL:     r.ThumbnailURL,
		MediaKeys:        r.MediaKeys,
		PasswordHash:     r.PasswordHash,
	}
	if len(m.MediaKeys) == 0 {
		m.MediaKeys = nil
	}
	if r.SpotifyID != "" {
		m.Spotify = &model.SpotifyRef{ID: r.SpotifyID, Kind: model.SpotifyKind(r.SpotifyKind)}
	}
	if r.MemoryDate != nil && *r.MemoryDate != "" {
		d, err := time.ParseInLocation(dateOnly, *r.MemoryDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("supabase: parsing memory_date %q: %w", *r.MemoryDate, err)
		}
		m.MemoryDate = &d
	}

	var err error
	if m.CreatedAt, err = parseTimestamp(r.CreatedAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTimestamp(r.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// parseTimestamp accepts the timestamp shapes PostgREST emits, with and
// without an explicit zone.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("supabase: unrecognized timestamp %q", s)
}

// Create inserts a new memory. The table's unique slug constraint is the
// authority on slug collisions (surfaced as a conflict).
func (c *Client) Create(_ context.Context, memory *model.Memory) error {
	if err := c.ready(); err != nil {
		return err
	}
	memory.ID = xid.New().String()
	now := time.Now().UTC()
	memory.CreatedAt = now
	memory.UpdatedAt = now

	_, _, err := c.sb.From(memoriesTable).
		Insert(toRow(memory), false, "", "representation", "").
		Execute()
	if err != nil {
		return translateError(err, "memory", memory.Slug)
	}
	return nil
}

func (c *Client) GetByID(_ context.Context, id string) (*model.Memory, error) {
	return c.getBy("id", id)
}

func (c *Client) GetBySlug(_ context.Context, slug string) (*model.Memory, error) {
	return c.getBy("slug", slug)
}

func (c *Client) getBy(column, value string) (*model.Memory, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	data, _, err := c.sb.From(memoriesTable).
		Select("*", "", false).
		Eq(column, value).
		Single().
		Execute()
	if err != nil {
		return nil, translateError(err, "memory", value)
	}

	var row memoryRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("supabase: decoding memory: %w", err)
	}
	return row.toModel()
}

// List returns all memories, newest first.
func (c *Client) List(_ context.Context) ([]model.Memory, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	data, _, err := c.sb.From(memoriesTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, translateError(err, "memory", "")
	}

	var rows []memoryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decoding memories: %w", err)
	}

	memories := make([]model.Memory, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			return nil, err
		}
		memories = append(memories, *m)
	}
	return memories, nil
}

// Delete removes a memory record. Media objects in storage are not
// garbage-collected (known gap).
func (c *Client) Delete(_ context.Context, id string) error {
	if err := c.ready(); err != nil {
		return err
	}
	data, _, err := c.sb.From(memoriesTable).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return translateError(err, "memory", id)
	}

	// PostgREST deletes are idempotent; an empty representation means the
	// row was never there.
	var deleted []json.RawMessage
	if err := json.Unmarshal(data, &deleted); err == nil && len(deleted) == 0 {
		return apperror.NotFound("memory", id)
	}
	return nil
}

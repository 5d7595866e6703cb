package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/supabase-community/postgrest-go"

	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository"
)

var _ repository.LoreRepository = (*LoreRepo)(nil)

const loresTable = "lores"

// LoreRepo implements the lore repository over the shared client. It is a
// separate receiver from Client because both entities define a Create.
type LoreRepo struct {
	c *Client
}

// Lores returns the lore repository view of this client.
func (c *Client) Lores() *LoreRepo {
	return &LoreRepo{c: c}
}

type loreRow struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	IsApproved bool   `json:"is_approved"`
	CreatedAt  string `json:"created_at"`
}

func (r loreRow) toModel() (*model.Lore, error) {
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &model.Lore{
		ID:         r.ID,
		Content:    r.Content,
		IsApproved: r.IsApproved,
		CreatedAt:  createdAt,
	}, nil
}

// Create inserts a lore submission, always unapproved. Public submissions
// run under the anon key; a row-level-security denial comes back as a
// forbidden error.
func (r *LoreRepo) Create(_ context.Context, lore *model.Lore) error {
	if err := r.c.ready(); err != nil {
		return err
	}
	lore.ID = xid.New().String()
	lore.IsApproved = false
	lore.CreatedAt = time.Now().UTC()

	row := loreRow{
		ID:         lore.ID,
		Content:    lore.Content,
		IsApproved: false,
		CreatedAt:  lore.CreatedAt.Format(time.RFC3339Nano),
	}
	_, _, err := r.c.sb.From(loresTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return translateError(err, "lore", lore.ID)
	}
	return nil
}

// ListApproved returns approved lore entries, newest first.
func (r *LoreRepo) ListApproved(_ context.Context) ([]model.Lore, error) {
	if err := r.c.ready(); err != nil {
		return nil, err
	}
	data, _, err := r.c.sb.From(loresTable).
		Select("id, content, is_approved, created_at", "", false).
		Eq("is_approved", "true").
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, translateError(err, "lore", "")
	}

	var rows []loreRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("supabase: decoding lores: %w", err)
	}

	lores := make([]model.Lore, 0, len(rows))
	for _, row := range rows {
		lore, err := row.toModel()
		if err != nil {
			return nil, err
		}
		lores = append(lores, *lore)
	}
	return lores, nil
}

// SetApproved flips the moderation flag. This path needs a client created
// with the service-role key; the anon key's policies will reject it.
func (r *LoreRepo) SetApproved(_ context.Context, id string, approved bool) error {
	if err := r.c.ready(); err != nil {
		return err
	}
	_, _, err := r.c.sb.From(loresTable).
		Update(map[string]any{"is_approved": approved}, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return translateError(err, "lore", id)
	}
	return nil
}

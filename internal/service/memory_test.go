package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/auth"
	"github.com/mkaye/memorybox/internal/document"
	"github.com/mkaye/memorybox/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================

type mockMemoryRepo struct {
	memories []model.Memory
	nextID   int
	err      error
}

func (m *mockMemoryRepo) Create(_ context.Context, memory *model.Memory) error {
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.memories {
		if existing.Slug == memory.Slug {
			return apperror.Conflict("memory", memory.Slug)
		}
	}
	m.nextID++
	memory.ID = fmt.Sprintf("mock-%d", m.nextID)
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now().UTC()
	}
	memory.UpdatedAt = memory.CreatedAt
	m.memories = append(m.memories, *memory)
	return nil
}

func (m *mockMemoryRepo) GetByID(_ context.Context, id string) (*model.Memory, error) {
	for _, mem := range m.memories {
		if mem.ID == id {
			out := mem
			return &out, nil
		}
	}
	return nil, apperror.NotFound("memory", id)
}

func (m *mockMemoryRepo) GetBySlug(_ context.Context, slug string) (*model.Memory, error) {
	for _, mem := range m.memories {
		if mem.Slug == slug {
			out := mem
			return &out, nil
		}
	}
	return nil, apperror.NotFound("memory", slug)
}

func (m *mockMemoryRepo) List(_ context.Context) ([]model.Memory, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.Memory, len(m.memories))
	copy(out, m.memories)
	return out, nil
}

func (m *mockMemoryRepo) Delete(_ context.Context, id string) error {
	for i, mem := range m.memories {
		if mem.ID == id {
			m.memories = append(m.memories[:i], m.memories[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("memory", id)
}

func newTestMemoryService(repo *mockMemoryRepo) *MemoryService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMemoryService(repo, auth.NewPasswordServiceWithCost(bcrypt.MinCost), logger)
}

func dateAt(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreateMemoryDerivesSlug(t *testing.T) {
	svc := newTestMemoryService(&mockMemoryRepo{})

	memory, err := svc.Create(context.Background(), CreateMemoryInput{
		Title:   "Trip to the Beach!",
		Spotify: "https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT?si=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "trip-to-the-beach", memory.Slug)
	assert.Equal(t, document.EmptySerialized, memory.Content)
	require.NotNil(t, memory.Spotify)
	assert.Equal(t, model.SpotifyTrack, memory.Spotify.Kind)
	assert.Equal(t, "4cOdK2wGLETKBW3PvgPWqT", memory.Spotify.ID)
	assert.False(t, memory.IsProtected())
	assert.NotEmpty(t, memory.ID)
}

func TestCreateMemoryRejectsEmptyTitle(t *testing.T) {
	svc := newTestMemoryService(&mockMemoryRepo{})

	_, err := svc.Create(context.Background(), CreateMemoryInput{Title: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateMemoryRejectsUnparseableContent(t *testing.T) {
	svc := newTestMemoryService(&mockMemoryRepo{})

	_, err := svc.Create(context.Background(), CreateMemoryInput{
		Title:   "Bad Content",
		Content: `{"type":"mystery-node"}`,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateMemoryRejectsInvalidSpotify(t *testing.T) {
	svc := newTestMemoryService(&mockMemoryRepo{})

	_, err := svc.Create(context.Background(), CreateMemoryInput{
		Title:   "Bad Spotify",
		Spotify: "https://example.com/not-spotify",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreateMemoryHashesPassword(t *testing.T) {
	svc := newTestMemoryService(&mockMemoryRepo{})

	memory, err := svc.Create(context.Background(), CreateMemoryInput{
		Title:    "Secret Trip",
		Password: "opensesame",
	})
	require.NoError(t, err)

	assert.True(t, memory.IsProtected())
	assert.NotEqual(t, "opensesame", memory.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(memory.PasswordHash), []byte("opensesame")))
}

func TestCreateMemoryDuplicateSlugConflicts(t *testing.T) {
	repo := &mockMemoryRepo{}
	svc := newTestMemoryService(repo)

	_, err := svc.Create(context.Background(), CreateMemoryInput{Title: "Same Title"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateMemoryInput{Title: "Same Title"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

// =========================================================================
// ON THIS DAY
// =========================================================================

func TestOnThisDayPrefersExplicitEventDate(t *testing.T) {
	repo := &mockMemoryRepo{
		memories: []model.Memory{
			{ID: "1", Slug: "fireworks", MemoryDate: dateAt(2020, time.July, 4), CreatedAt: time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "2", Slug: "new-year", MemoryDate: dateAt(2019, time.January, 1), CreatedAt: time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)},
			// Created on July 4 with no event date. The fallback pass
			// must never run while a primary match exists.
			{ID: "3", Slug: "posted-on-the-fourth", CreatedAt: time.Date(2021, time.July, 4, 12, 0, 0, 0, time.UTC)},
		},
	}
	svc := newTestMemoryService(repo)
	svc.now = func() time.Time { return time.Date(2026, time.July, 4, 9, 30, 0, 0, time.UTC) }

	memory, err := svc.OnThisDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fireworks", memory.Slug)
}

func TestOnThisDayFallsBackToCreationDate(t *testing.T) {
	repo := &mockMemoryRepo{
		memories: []model.Memory{
			{ID: "1", Slug: "new-year", MemoryDate: dateAt(2019, time.January, 1), CreatedAt: time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)},
			{ID: "2", Slug: "posted-on-the-fourth", CreatedAt: time.Date(2021, time.July, 4, 12, 0, 0, 0, time.UTC)},
		},
	}
	svc := newTestMemoryService(repo)
	svc.now = func() time.Time { return time.Date(2026, time.July, 4, 9, 30, 0, 0, time.UTC) }

	memory, err := svc.OnThisDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "posted-on-the-fourth", memory.Slug)
}

func TestOnThisDayNoMatchIsNotFound(t *testing.T) {
	repo := &mockMemoryRepo{
		memories: []model.Memory{
			{ID: "1", Slug: "new-year", MemoryDate: dateAt(2019, time.January, 1), CreatedAt: time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
	svc := newTestMemoryService(repo)
	svc.now = func() time.Time { return time.Date(2026, time.July, 4, 9, 30, 0, 0, time.UTC) }

	_, err := svc.OnThisDay(context.Background())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOnThisDayChoosesAmongMatchesOnly(t *testing.T) {
	repo := &mockMemoryRepo{
		memories: []model.Memory{
			{ID: "1", Slug: "a", MemoryDate: dateAt(2018, time.July, 4), CreatedAt: time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "2", Slug: "b", MemoryDate: dateAt(2022, time.July, 4), CreatedAt: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "3", Slug: "c", MemoryDate: dateAt(2020, time.December, 25), CreatedAt: time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	svc := newTestMemoryService(repo)
	svc.now = func() time.Time { return time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC) }
	svc.rng = rand.New(rand.NewSource(42))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		memory, err := svc.OnThisDay(context.Background())
		require.NoError(t, err)
		seen[memory.Slug] = true
		assert.NotEqual(t, "c", memory.Slug)
	}
	// With 50 draws over two candidates, both should appear.
	assert.True(t, seen["a"] && seen["b"], "both matches should be reachable, got %v", seen)
}

// =========================================================================
// PASSWORD GATE
// =========================================================================

func TestVerifyPassword(t *testing.T) {
	repo := &mockMemoryRepo{}
	svc := newTestMemoryService(repo)

	open, err := svc.Create(context.Background(), CreateMemoryInput{Title: "Open Memory"})
	require.NoError(t, err)
	locked, err := svc.Create(context.Background(), CreateMemoryInput{Title: "Locked Memory", Password: "hunter2"})
	require.NoError(t, err)

	t.Run("unprotected memory verifies trivially", func(t *testing.T) {
		assert.NoError(t, svc.VerifyPassword(context.Background(), open.ID, "anything"))
	})

	t.Run("correct password verifies", func(t *testing.T) {
		assert.NoError(t, svc.VerifyPassword(context.Background(), locked.ID, "hunter2"))
	})

	t.Run("wrong password is unauthorized with a generic message", func(t *testing.T) {
		err := svc.VerifyPassword(context.Background(), locked.ID, "wrong")
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Equal(t, "incorrect password", err.Error())
	})

	t.Run("missing record is reported distinctly as not found", func(t *testing.T) {
		err := svc.VerifyPassword(context.Background(), "no-such-id", "hunter2")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestDeleteRequiresID(t *testing.T) {
	svc := newTestMemoryService(&mockMemoryRepo{})
	assert.ErrorIs(t, svc.Delete(context.Background(), "  "), apperror.ErrValidation)
}

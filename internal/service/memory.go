// Package service contains the business logic layer: validation, slug and
// password derivation, and the date/randomness content selectors. Handlers
// translate its typed errors to HTTP; repositories do the SQL. The service
// itself knows about neither.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/auth"
	"github.com/mkaye/memorybox/internal/document"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository"
	"github.com/mkaye/memorybox/internal/slug"
	"github.com/mkaye/memorybox/internal/spotify"
)

const (
	MaxTitleLength            = 200
	MaxCreatorNamesLength     = 200
	MaxShortDescriptionLength = 500
)

// MemoryService handles business logic for memory records.
type MemoryService struct {
	repo      repository.MemoryRepository
	passwords *auth.PasswordService
	logger    *slog.Logger

	// now and rng are swapped out in tests to pin "today" and the random
	// choice. rng is guarded by rngMu; *rand.Rand is not goroutine safe.
	now   func() time.Time
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewMemoryService(repo repository.MemoryRepository, passwords *auth.PasswordService, logger *slog.Logger) *MemoryService {
	return &MemoryService{
		repo:      repo,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateMemoryInput carries everything a new memory can be built from.
// Spotify is the raw user input (URL or bare ID); Password is the plaintext
// to gate the memory behind, empty for an unprotected one.
type CreateMemoryInput struct {
	Title            string
	CreatorNames     string
	ShortDescription string
	Content          string
	ThumbnailURL     string
	MediaKeys        []string
	Spotify          string
	Password         string
	MemoryDate       *time.Time
}

// Create validates and saves a new memory.
//
// The slug is derived from the title, falling back to a random identifier
// when the title yields nothing sluggable; uniqueness is enforced by the
// store. Content must parse as a document tree and is stored re-serialized,
// so everything in the store is canonical. The spotify reference is resolved
// to its canonical {id, kind} form and the password, when present, is
// replaced by its bcrypt hash before anything is persisted.
func (s *MemoryService) Create(ctx context.Context, in CreateMemoryInput) (*model.Memory, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.CreatorNames) > MaxCreatorNamesLength {
		return nil, apperror.ValidationFailed("creatorNames",
			fmt.Sprintf("creator names must be %d characters or less", MaxCreatorNamesLength))
	}
	if len(in.ShortDescription) > MaxShortDescriptionLength {
		return nil, apperror.ValidationFailed("shortDescription",
			fmt.Sprintf("short description must be %d characters or less", MaxShortDescriptionLength))
	}

	doc, err := document.Parse(in.Content)
	if err != nil {
		return nil, apperror.ValidationFailed("content", err.Error())
	}
	content, err := document.Serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("normalizing content: %w", err)
	}

	var spotifyRef *model.SpotifyRef
	if strings.TrimSpace(in.Spotify) != "" {
		spotifyRef, err = spotify.Resolve(in.Spotify)
		if err != nil {
			return nil, apperror.ValidationFailed("spotify", "not a recognizable spotify track or playlist")
		}
	}

	var passwordHash string
	if in.Password != "" {
		passwordHash, err = s.passwords.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
	}

	memory := &model.Memory{
		Title:            title,
		Slug:             slug.Generate(title),
		CreatorNames:     strings.TrimSpace(in.CreatorNames),
		ShortDescription: strings.TrimSpace(in.ShortDescription),
		Content:          content,
		ThumbnailURL:     strings.TrimSpace(in.ThumbnailURL),
		MediaKeys:        in.MediaKeys,
		Spotify:          spotifyRef,
		PasswordHash:     passwordHash,
		MemoryDate:       in.MemoryDate,
	}

	if err := s.repo.Create(ctx, memory); err != nil {
		s.logger.Error("failed to create memory",
			slog.String("slug", memory.Slug),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating memory: %w", err)
	}

	s.logger.Info("memory created",
		slog.String("id", memory.ID),
		slog.String("slug", memory.Slug),
		slog.Bool("protected", memory.IsProtected()),
	)

	return memory, nil
}

// List returns all memories, newest first.
func (s *MemoryService) List(ctx context.Context) ([]model.Memory, error) {
	memories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list memories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	return memories, nil
}

// GetBySlug retrieves one memory. Returns apperror.ErrNotFound when the
// slug matches nothing.
func (s *MemoryService) GetBySlug(ctx context.Context, memorySlug string) (*model.Memory, error) {
	memorySlug = strings.TrimSpace(memorySlug)
	if memorySlug == "" {
		return nil, apperror.ValidationFailed("slug", "slug is required")
	}
	memory, err := s.repo.GetBySlug(ctx, memorySlug)
	if err != nil {
		return nil, fmt.Errorf("getting memory %q: %w", memorySlug, err)
	}
	return memory, nil
}

// GetByID retrieves one memory by its record ID.
func (s *MemoryService) GetByID(ctx context.Context, id string) (*model.Memory, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("memoryId", "memoryId is required")
	}
	memory, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting memory %q: %w", id, err)
	}
	return memory, nil
}

// Delete removes a memory by ID.
func (s *MemoryService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting memory %q: %w", id, err)
	}
	s.logger.Info("memory deleted", slog.String("id", id))
	return nil
}

// OnThisDay selects one memory whose anniversary is today (UTC).
//
// The primary pass matches the explicit event date's month and day across
// any year; only when no memory matches does a fallback pass repeat the
// comparison against creation timestamps. Multiple matches are decided
// uniformly at random. No match at all is a defined absence and comes back
// as apperror.ErrNotFound with a caller-presentable message.
func (s *MemoryService) OnThisDay(ctx context.Context) (*model.Memory, error) {
	memories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list memories for on-this-day", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing memories: %w", err)
	}

	today := s.now().UTC()
	month, day := today.Month(), today.Day()

	var matches []model.Memory
	for _, m := range memories {
		if m.MemoryDate == nil {
			continue
		}
		if d := m.MemoryDate.UTC(); d.Month() == month && d.Day() == day {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		for _, m := range memories {
			if d := m.CreatedAt.UTC(); d.Month() == month && d.Day() == day {
				matches = append(matches, m)
			}
		}
	}
	if len(matches) == 0 {
		return nil, apperror.NotFoundMessage("no memory found for this day in previous years")
	}

	chosen := matches[s.intn(len(matches))]
	return &chosen, nil
}

// VerifyPassword runs the password gate for one memory.
//
// A memory with no hash set is open and verifies trivially. A wrong
// password returns apperror.ErrUnauthorized with a deliberately generic
// message; only a failed record lookup is reported distinctly, as not
// found.
func (s *MemoryService) VerifyPassword(ctx context.Context, memoryID, password string) error {
	memory, err := s.GetByID(ctx, memoryID)
	if err != nil {
		return err
	}
	if !memory.IsProtected() {
		return nil
	}
	if err := s.passwords.Verify(memory.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return apperror.Unauthorized("incorrect password")
		}
		return fmt.Errorf("verifying password: %w", err)
	}
	return nil
}

func (s *MemoryService) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

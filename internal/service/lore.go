package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/repository"
)

const (
	MinLoreLength = 10
	MaxLoreLength = 1000

	// RandomLoreCount is the sidebar sample size; fewer come back when
	// fewer approved entries exist.
	RandomLoreCount = 2
)

// LoreService handles business logic for lore entries: public submission,
// the approved listing, and the random sidebar sample.
type LoreService struct {
	repo   repository.LoreRepository
	logger *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewLoreService(repo repository.LoreRepository, logger *slog.Logger) *LoreService {
	return &LoreService{
		repo:   repo,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Submit validates and persists a public lore submission. Length limits are
// counted in runes, not bytes. New entries always start unapproved and stay
// invisible to every listing until moderated.
func (s *LoreService) Submit(ctx context.Context, content string) (*model.Lore, error) {
	content = strings.TrimSpace(content)

	if n := utf8.RuneCountInString(content); n < MinLoreLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("lore must be at least %d characters", MinLoreLength))
	} else if n > MaxLoreLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("lore must be %d characters or less", MaxLoreLength))
	}

	lore := &model.Lore{Content: content}
	if err := s.repo.Create(ctx, lore); err != nil {
		s.logger.Error("failed to create lore", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating lore: %w", err)
	}

	s.logger.Info("lore submitted", slog.String("id", lore.ID))
	return lore, nil
}

// All returns every approved lore entry, newest first.
func (s *LoreService) All(ctx context.Context) ([]model.Lore, error) {
	lores, err := s.repo.ListApproved(ctx)
	if err != nil {
		s.logger.Error("failed to list lore", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing lore: %w", err)
	}
	return lores, nil
}

// Random returns min(RandomLoreCount, n) approved entries chosen uniformly
// without replacement. An empty result is valid, not an error.
func (s *LoreService) Random(ctx context.Context) ([]model.Lore, error) {
	lores, err := s.repo.ListApproved(ctx)
	if err != nil {
		s.logger.Error("failed to list lore for random pick", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing lore: %w", err)
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return sample(s.rng, lores, RandomLoreCount), nil
}

// Approve flips a lore entry to approved, making it visible in listings.
// This is the moderation action; it is not exposed on the public API.
func (s *LoreService) Approve(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "id is required")
	}
	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		return fmt.Errorf("approving lore %q: %w", id, err)
	}
	s.logger.Info("lore approved", slog.String("id", id))
	return nil
}

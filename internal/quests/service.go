package quests

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/castquest/castquest/internal/platform/httpx"
)

// Service wraps quest lifecycle rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// List returns quests, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]Quest, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Get fetches a single quest.
func (s *Service) Get(ctx context.Context, id int64) (Quest, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new quest in draft state.
func (s *Service) Create(ctx context.Context, quest Quest) (Quest, error) {
	quest.Title = strings.TrimSpace(quest.Title)
	if quest.Title == "" {
		return Quest{}, fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}
	if quest.ExpiresAt != nil && !quest.ExpiresAt.After(s.now()) {
		return Quest{}, fmt.Errorf("%w: expiresAt must be in the future", httpx.ErrValidation)
	}
	quest.Status = StatusDraft
	return s.repo.Create(ctx, quest)
}

// Activate moves a draft quest to active.
func (s *Service) Activate(ctx context.Context, id int64) (Quest, error) {
	return s.transition(ctx, id, StatusDraft, StatusActive)
}

// Complete moves an active quest to completed.
func (s *Service) Complete(ctx context.Context, id int64) (Quest, error) {
	return s.transition(ctx, id, StatusActive, StatusCompleted)
}

// ExpireDue marks overdue active quests as expired. The background scan job
// calls this on a schedule.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 && s.logger != nil {
		s.logger.Info("quests expired", slog.Int("count", len(ids)), slog.Any("ids", ids))
	}
	return len(ids), nil
}

func (s *Service) transition(ctx context.Context, id int64, from, to Status) (Quest, error) {
	quest, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		// Distinguish missing quest from wrong state for a clearer error.
		if current, getErr := s.repo.Get(ctx, id); getErr == nil {
			return Quest{}, fmt.Errorf("%w: quest is %s, expected %s", httpx.ErrValidation, current.Status, from)
		}
		return Quest{}, err
	}
	return quest, nil
}

package mints

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/quests"
)

// QuestSource resolves quests a mint refers to.
type QuestSource interface {
	Get(ctx context.Context, id int64) (quests.Quest, error)
}

// Service wraps minting rules.
type Service struct {
	repo        Repository
	quests      QuestSource
	logger      *slog.Logger
	settleGrace time.Duration
	now         func() time.Time
}

// NewService constructs a Service. settleGrace is how long a pending mint may
// wait for its transaction hash before the sweep job fails it.
func NewService(repo Repository, questSource QuestSource, logger *slog.Logger, settleGrace time.Duration) *Service {
	if settleGrace <= 0 {
		settleGrace = 5 * time.Minute
	}
	return &Service{repo: repo, quests: questSource, logger: logger, settleGrace: settleGrace, now: time.Now}
}

// Request records a mint for a quest recipient. The quest must be active or
// completed; one mint per (quest, recipient).
func (s *Service) Request(ctx context.Context, questID int64, recipient, tokenURI string) (Mint, error) {
	recipient = strings.TrimSpace(strings.ToLower(recipient))
	if recipient == "" {
		return Mint{}, fmt.Errorf("%w: recipient is required", httpx.ErrValidation)
	}
	quest, err := s.quests.Get(ctx, questID)
	if err != nil {
		return Mint{}, fmt.Errorf("%w: unknown quest", httpx.ErrValidation)
	}
	if quest.Status != quests.StatusActive && quest.Status != quests.StatusCompleted {
		return Mint{}, fmt.Errorf("%w: quest is %s", httpx.ErrValidation, quest.Status)
	}
	return s.repo.Create(ctx, Mint{QuestID: questID, Recipient: recipient, TokenURI: tokenURI})
}

// Get fetches a single mint.
func (s *Service) Get(ctx context.Context, id int64) (Mint, error) {
	return s.repo.Get(ctx, id)
}

// List returns mints, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]Mint, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Settle finalises a pending mint with its onchain transaction hash.
func (s *Service) Settle(ctx context.Context, id int64, txHash string) (Mint, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return Mint{}, fmt.Errorf("%w: txHash is required", httpx.ErrValidation)
	}
	return s.repo.Settle(ctx, id, txHash, s.now())
}

// FailOverdue fails pending mints that never received an onchain settlement
// within the grace period. The sweep job calls this on a schedule.
func (s *Service) FailOverdue(ctx context.Context) (int64, error) {
	count, err := s.repo.FailPendingBefore(ctx, s.now().Add(-s.settleGrace))
	if err != nil {
		return 0, err
	}
	if count > 0 && s.logger != nil {
		s.logger.Info("overdue mints failed", slog.Int64("count", count))
	}
	return count, nil
}

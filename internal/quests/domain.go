package quests

import "time"

// Status is the quest lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Quest is a time-boxed challenge users complete to earn a mint.
type Quest struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reward      string     `json:"reward"`
	Status      Status     `json:"status"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CanTransition reports whether the lifecycle permits moving to next.
// draft → active → completed; active quests also expire via the scan job.
func (q Quest) CanTransition(next Status) bool {
	switch q.Status {
	case StatusDraft:
		return next == StatusActive
	case StatusActive:
		return next == StatusCompleted || next == StatusExpired
	default:
		return false
	}
}

package mints

import (
	"fmt"
	"time"

	"github.com/castquest/castquest/internal/platform/httpx"
)

// Status is the mint settlement state.
type Status string

const (
	StatusPending Status = "pending"
	StatusSettled Status = "settled"
	StatusFailed  Status = "failed"
)

// ErrDuplicateMint signals that the quest already has a mint for the
// recipient. The (quest, recipient) pair is unique.
var ErrDuplicateMint = fmt.Errorf("%w: mint already exists for quest and recipient", httpx.ErrDuplicate)

// Mint records a single token mint earned by completing a quest.
type Mint struct {
	ID        int64      `json:"id"`
	QuestID   int64      `json:"questId"`
	Recipient string     `json:"recipient"`
	TokenURI  string     `json:"tokenUri"`
	Status    Status     `json:"status"`
	TxHash    *string    `json:"txHash,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

package mints

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/quests"
)

type memoryRepo struct {
	mints  map[int64]Mint
	unique map[string]struct{}
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{mints: make(map[int64]Mint), unique: make(map[string]struct{})}
}

func pairKey(questID int64, recipient string) string {
	return fmt.Sprintf("%d:%s", questID, recipient)
}

func (r *memoryRepo) Create(ctx context.Context, mint Mint) (Mint, error) {
	key := pairKey(mint.QuestID, mint.Recipient)
	if _, ok := r.unique[key]; ok {
		return Mint{}, ErrDuplicateMint
	}
	r.unique[key] = struct{}{}
	r.nextID++
	mint.ID = r.nextID
	mint.Status = StatusPending
	mint.CreatedAt = time.Now()
	r.mints[mint.ID] = mint
	return mint, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Mint, error) {
	if m, ok := r.mints[id]; ok {
		return m, nil
	}
	return Mint{}, httpx.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, status Status, limit, offset int) ([]Mint, error) {
	mints := []Mint{}
	for _, m := range r.mints {
		if status == "" || m.Status == status {
			mints = append(mints, m)
		}
	}
	return mints, nil
}

func (r *memoryRepo) Settle(ctx context.Context, id int64, txHash string, settledAt time.Time) (Mint, error) {
	m, ok := r.mints[id]
	if !ok {
		return Mint{}, httpx.ErrNotFound
	}
	if m.Status != StatusPending {
		return Mint{}, httpx.ErrValidation
	}
	m.Status = StatusSettled
	m.TxHash = &txHash
	m.SettledAt = &settledAt
	r.mints[id] = m
	return m, nil
}

func (r *memoryRepo) FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for id, m := range r.mints {
		if m.Status == StatusPending && !m.CreatedAt.After(cutoff) {
			m.Status = StatusFailed
			r.mints[id] = m
			count++
		}
	}
	return count, nil
}

type questStub struct {
	quests map[int64]quests.Quest
}

func (s *questStub) Get(ctx context.Context, id int64) (quests.Quest, error) {
	if q, ok := s.quests[id]; ok {
		return q, nil
	}
	return quests.Quest{}, httpx.ErrNotFound
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	source := &questStub{quests: map[int64]quests.Quest{
		1: {ID: 1, Title: "Active quest", Status: quests.StatusActive},
		2: {ID: 2, Title: "Draft quest", Status: quests.StatusDraft},
	}}
	return NewService(repo, source, nil, time.Minute), repo
}

func TestRequestMint(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mint, err := svc.Request(ctx, 1, "0xABCDEF", "ipfs://token/1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, mint.Status)
	require.Equal(t, "0xabcdef", mint.Recipient)
}

func TestRequestRejectsDuplicatePair(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Request(ctx, 1, "0xabc", "")
	require.NoError(t, err)

	// Same pair again, regardless of recipient casing.
	_, err = svc.Request(ctx, 1, "0xABC", "")
	require.ErrorIs(t, err, ErrDuplicateMint)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestRequestValidatesQuestState(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Request(ctx, 2, "0xabc", "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Request(ctx, 99, "0xabc", "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Request(ctx, 1, "  ", "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSettle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mint, err := svc.Request(ctx, 1, "0xabc", "")
	require.NoError(t, err)

	settled, err := svc.Settle(ctx, mint.ID, "0xhash")
	require.NoError(t, err)
	require.Equal(t, StatusSettled, settled.Status)
	require.NotNil(t, settled.TxHash)

	// A settled mint cannot settle twice.
	_, err = svc.Settle(ctx, mint.ID, "0xother")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Settle(ctx, mint.ID, "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestFailOverdueSweepsOldPending(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	mint, err := svc.Request(ctx, 1, "0xabc", "")
	require.NoError(t, err)

	count, err := svc.FailOverdue(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	count, err = svc.FailOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	// Failed, never settled: no settlement timestamp or transaction hash.
	swept := repo.mints[mint.ID]
	require.Equal(t, StatusFailed, swept.Status)
	require.Nil(t, swept.TxHash)
	require.Nil(t, swept.SettledAt)
}

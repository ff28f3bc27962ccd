package quests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/platform/httpx"
)

type memoryRepo struct {
	quests map[int64]Quest
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{quests: make(map[int64]Quest)}
}

func (r *memoryRepo) List(ctx context.Context, status Status, limit, offset int) ([]Quest, error) {
	quests := []Quest{}
	for _, q := range r.quests {
		if status == "" || q.Status == status {
			quests = append(quests, q)
		}
	}
	return quests, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Quest, error) {
	if q, ok := r.quests[id]; ok {
		return q, nil
	}
	return Quest{}, httpx.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, quest Quest) (Quest, error) {
	r.nextID++
	quest.ID = r.nextID
	quest.CreatedAt = time.Now()
	quest.UpdatedAt = quest.CreatedAt
	r.quests[quest.ID] = quest
	return quest, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) (Quest, error) {
	q, ok := r.quests[id]
	if !ok || q.Status != from {
		return Quest{}, httpx.ErrNotFound
	}
	q.Status = to
	q.UpdatedAt = time.Now()
	r.quests[id] = q
	return q, nil
}

func (r *memoryRepo) ExpireDue(ctx context.Context, now time.Time) ([]int64, error) {
	ids := []int64{}
	for id, q := range r.quests {
		if q.Status == StatusActive && q.ExpiresAt != nil && !q.ExpiresAt.After(now) {
			q.Status = StatusExpired
			r.quests[id] = q
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func TestQuestLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	quest, err := svc.Create(ctx, Quest{Title: "Cast your first frame"})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, quest.Status)

	quest, err = svc.Activate(ctx, quest.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, quest.Status)

	// Completing twice fails: the quest already left the active state.
	quest, err = svc.Complete(ctx, quest.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, quest.Status)

	_, err = svc.Complete(ctx, quest.ID)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestActivateUnknownQuest(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Activate(context.Background(), 42)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Quest{Title: "  "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	past := time.Now().Add(-time.Hour)
	_, err = svc.Create(ctx, Quest{Title: "Late", ExpiresAt: &past})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestExpireDue(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	soon := time.Now().Add(time.Minute)
	quest, err := svc.Create(ctx, Quest{Title: "Ends soon", ExpiresAt: &soon})
	require.NoError(t, err)
	_, err = svc.Activate(ctx, quest.ID)
	require.NoError(t, err)

	// Nothing due yet.
	count, err := svc.ExpireDue(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	count, err = svc.ExpireDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	expired, err := svc.Get(ctx, quest.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, expired.Status)
}

package quests

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castquest/castquest/internal/platform/httpx"
)

// Repository defines persistence operations for quests.
type Repository interface {
	List(ctx context.Context, status Status, limit, offset int) ([]Quest, error)
	Get(ctx context.Context, id int64) (Quest, error)
	Create(ctx context.Context, quest Quest) (Quest, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (Quest, error)
	ExpireDue(ctx context.Context, now time.Time) ([]int64, error)
}

// PGRepository persists quests in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, status Status, limit, offset int) ([]Quest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, title, description, reward, status, expires_at, created_at, updated_at
FROM quests WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	quests := []Quest{}
	for rows.Next() {
		var q Quest
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.Reward, &q.Status, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, id int64) (Quest, error) {
	var q Quest
	err := r.pool.QueryRow(ctx, `SELECT id, title, description, reward, status, expires_at, created_at, updated_at
FROM quests WHERE id=$1`, id).Scan(&q.ID, &q.Title, &q.Description, &q.Reward, &q.Status, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quest{}, httpx.ErrNotFound
		}
		return Quest{}, err
	}
	return q, nil
}

func (r *PGRepository) Create(ctx context.Context, quest Quest) (Quest, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO quests (title, description, reward, status, expires_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		quest.Title, quest.Description, quest.Reward, string(quest.Status), quest.ExpiresAt).
		Scan(&quest.ID, &quest.CreatedAt, &quest.UpdatedAt)
	if err != nil {
		return Quest{}, err
	}
	return quest, nil
}

// UpdateStatus performs a compare-and-set transition so concurrent
// transitions cannot skip lifecycle states.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to Status) (Quest, error) {
	var q Quest
	err := r.pool.QueryRow(ctx, `UPDATE quests SET status=$3, updated_at=NOW()
WHERE id=$1 AND status=$2
RETURNING id, title, description, reward, status, expires_at, created_at, updated_at`,
		id, string(from), string(to)).
		Scan(&q.ID, &q.Title, &q.Description, &q.Reward, &q.Status, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quest{}, httpx.ErrNotFound
		}
		return Quest{}, err
	}
	return q, nil
}

// ExpireDue marks every active quest whose deadline passed as expired and
// returns the affected ids.
func (r *PGRepository) ExpireDue(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `UPDATE quests SET status='expired', updated_at=NOW()
WHERE status='active' AND expires_at IS NOT NULL AND expires_at <= $1
RETURNING id`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Repository = (*PGRepository)(nil)

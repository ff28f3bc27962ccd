package mints

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castquest/castquest/internal/platform/db"
	"github.com/castquest/castquest/internal/platform/httpx"
)

// Repository defines persistence operations for mints.
type Repository interface {
	Create(ctx context.Context, mint Mint) (Mint, error)
	Get(ctx context.Context, id int64) (Mint, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Mint, error)
	Settle(ctx context.Context, id int64, txHash string, settledAt time.Time) (Mint, error)
	FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository persists mints in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Create(ctx context.Context, mint Mint) (Mint, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO mints (quest_id, recipient, token_uri, status, created_at)
VALUES ($1,$2,$3,'pending',NOW()) RETURNING id, status, created_at`,
		mint.QuestID, mint.Recipient, mint.TokenURI).
		Scan(&mint.ID, &mint.Status, &mint.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Mint{}, ErrDuplicateMint
		}
		return Mint{}, err
	}
	return mint, nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (Mint, error) {
	var m Mint
	err := r.pool.QueryRow(ctx, `SELECT id, quest_id, recipient, token_uri, status, tx_hash, created_at, settled_at
FROM mints WHERE id=$1`, id).
		Scan(&m.ID, &m.QuestID, &m.Recipient, &m.TokenURI, &m.Status, &m.TxHash, &m.CreatedAt, &m.SettledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mint{}, httpx.ErrNotFound
		}
		return Mint{}, err
	}
	return m, nil
}

func (r *PGRepository) List(ctx context.Context, status Status, limit, offset int) ([]Mint, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, quest_id, recipient, token_uri, status, tx_hash, created_at, settled_at
FROM mints WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	mints := []Mint{}
	for rows.Next() {
		var m Mint
		if err := rows.Scan(&m.ID, &m.QuestID, &m.Recipient, &m.TokenURI, &m.Status, &m.TxHash, &m.CreatedAt, &m.SettledAt); err != nil {
			return nil, err
		}
		mints = append(mints, m)
	}
	return mints, rows.Err()
}

// Settle moves a pending mint to settled inside a transaction so the row is
// re-checked under repeatable read before the update lands.
func (r *PGRepository) Settle(ctx context.Context, id int64, txHash string, settledAt time.Time) (Mint, error) {
	var m Mint
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status Status
		if err := tx.QueryRow(ctx, `SELECT status FROM mints WHERE id=$1 FOR UPDATE`, id).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.ErrNotFound
			}
			return err
		}
		if status != StatusPending {
			return httpx.ErrValidation
		}
		return tx.QueryRow(ctx, `UPDATE mints SET status='settled', tx_hash=$2, settled_at=$3 WHERE id=$1
RETURNING id, quest_id, recipient, token_uri, status, tx_hash, created_at, settled_at`,
			id, txHash, settledAt.UTC()).
			Scan(&m.ID, &m.QuestID, &m.Recipient, &m.TokenURI, &m.Status, &m.TxHash, &m.CreatedAt, &m.SettledAt)
	})
	if err != nil {
		return Mint{}, err
	}
	return m, nil
}

// FailPendingBefore fails every pending mint created before cutoff. A settled
// mint always carries its transaction hash, so mints that never received one
// move to failed rather than settled.
func (r *PGRepository) FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE mints SET status='failed'
WHERE status='pending' AND created_at <= $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)

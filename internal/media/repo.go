package media

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castquest/castquest/internal/platform/httpx"
)

// Repository defines persistence operations for media assets.
type Repository interface {
	List(ctx context.Context, kind Kind, limit, offset int) ([]Asset, error)
	Count(ctx context.Context, kind Kind) (int, error)
	Get(ctx context.Context, id int64) (Asset, error)
	Create(ctx context.Context, asset Asset) (Asset, error)
	Update(ctx context.Context, asset Asset) (Asset, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository persists media assets in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, kind Kind, limit, offset int) ([]Asset, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, kind, title, url, size_bytes, created_at, updated_at
FROM media_assets WHERE ($1 = '' OR kind = $1)
ORDER BY title ASC, id ASC LIMIT $2 OFFSET $3`, string(kind), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	assets := []Asset{}
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Kind, &a.Title, &a.URL, &a.SizeBytes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *PGRepository) Count(ctx context.Context, kind Kind) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media_assets WHERE ($1 = '' OR kind = $1)`, string(kind)).Scan(&total)
	return total, err
}

func (r *PGRepository) Get(ctx context.Context, id int64) (Asset, error) {
	var a Asset
	err := r.pool.QueryRow(ctx, `SELECT id, kind, title, url, size_bytes, created_at, updated_at
FROM media_assets WHERE id=$1`, id).Scan(&a.ID, &a.Kind, &a.Title, &a.URL, &a.SizeBytes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, httpx.ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

func (r *PGRepository) Create(ctx context.Context, asset Asset) (Asset, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO media_assets (kind, title, url, size_bytes, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		string(asset.Kind), asset.Title, asset.URL, asset.SizeBytes).
		Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return Asset{}, err
	}
	return asset, nil
}

func (r *PGRepository) Update(ctx context.Context, asset Asset) (Asset, error) {
	err := r.pool.QueryRow(ctx, `UPDATE media_assets SET kind=$2, title=$3, url=$4, size_bytes=$5, updated_at=NOW()
WHERE id=$1 RETURNING created_at, updated_at`,
		asset.ID, string(asset.Kind), asset.Title, asset.URL, asset.SizeBytes).
		Scan(&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, httpx.ErrNotFound
		}
		return Asset{}, err
	}
	return asset, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media_assets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)

package frames

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castquest/castquest/internal/platform/httpx"
)

// Repository defines persistence operations for frames and templates.
type Repository interface {
	ListFrames(ctx context.Context, limit, offset int) ([]Frame, error)
	GetFrameBySlug(ctx context.Context, slug string) (Frame, error)
	CreateFrame(ctx context.Context, frame Frame) (Frame, error)
	UpdateFrame(ctx context.Context, frame Frame) (Frame, error)
	DeleteFrame(ctx context.Context, slug string) error
	GetTemplate(ctx context.Context, id int64) (FrameTemplate, error)
	ListTemplates(ctx context.Context) ([]FrameTemplate, error)
	CreateTemplate(ctx context.Context, tmpl FrameTemplate) (FrameTemplate, error)
}

// PGRepository persists frames in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListFrames(ctx context.Context, limit, offset int) ([]Frame, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, slug, title, image_url, post_url, buttons, template_id, overrides, created_at, updated_at
FROM frames ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	frames := []Frame{}
	for rows.Next() {
		frame, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, rows.Err()
}

func (r *PGRepository) GetFrameBySlug(ctx context.Context, slug string) (Frame, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, slug, title, image_url, post_url, buttons, template_id, overrides, created_at, updated_at
FROM frames WHERE slug=$1`, slug)
	frame, err := scanFrame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Frame{}, httpx.ErrNotFound
		}
		return Frame{}, err
	}
	return frame, nil
}

func (r *PGRepository) CreateFrame(ctx context.Context, frame Frame) (Frame, error) {
	overrides, err := json.Marshal(frame.Overrides)
	if err != nil {
		return Frame{}, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO frames (slug, title, image_url, post_url, buttons, template_id, overrides, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		frame.Slug, frame.Title, frame.ImageURL, frame.PostURL, frame.Buttons, frame.TemplateID, overrides).
		Scan(&frame.ID, &frame.CreatedAt, &frame.UpdatedAt)
	if err != nil {
		return Frame{}, mapDuplicate(err)
	}
	return frame, nil
}

func (r *PGRepository) UpdateFrame(ctx context.Context, frame Frame) (Frame, error) {
	overrides, err := json.Marshal(frame.Overrides)
	if err != nil {
		return Frame{}, err
	}
	err = r.pool.QueryRow(ctx, `UPDATE frames SET title=$2, image_url=$3, post_url=$4, buttons=$5, template_id=$6, overrides=$7, updated_at=NOW()
WHERE slug=$1 RETURNING id, created_at, updated_at`,
		frame.Slug, frame.Title, frame.ImageURL, frame.PostURL, frame.Buttons, frame.TemplateID, overrides).
		Scan(&frame.ID, &frame.CreatedAt, &frame.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Frame{}, httpx.ErrNotFound
		}
		return Frame{}, err
	}
	return frame, nil
}

func (r *PGRepository) DeleteFrame(ctx context.Context, slug string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM frames WHERE slug=$1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) GetTemplate(ctx context.Context, id int64) (FrameTemplate, error) {
	var tmpl FrameTemplate
	var defaults []byte
	err := r.pool.QueryRow(ctx, `SELECT id, name, defaults, created_at, updated_at FROM frame_templates WHERE id=$1`, id).
		Scan(&tmpl.ID, &tmpl.Name, &defaults, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FrameTemplate{}, httpx.ErrNotFound
		}
		return FrameTemplate{}, err
	}
	if err := json.Unmarshal(defaults, &tmpl.Defaults); err != nil {
		return FrameTemplate{}, err
	}
	return tmpl, nil
}

func (r *PGRepository) ListTemplates(ctx context.Context) ([]FrameTemplate, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, defaults, created_at, updated_at FROM frame_templates ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	templates := []FrameTemplate{}
	for rows.Next() {
		var tmpl FrameTemplate
		var defaults []byte
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &defaults, &tmpl.CreatedAt, &tmpl.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(defaults, &tmpl.Defaults); err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

func (r *PGRepository) CreateTemplate(ctx context.Context, tmpl FrameTemplate) (FrameTemplate, error) {
	defaults, err := json.Marshal(tmpl.Defaults)
	if err != nil {
		return FrameTemplate{}, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO frame_templates (name, defaults, created_at, updated_at)
VALUES ($1,$2,NOW(),NOW()) RETURNING id, created_at, updated_at`, tmpl.Name, defaults).
		Scan(&tmpl.ID, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		return FrameTemplate{}, mapDuplicate(err)
	}
	return tmpl, nil
}

func scanFrame(row pgx.Row) (Frame, error) {
	var frame Frame
	var overrides []byte
	if err := row.Scan(&frame.ID, &frame.Slug, &frame.Title, &frame.ImageURL, &frame.PostURL, &frame.Buttons, &frame.TemplateID, &overrides, &frame.CreatedAt, &frame.UpdatedAt); err != nil {
		return Frame{}, err
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &frame.Overrides); err != nil {
			return Frame{}, err
		}
	}
	return frame, nil
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}

var _ Repository = (*PGRepository)(nil)

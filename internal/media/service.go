package media

import (
	"context"
	"fmt"
	"net/url"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/shared"
)

// Service wraps media asset rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns assets, optionally filtered by kind.
func (s *Service) List(ctx context.Context, kind Kind, limit, offset int) ([]Asset, error) {
	return s.repo.List(ctx, kind, limit, offset)
}

// ListPage returns one page of assets with pagination metadata.
func (s *Service) ListPage(ctx context.Context, kind Kind, page, perPage int) ([]Asset, shared.Pagination, error) {
	total, err := s.repo.Count(ctx, kind)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pg := shared.NewPagination(page, perPage, total)
	assets, err := s.repo.List(ctx, kind, pg.PerPage, (pg.Page-1)*pg.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return assets, pg, nil
}

// Get fetches a single asset.
func (s *Service) Get(ctx context.Context, id int64) (Asset, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new asset.
func (s *Service) Create(ctx context.Context, asset Asset) (Asset, error) {
	normalized, err := s.normalize(asset)
	if err != nil {
		return Asset{}, err
	}
	return s.repo.Create(ctx, normalized)
}

// Update replaces the mutable fields of an asset.
func (s *Service) Update(ctx context.Context, asset Asset) (Asset, error) {
	normalized, err := s.normalize(asset)
	if err != nil {
		return Asset{}, err
	}
	return s.repo.Update(ctx, normalized)
}

// Delete removes an asset record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) normalize(asset Asset) (Asset, error) {
	if !ValidKind(asset.Kind) {
		return Asset{}, fmt.Errorf("%w: kind must be image, video or audio", httpx.ErrValidation)
	}
	asset.Title = NormalizeTitle(asset.Title)
	if asset.Title == "" {
		return Asset{}, fmt.Errorf("%w: title is required", httpx.ErrValidation)
	}
	parsed, err := url.Parse(asset.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Asset{}, fmt.Errorf("%w: url must be absolute", httpx.ErrValidation)
	}
	if asset.SizeBytes < 0 {
		return Asset{}, fmt.Errorf("%w: sizeBytes cannot be negative", httpx.ErrValidation)
	}
	return asset, nil
}

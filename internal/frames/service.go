package frames

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/castquest/castquest/internal/platform/httpx"
)

// Service wraps frame business rules around the repository and render cache.
type Service struct {
	repo  Repository
	cache *RenderCache
	group singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, cache *RenderCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns frames ordered newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Frame, error) {
	return s.repo.ListFrames(ctx, limit, offset)
}

// Get fetches a single frame by slug.
func (s *Service) Get(ctx context.Context, slug string) (Frame, error) {
	return s.repo.GetFrameBySlug(ctx, slug)
}

// Create validates and stores a new frame.
func (s *Service) Create(ctx context.Context, frame Frame) (Frame, error) {
	frame.Slug = normalizeSlug(frame.Slug)
	if frame.Slug == "" {
		return Frame{}, fmt.Errorf("%w: slug is required", httpx.ErrValidation)
	}
	if frame.TemplateID != nil {
		if _, err := s.repo.GetTemplate(ctx, *frame.TemplateID); err != nil {
			return Frame{}, fmt.Errorf("%w: unknown template", httpx.ErrValidation)
		}
	}
	return s.repo.CreateFrame(ctx, frame)
}

// Update replaces the mutable fields of an existing frame and invalidates
// cached renders.
func (s *Service) Update(ctx context.Context, frame Frame) (Frame, error) {
	frame.Slug = normalizeSlug(frame.Slug)
	if frame.TemplateID != nil {
		if _, err := s.repo.GetTemplate(ctx, *frame.TemplateID); err != nil {
			return Frame{}, fmt.Errorf("%w: unknown template", httpx.ErrValidation)
		}
	}
	updated, err := s.repo.UpdateFrame(ctx, frame)
	if err != nil {
		return Frame{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return Frame{}, err
	}
	return updated, nil
}

// Delete removes a frame and invalidates cached renders.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteFrame(ctx, normalizeSlug(slug)); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// Render merges the frame with its template defaults. Results are cached in
// Redis; concurrent renders of the same slug collapse into one build.
func (s *Service) Render(ctx context.Context, slug string) (RenderedFrame, error) {
	slug = normalizeSlug(slug)
	key, err := s.cache.Key(ctx, slug)
	if err != nil {
		return RenderedFrame{}, err
	}
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.cache.Fetch(ctx, key, func(ctx context.Context) (RenderedFrame, error) {
			return s.build(ctx, slug)
		})
	})
	if err != nil {
		return RenderedFrame{}, err
	}
	return result.(RenderedFrame), nil
}

// Templates lists every frame template.
func (s *Service) Templates(ctx context.Context) ([]FrameTemplate, error) {
	return s.repo.ListTemplates(ctx)
}

// CreateTemplate stores a named template.
func (s *Service) CreateTemplate(ctx context.Context, tmpl FrameTemplate) (FrameTemplate, error) {
	if strings.TrimSpace(tmpl.Name) == "" {
		return FrameTemplate{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if tmpl.Defaults == nil {
		tmpl.Defaults = map[string]string{}
	}
	return s.repo.CreateTemplate(ctx, tmpl)
}

func (s *Service) build(ctx context.Context, slug string) (RenderedFrame, error) {
	frame, err := s.repo.GetFrameBySlug(ctx, slug)
	if err != nil {
		return RenderedFrame{}, err
	}
	var tmpl *FrameTemplate
	if frame.TemplateID != nil {
		found, err := s.repo.GetTemplate(ctx, *frame.TemplateID)
		if err == nil {
			tmpl = &found
		}
	}
	return ApplyTemplate(frame, tmpl), nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

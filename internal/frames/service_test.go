package frames

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/platform/httpx"
)

type memoryRepo struct {
	frames    map[string]Frame
	templates map[int64]FrameTemplate
	nextID    int64
	getCalls  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		frames:    make(map[string]Frame),
		templates: make(map[int64]FrameTemplate),
	}
}

func (r *memoryRepo) ListFrames(ctx context.Context, limit, offset int) ([]Frame, error) {
	frames := []Frame{}
	for _, frame := range r.frames {
		frames = append(frames, frame)
	}
	return frames, nil
}

func (r *memoryRepo) GetFrameBySlug(ctx context.Context, slug string) (Frame, error) {
	r.getCalls++
	if frame, ok := r.frames[slug]; ok {
		return frame, nil
	}
	return Frame{}, httpx.ErrNotFound
}

func (r *memoryRepo) CreateFrame(ctx context.Context, frame Frame) (Frame, error) {
	if _, ok := r.frames[frame.Slug]; ok {
		return Frame{}, httpx.ErrDuplicate
	}
	r.nextID++
	frame.ID = r.nextID
	frame.CreatedAt = time.Now()
	frame.UpdatedAt = frame.CreatedAt
	r.frames[frame.Slug] = frame
	return frame, nil
}

func (r *memoryRepo) UpdateFrame(ctx context.Context, frame Frame) (Frame, error) {
	existing, ok := r.frames[frame.Slug]
	if !ok {
		return Frame{}, httpx.ErrNotFound
	}
	frame.ID = existing.ID
	frame.CreatedAt = existing.CreatedAt
	frame.UpdatedAt = time.Now()
	r.frames[frame.Slug] = frame
	return frame, nil
}

func (r *memoryRepo) DeleteFrame(ctx context.Context, slug string) error {
	if _, ok := r.frames[slug]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.frames, slug)
	return nil
}

func (r *memoryRepo) GetTemplate(ctx context.Context, id int64) (FrameTemplate, error) {
	if tmpl, ok := r.templates[id]; ok {
		return tmpl, nil
	}
	return FrameTemplate{}, httpx.ErrNotFound
}

func (r *memoryRepo) ListTemplates(ctx context.Context) ([]FrameTemplate, error) {
	templates := []FrameTemplate{}
	for _, tmpl := range r.templates {
		templates = append(templates, tmpl)
	}
	return templates, nil
}

func (r *memoryRepo) CreateTemplate(ctx context.Context, tmpl FrameTemplate) (FrameTemplate, error) {
	r.nextID++
	tmpl.ID = r.nextID
	r.templates[tmpl.ID] = tmpl
	return tmpl, nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryRepo()
	return NewService(repo, NewRenderCache(client, time.Minute)), repo
}

func TestApplyTemplateMergesOverrides(t *testing.T) {
	tmpl := &FrameTemplate{
		Defaults: map[string]string{"theme": "dark", "cta": "Mint now", "imageUrl": "https://img/default.png"},
	}
	frame := Frame{
		Slug:      "launch",
		Title:     "Launch",
		Overrides: map[string]string{"cta": "Join quest"},
	}

	rendered := ApplyTemplate(frame, tmpl)
	require.Equal(t, "dark", rendered.Properties["theme"])
	require.Equal(t, "Join quest", rendered.Properties["cta"])
	require.Equal(t, "https://img/default.png", rendered.ImageURL)
	require.Equal(t, "Launch", rendered.Title)

	// Without a template only the overrides survive.
	rendered = ApplyTemplate(frame, nil)
	require.Equal(t, map[string]string{"cta": "Join quest"}, rendered.Properties)
}

func TestRenderUsesCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Frame{Slug: "launch", Title: "Launch"})
	require.NoError(t, err)
	repo.getCalls = 0

	first, err := svc.Render(ctx, "launch")
	require.NoError(t, err)
	require.Equal(t, "launch", first.Slug)
	require.Equal(t, 1, repo.getCalls)

	_, err = svc.Render(ctx, "launch")
	require.NoError(t, err)
	require.Equal(t, 1, repo.getCalls)
}

func TestUpdateBumpsRenderCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Frame{Slug: "launch", Title: "Launch"})
	require.NoError(t, err)

	first, err := svc.Render(ctx, "launch")
	require.NoError(t, err)
	require.Equal(t, "Launch", first.Title)

	_, err = svc.Update(ctx, Frame{Slug: "launch", Title: "Relaunch"})
	require.NoError(t, err)

	second, err := svc.Render(ctx, "launch")
	require.NoError(t, err)
	require.Equal(t, "Relaunch", second.Title)
}

func TestCreateValidatesSlugAndTemplate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Frame{Slug: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	missing := int64(99)
	_, err = svc.Create(ctx, Frame{Slug: "launch", TemplateID: &missing})
	require.ErrorIs(t, err, httpx.ErrValidation)

	tmpl, err := svc.CreateTemplate(ctx, FrameTemplate{Name: "Default"})
	require.NoError(t, err)
	created, err := svc.Create(ctx, Frame{Slug: "Launch", TemplateID: &tmpl.ID})
	require.NoError(t, err)
	require.Equal(t, "launch", created.Slug)
	require.Contains(t, repo.frames, "launch")
}

func TestDeleteMissingFrame(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(context.Background(), "ghost")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

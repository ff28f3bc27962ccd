package media

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/platform/httpx"
)

type memoryRepo struct {
	assets map[int64]Asset
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{assets: make(map[int64]Asset)}
}

func (r *memoryRepo) List(ctx context.Context, kind Kind, limit, offset int) ([]Asset, error) {
	assets := []Asset{}
	for _, a := range r.assets {
		if kind == "" || a.Kind == kind {
			assets = append(assets, a)
		}
	}
	return assets, nil
}

func (r *memoryRepo) Count(ctx context.Context, kind Kind) (int, error) {
	n := 0
	for _, a := range r.assets {
		if kind == "" || a.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Asset, error) {
	if a, ok := r.assets[id]; ok {
		return a, nil
	}
	return Asset{}, httpx.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, asset Asset) (Asset, error) {
	r.nextID++
	asset.ID = r.nextID
	asset.CreatedAt = time.Now()
	asset.UpdatedAt = asset.CreatedAt
	r.assets[asset.ID] = asset
	return asset, nil
}

func (r *memoryRepo) Update(ctx context.Context, asset Asset) (Asset, error) {
	existing, ok := r.assets[asset.ID]
	if !ok {
		return Asset{}, httpx.ErrNotFound
	}
	asset.CreatedAt = existing.CreatedAt
	asset.UpdatedAt = time.Now()
	r.assets[asset.ID] = asset
	return asset, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.assets[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.assets, id)
	return nil
}

func TestNormalizeTitle(t *testing.T) {
	require.Equal(t, "Quest Launch Banner", NormalizeTitle("  quest   launch banner "))
	require.Equal(t, "Minted", NormalizeTitle("MINTED"))
	require.Equal(t, "", NormalizeTitle("   "))
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	asset, err := svc.Create(ctx, Asset{
		Kind:      KindImage,
		Title:     "launch   banner",
		URL:       "https://cdn.castquest.xyz/banner.png",
		SizeBytes: 1024,
	})
	require.NoError(t, err)
	require.Equal(t, "Launch Banner", asset.Title)

	_, err = svc.Create(ctx, Asset{Kind: "gif", Title: "x", URL: "https://cdn.castquest.xyz/x.gif"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Asset{Kind: KindImage, Title: "x", URL: "not-a-url"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Asset{Kind: KindImage, Title: "   ", URL: "https://cdn.castquest.xyz/x.png"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestListPageMetadata(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, Asset{Kind: KindImage, Title: "banner", URL: "https://cdn.castquest.xyz/b.png"})
		require.NoError(t, err)
	}

	_, pg, err := svc.ListPage(ctx, KindImage, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 1, pg.Page)
	require.Equal(t, 5, pg.Total)
	require.Equal(t, 3, pg.TotalPages)

	_, pg, err = svc.ListPage(ctx, KindVideo, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 0, pg.Total)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	asset, err := svc.Create(ctx, Asset{Kind: KindVideo, Title: "intro", URL: "https://cdn.castquest.xyz/intro.mp4"})
	require.NoError(t, err)

	asset.Title = "intro reel"
	updated, err := svc.Update(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, "Intro Reel", updated.Title)

	require.NoError(t, svc.Delete(ctx, asset.ID))
	require.ErrorIs(t, svc.Delete(ctx, asset.ID), httpx.ErrNotFound)
}

package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/config"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/store"
)

func setupStore(t *testing.T) (*store.Store, *metadata.Registry) {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "content"})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Bootstrap(ctx, store.AdminSeed{}, zap.NewNop()))
	reg := metadata.NewDefaultRegistry()
	require.NoError(t, store.NewMigrator(s).MigrateAll(ctx, reg.All()))
	return s, reg
}

func TestRepository_CreateAndFind(t *testing.T) {
	s, reg := setupStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	repo := NewRepository(s, reg.Get(metadata.Course)).WithClock(func() time.Time { return fixed })

	rec, err := repo.Create(ctx, map[string]any{
		"title":       "Growth Marketing",
		"slug":        "growth-marketing",
		"outcomes":    []any{"Plan campaigns", "Measure"},
		"featured":    true,
		"publishedAt": fixed,
		"id":          999, // ignored
	})
	require.NoError(t, err)

	assert.NotEqual(t, int64(999), rec.ID())
	assert.Len(t, rec.DocumentID(), 36)
	assert.Equal(t, "2026-01-05T10:00:00.000Z", rec["createdAt"])
	assert.Equal(t, "2026-01-05T10:00:00.000Z", rec["publishedAt"])
	assert.Equal(t, true, rec["featured"])
	assert.Equal(t, false, rec["is_slideshow"])
	assert.Equal(t, []any{"Plan campaigns", "Measure"}, rec["outcomes"])

	found, err := repo.FindOne(ctx, Where{Eq("slug", "growth-marketing")})
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), found.ID())

	_, err = repo.FindOne(ctx, Where{Eq("slug", "missing")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepository_UniqueViolation(t *testing.T) {
	s, reg := setupStore(t)
	ctx := context.Background()
	repo := NewRepository(s, reg.Get(metadata.Topic))

	_, err := repo.Create(ctx, map[string]any{"name": "SEO", "slug": "seo"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, map[string]any{"name": "SEO again", "slug": "seo"})
	assert.ErrorIs(t, err, store.ErrUniqueViolation)
}

func TestRepository_CreateIfAbsent(t *testing.T) {
	s, reg := setupStore(t)
	ctx := context.Background()
	repo := NewRepository(s, reg.Get(metadata.HomeHero))

	rec, created, err := repo.CreateIfAbsent(ctx, map[string]any{"title_main": "first"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, metadata.DefaultLocale, rec["locale"])

	rec, created, err = repo.CreateIfAbsent(ctx, map[string]any{"title_main": "second"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, rec)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepository_ListPlan(t *testing.T) {
	s, reg := setupStore(t)
	ctx := context.Background()
	repo := NewRepository(s, reg.Get(metadata.Event))
	now := time.Now().UTC()

	for i, title := range []string{"Past", "Soon", "Later", "Draft"} {
		fields := map[string]any{
			"title": title,
			"date":  now.Add(time.Duration(i-1) * 24 * time.Hour),
		}
		if title != "Draft" {
			fields["publishedAt"] = now
		}
		_, err := repo.Create(ctx, fields)
		require.NoError(t, err)
	}

	records, err := repo.List(ctx, Plan{
		Where:         Where{{Field: "date", Op: OpGte, Value: now.Format(time.RFC3339Nano)}},
		Sorts:         []Sort{{Field: "date"}},
		PublishedOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Soon", records[0]["title"])
	assert.Equal(t, "Later", records[1]["title"])

	records, err = repo.List(ctx, Plan{Sorts: []Sort{{Field: "title", Desc: true}}, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Past", records[0]["title"])
	assert.Equal(t, "Later", records[1]["title"])

	records, err = repo.List(ctx, Plan{Where: Where{{Field: "title", Op: OpContainsi, Value: "OON"}}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = repo.List(ctx, Plan{Where: Where{{Field: "title", Op: OpIn, Value: []any{"Past", "Draft"}}}})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = repo.List(ctx, Plan{Where: Where{Eq("nope", 1)}})
	assert.ErrorIs(t, err, ErrUnknownField)

	n, err := repo.Count(ctx, Plan{PublishedOnly: true}.Conditions())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	s, reg := setupStore(t)
	ctx := context.Background()
	repo := NewRepository(s, reg.Get(metadata.Page))

	rec, err := repo.Create(ctx, map[string]any{"title": "About", "slug": "about-us", "content": "v1"})
	require.NoError(t, err)
	assert.False(t, rec.Published())

	published := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	updated, err := repo.Update(ctx, rec.ID(), map[string]any{"publishedAt": published})
	require.NoError(t, err)
	assert.True(t, updated.Published())
	assert.Equal(t, "v1", updated["content"])

	_, err = repo.Update(ctx, 12345, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := repo.Delete(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "about-us", deleted["slug"])

	_, err = repo.Delete(ctx, rec.ID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepository_FindByIDsAndDates(t *testing.T) {
	s, reg := setupStore(t)
	ctx := context.Background()
	experts := NewRepository(s, reg.Get(metadata.Expert))
	articles := NewRepository(s, reg.Get(metadata.Article))

	a, err := experts.Create(ctx, map[string]any{"name": "Dara", "publishedAt": time.Now()})
	require.NoError(t, err)
	b, err := experts.Create(ctx, map[string]any{"name": "Sok"})
	require.NoError(t, err)

	found, err := experts.FindByIDs(ctx, []int64{a.ID(), b.ID()}, true)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, a.ID())

	art, err := articles.Create(ctx, map[string]any{"title": "Post", "publish_date": "2026-03-04"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", art["publish_date"])
}

package site

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/cmsclient"
)

type call struct {
	endpoint string
	query    cmsclient.Query
}

// fakeFetcher answers by endpoint; a response is consumed per call when more
// than one is queued.
type fakeFetcher struct {
	responses map[string][]fakeResponse
	calls     []call
	submitted []cmsclient.RegistrationForm
	submitErr error
}

type fakeResponse struct {
	records []cmsclient.Record
	err     error
}

func newFake() *fakeFetcher {
	return &fakeFetcher{responses: map[string][]fakeResponse{}}
}

func (f *fakeFetcher) on(endpoint string, records []cmsclient.Record, err error) *fakeFetcher {
	f.responses[endpoint] = append(f.responses[endpoint], fakeResponse{records: records, err: err})
	return f
}

func (f *fakeFetcher) Get(_ context.Context, endpoint string, params cmsclient.Params) (cmsclient.Result, error) {
	f.calls = append(f.calls, call{endpoint: endpoint, query: cmsclient.BuildQuery(params, "")})
	queue := f.responses[endpoint]
	if len(queue) == 0 {
		return cmsclient.Result{Records: []cmsclient.Record{}}, nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[endpoint] = queue[1:]
	}
	if resp.err != nil {
		return cmsclient.Result{}, resp.err
	}
	return cmsclient.Result{Records: resp.records}, nil
}

func (f *fakeFetcher) Register(_ context.Context, form cmsclient.RegistrationForm) (cmsclient.Record, error) {
	f.submitted = append(f.submitted, form)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return cmsclient.Record{"id": float64(1)}, nil
}

func (f *fakeFetcher) BaseURL() string { return "https://cms.example.com" }

func (f *fakeFetcher) lastQuery(endpoint string) cmsclient.Query {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].endpoint == endpoint {
			return f.calls[i].query
		}
	}
	return nil
}

func courses(ids ...int) []cmsclient.Record {
	out := make([]cmsclient.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, cmsclient.Record{"id": float64(id)})
	}
	return out
}

func ids(records []cmsclient.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID())
	}
	return out
}

var errDown = errors.New("connection refused")

func TestHome_FeaturedExcludesSlideshow(t *testing.T) {
	f := newFake().
		on("/home-hero", []cmsclient.Record{{"id": float64(1), "title_main": "Learn"}}, nil).
		on("/courses", courses(2, 4), nil).
		on("/courses", courses(1, 2, 3, 4, 5, 6, 7, 8, 9), nil).
		on("/articles", courses(11, 12, 13), nil).
		on("/partners", courses(21), nil)

	data, err := NewLoader(f, zap.NewNop()).Home(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Learn", data.Hero.String("title_main"))
	assert.Equal(t, []int64{2, 4}, ids(data.Slideshow))
	assert.Equal(t, []int64{1, 3, 5, 6, 7, 8}, ids(data.Featured))
	assert.Len(t, data.Articles, 3)
	assert.Len(t, data.Partners, 1)

	q := f.lastQuery("/articles")
	assert.Equal(t, []string{"createdAt:desc"}, q.Get("sort"))
	assert.Equal(t, []string{"3"}, q.Get("pagination[limit]"))
}

func TestHome_OptionalSectionsTolerateFailure(t *testing.T) {
	f := newFake().
		on("/home-hero", nil, errDown).
		on("/courses", nil, errDown).
		on("/courses", courses(1, 2), nil).
		on("/partners", nil, errDown)

	data, err := NewLoader(f, zap.NewNop()).Home(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data.Hero)
	assert.Empty(t, data.Slideshow)
	assert.Equal(t, []int64{1, 2}, ids(data.Featured))
	assert.Empty(t, data.Partners)
}

func TestHome_FeaturedFailureFailsPage(t *testing.T) {
	f := newFake().
		on("/courses", courses(1), nil).
		on("/courses", nil, errDown)

	_, err := NewLoader(f, zap.NewNop()).Home(context.Background())
	assert.ErrorIs(t, err, errDown)
}

func TestHome_SlideshowQuery(t *testing.T) {
	f := newFake()
	_, err := NewLoader(f, zap.NewNop()).Home(context.Background())
	require.NoError(t, err)

	slideshow := f.calls[1].query
	assert.Equal(t, "/courses", f.calls[1].endpoint)
	assert.Equal(t, []string{"cover", "instructor", "instructor.photo"}, slideshow.Get("populate"))
	assert.Equal(t, []string{"true"}, slideshow.Get("filters[is_slideshow][$eq]"))
	assert.Equal(t, []string{"5"}, slideshow.Get("pagination[limit]"))

	featured := f.calls[2].query
	assert.Equal(t, []string{"true"}, featured.Get("filters[featured][$eq]"))
	assert.Equal(t, []string{"10"}, featured.Get("pagination[limit]"))
}

func TestDetailLoaders_NotFound(t *testing.T) {
	l := NewLoader(newFake(), zap.NewNop())
	ctx := context.Background()

	_, err := l.Course(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Insight(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Page(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourse_BySlug(t *testing.T) {
	f := newFake().on("/courses", []cmsclient.Record{{"id": float64(3), "slug": "go"}}, nil)
	rec, err := NewLoader(f, zap.NewNop()).Course(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.ID())

	q := f.lastQuery("/courses")
	assert.Equal(t, []string{"go"}, q.Get("filters[slug][$eq]"))
	assert.Equal(t, []string{"cover", "instructor", "instructor.photo"}, q.Get("populate"))
}

func TestDetailLoaders_PropagateErrors(t *testing.T) {
	f := newFake().on("/pages", nil, errDown)
	_, err := NewLoader(f, zap.NewNop()).Page(context.Background(), "about-us")
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestInsights_Categories(t *testing.T) {
	f := newFake().on("/articles", []cmsclient.Record{
		{"id": float64(1), "category": "SEO"},
		{"id": float64(2), "category": "Data"},
		{"id": float64(3), "category": "SEO"},
		{"id": float64(4)},
		{"id": float64(5), "category": ""},
	}, nil)

	data, err := NewLoader(f, zap.NewNop()).Insights(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Articles, 5)
	assert.Equal(t, []string{"Data", "SEO"}, data.Categories)

	q := f.lastQuery("/articles")
	assert.Equal(t, []string{"publish_date:desc"}, q.Get("sort"))
	assert.Equal(t, []string{"100"}, q.Get("pagination[limit]"))
}

func TestExperts_Query(t *testing.T) {
	f := newFake()
	_, err := NewLoader(f, zap.NewNop()).Experts(context.Background())
	require.NoError(t, err)

	q := f.lastQuery("/experts")
	assert.Equal(t, []string{"url", "alternativeText"}, q.Get("populate[photo][fields]"))
	assert.Contains(t, q.Get("fields"), "linkedin")
}

func TestCommunity_UpcomingOnly(t *testing.T) {
	f := newFake()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	_, err := NewLoader(f, zap.NewNop()).WithClock(func() time.Time { return now }).Community(context.Background())
	require.NoError(t, err)

	q := f.lastQuery("/events")
	assert.Equal(t, []string{"2026-03-01T11:00:00Z"}, q.Get("filters[date][$gte]"))
	assert.Equal(t, []string{"date:asc"}, q.Get("sort"))
}

func TestSiteIdentity(t *testing.T) {
	t.Run("defaults on failure", func(t *testing.T) {
		id := NewLoader(newFake().on("/site-identity", nil, errDown), zap.NewNop()).SiteIdentity(context.Background())
		assert.Equal(t, Identity{SiteName: "Khadimy", LogoURL: "/logo.png", FaviconURL: "/logo.png", AltText: "Khadimy Logo"}, id)
	})

	t.Run("defaults when empty", func(t *testing.T) {
		id := NewLoader(newFake(), zap.NewNop()).SiteIdentity(context.Background())
		assert.Equal(t, DefaultSiteName, id.SiteName)
	})

	t.Run("resolves media", func(t *testing.T) {
		f := newFake().on("/site-identity", []cmsclient.Record{{
			"id":        float64(1),
			"site_name": "Khadimy Academy",
			"logo":      map[string]any{"url": "/uploads/logo.svg"},
			"favicon":   map[string]any{"data": map[string]any{"id": float64(2), "attributes": map[string]any{"url": "https://cdn.example.com/f.ico"}}},
		}}, nil)
		id := NewLoader(f, zap.NewNop()).SiteIdentity(context.Background())
		assert.Equal(t, "Khadimy Academy", id.SiteName)
		assert.Equal(t, "https://cms.example.com/uploads/logo.svg", id.LogoURL)
		assert.Equal(t, "https://cdn.example.com/f.ico", id.FaviconURL)
		assert.Equal(t, DefaultAltText, id.AltText)
	})
}

func TestRegistrationCourses_Query(t *testing.T) {
	f := newFake()
	_, err := NewLoader(f, zap.NewNop()).RegistrationCourses(context.Background())
	require.NoError(t, err)

	q := f.lastQuery("/courses")
	assert.Equal(t, []string{"title", "mode"}, q.Get("fields"))
	assert.Equal(t, []string{"title:asc"}, q.Get("sort"))
	assert.Equal(t, []string{"100"}, q.Get("pagination[limit]"))
}

func TestSubmitRegistration(t *testing.T) {
	f := newFake()
	l := NewLoader(f, zap.NewNop())
	form := cmsclient.RegistrationForm{Name: "Amina", Email: "amina@example.com"}

	require.NoError(t, l.SubmitRegistration(context.Background(), form))
	assert.Equal(t, []cmsclient.RegistrationForm{form}, f.submitted)

	f.submitErr = &cmsclient.SubmissionError{Status: 400, Message: "email must be a valid email"}
	err := l.SubmitRegistration(context.Background(), form)
	require.Error(t, err)
	assert.Equal(t, RegistrationFailedMessage, err.Error())
}

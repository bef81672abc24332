// Package site loads the data behind each public page of the khadimy site
// from the content API.
package site

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/cmsclient"
)

// ErrNotFound is returned by detail loaders when no entry matches.
var ErrNotFound = errors.New("not found")

// RegistrationFailedMessage is shown for any failed registration.
const RegistrationFailedMessage = "Something went wrong. Please try again later or contact us directly on Telegram."

// Identity defaults.
const (
	DefaultSiteName = "Khadimy"
	DefaultLogoURL  = "/logo.png"
	DefaultAltText  = "Khadimy Logo"
)

const (
	slideshowLimit = 5
	featuredLimit  = 10
	featuredShown  = 6
	latestArticles = 3
	listLimit      = 100
)

var coursePopulate = []string{"cover", "instructor", "instructor.photo"}

var expertFields = []string{"name", "role", "location", "experience", "linkedin", "facebook", "github", "website"}

// Fetcher is the subset of *cmsclient.Client the loaders use.
type Fetcher interface {
	Get(ctx context.Context, endpoint string, params cmsclient.Params) (cmsclient.Result, error)
	Register(ctx context.Context, form cmsclient.RegistrationForm) (cmsclient.Record, error)
	BaseURL() string
}

type Loader struct {
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time
}

func NewLoader(f Fetcher, logger *zap.Logger) *Loader {
	return &Loader{fetcher: f, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for the upcoming-events filter.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// HomeData backs the landing page.
type HomeData struct {
	Hero      cmsclient.Record   `json:"hero"`
	Slideshow []cmsclient.Record `json:"slideshow"`
	Featured  []cmsclient.Record `json:"featured"`
	Articles  []cmsclient.Record `json:"articles"`
	Partners  []cmsclient.Record `json:"partners"`
}

// Home loads the landing page. Hero, slideshow and partners are optional;
// failing to load featured courses or articles fails the page.
func (l *Loader) Home(ctx context.Context) (*HomeData, error) {
	data := &HomeData{
		Slideshow: []cmsclient.Record{},
		Partners:  []cmsclient.Record{},
	}

	if res, err := l.fetcher.Get(ctx, "/home-hero", nil); err != nil {
		l.logger.Warn("home hero fetch failed", zap.Error(err))
	} else {
		data.Hero, _ = res.One()
	}

	if res, err := l.fetcher.Get(ctx, "/courses", cmsclient.Params{
		{Key: "populate", Value: coursePopulate},
		{Key: "filters", Value: eq("is_slideshow", true)},
		{Key: "pagination", Value: cmsclient.Params{{Key: "limit", Value: slideshowLimit}}},
	}); err != nil {
		l.logger.Warn("slideshow fetch failed", zap.Error(err))
	} else {
		data.Slideshow = res.Records
	}

	res, err := l.fetcher.Get(ctx, "/courses", cmsclient.Params{
		{Key: "populate", Value: coursePopulate},
		{Key: "filters", Value: eq("featured", true)},
		{Key: "pagination", Value: cmsclient.Params{{Key: "limit", Value: featuredLimit}}},
	})
	if err != nil {
		return nil, fmt.Errorf("load featured courses: %w", err)
	}
	data.Featured = excludeIDs(res.Records, data.Slideshow, featuredShown)

	res, err = l.fetcher.Get(ctx, "/articles", cmsclient.Params{
		{Key: "populate", Value: "*"},
		{Key: "sort", Value: []string{"createdAt:desc"}},
		{Key: "pagination", Value: cmsclient.Params{{Key: "limit", Value: latestArticles}}},
	})
	if err != nil {
		return nil, fmt.Errorf("load latest articles: %w", err)
	}
	data.Articles = res.Records

	if res, err := l.fetcher.Get(ctx, "/partners", cmsclient.Params{{Key: "populate", Value: "*"}}); err != nil {
		l.logger.Warn("partners fetch failed", zap.Error(err))
	} else {
		data.Partners = res.Records
	}

	return data, nil
}

// excludeIDs drops records whose id appears in skip and keeps at most max.
func excludeIDs(records, skip []cmsclient.Record, max int) []cmsclient.Record {
	seen := make(map[int64]struct{}, len(skip))
	for _, r := range skip {
		seen[r.ID()] = struct{}{}
	}
	out := make([]cmsclient.Record, 0, max)
	for _, r := range records {
		if _, ok := seen[r.ID()]; ok {
			continue
		}
		if len(out) == max {
			break
		}
		out = append(out, r)
	}
	return out
}

func (l *Loader) Courses(ctx context.Context) ([]cmsclient.Record, error) {
	res, err := l.fetcher.Get(ctx, "/courses", cmsclient.Params{
		{Key: "populate", Value: coursePopulate},
		{Key: "sort", Value: []string{"createdAt:desc"}},
	})
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	return res.Records, nil
}

func (l *Loader) Course(ctx context.Context, slug string) (cmsclient.Record, error) {
	return l.bySlug(ctx, "/courses", slug, cmsclient.Params{{Key: "populate", Value: coursePopulate}})
}

// InsightsData is the article list plus its distinct categories.
type InsightsData struct {
	Articles   []cmsclient.Record `json:"articles"`
	Categories []string           `json:"categories"`
}

func (l *Loader) Insights(ctx context.Context) (*InsightsData, error) {
	res, err := l.fetcher.Get(ctx, "/articles", cmsclient.Params{
		{Key: "populate", Value: "*"},
		{Key: "sort", Value: []string{"publish_date:desc"}},
		{Key: "pagination", Value: cmsclient.Params{{Key: "limit", Value: listLimit}}},
	})
	if err != nil {
		return nil, fmt.Errorf("load insights: %w", err)
	}
	return &InsightsData{Articles: res.Records, Categories: categories(res.Records)}, nil
}

func categories(articles []cmsclient.Record) []string {
	set := make(map[string]struct{})
	for _, a := range articles {
		if c := a.String("category"); c != "" {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (l *Loader) Insight(ctx context.Context, slug string) (cmsclient.Record, error) {
	return l.bySlug(ctx, "/articles", slug, cmsclient.Params{{Key: "populate", Value: "*"}})
}

func (l *Loader) Experts(ctx context.Context) ([]cmsclient.Record, error) {
	res, err := l.fetcher.Get(ctx, "/experts", cmsclient.Params{
		{Key: "populate", Value: cmsclient.Params{
			{Key: "photo", Value: cmsclient.Params{{Key: "fields", Value: []string{"url", "alternativeText"}}}},
		}},
		{Key: "fields", Value: expertFields},
	})
	if err != nil {
		return nil, fmt.Errorf("load experts: %w", err)
	}
	return res.Records, nil
}

// Community returns upcoming events, soonest first.
func (l *Loader) Community(ctx context.Context) ([]cmsclient.Record, error) {
	res, err := l.fetcher.Get(ctx, "/events", cmsclient.Params{
		{Key: "populate", Value: "*"},
		{Key: "sort", Value: []string{"date:asc"}},
		{Key: "filters", Value: cmsclient.Params{
			{Key: "date", Value: cmsclient.Params{{Key: "$gte", Value: l.now().UTC().Format(time.RFC3339)}}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return res.Records, nil
}

func (l *Loader) Page(ctx context.Context, slug string) (cmsclient.Record, error) {
	return l.bySlug(ctx, "/pages", slug, nil)
}

// Identity is the resolved site branding.
type Identity struct {
	SiteName   string `json:"siteName"`
	LogoURL    string `json:"logoUrl"`
	FaviconURL string `json:"faviconUrl"`
	AltText    string `json:"altText"`
}

// SiteIdentity never fails; missing values and fetch errors yield defaults.
func (l *Loader) SiteIdentity(ctx context.Context) Identity {
	id := Identity{
		SiteName:   DefaultSiteName,
		LogoURL:    DefaultLogoURL,
		FaviconURL: DefaultLogoURL,
		AltText:    DefaultAltText,
	}

	res, err := l.fetcher.Get(ctx, "/site-identity", cmsclient.Params{
		{Key: "populate", Value: []string{"favicon", "logo"}},
	})
	if err != nil {
		l.logger.Error("failed to load site identity", zap.Error(err))
		return id
	}
	rec, ok := res.One()
	if !ok {
		return id
	}

	if s := rec.String("site_name"); s != "" {
		id.SiteName = s
	}
	if s := rec.String("alt_text"); s != "" {
		id.AltText = s
	}
	if u, ok := cmsclient.MediaURL(l.fetcher.BaseURL(), rec["logo"]); ok {
		id.LogoURL = u
	}
	if u, ok := cmsclient.MediaURL(l.fetcher.BaseURL(), rec["favicon"]); ok {
		id.FaviconURL = u
	}
	return id
}

// RegistrationCourses lists course titles for the registration form.
func (l *Loader) RegistrationCourses(ctx context.Context) ([]cmsclient.Record, error) {
	res, err := l.fetcher.Get(ctx, "/courses", cmsclient.Params{
		{Key: "fields", Value: []string{"title", "mode"}},
		{Key: "sort", Value: []string{"title:asc"}},
		{Key: "pagination", Value: cmsclient.Params{{Key: "limit", Value: listLimit}}},
	})
	if err != nil {
		return nil, fmt.Errorf("load registration courses: %w", err)
	}
	return res.Records, nil
}

// SubmitRegistration sends the form. Any failure is logged and reported to
// the visitor as RegistrationFailedMessage.
func (l *Loader) SubmitRegistration(ctx context.Context, form cmsclient.RegistrationForm) error {
	if _, err := l.fetcher.Register(ctx, form); err != nil {
		l.logger.Error("registration failed", zap.String("email", form.Email), zap.Error(err))
		return errors.New(RegistrationFailedMessage)
	}
	return nil
}

func (l *Loader) bySlug(ctx context.Context, endpoint, slug string, params cmsclient.Params) (cmsclient.Record, error) {
	params = append(cmsclient.Params{{Key: "filters", Value: eq("slug", slug)}}, params...)
	res, err := l.fetcher.Get(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", endpoint, slug, err)
	}
	rec, ok := res.One()
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func eq(field string, value any) cmsclient.Params {
	return cmsclient.Params{{Key: field, Value: cmsclient.Params{{Key: "$eq", Value: value}}}}
}

// Package seed writes the day-one baseline a fresh CMS needs: public read
// permissions, the singleton entries and the default topics. Every step is
// idempotent and relies on unique natural keys, so concurrent replicas cannot
// create duplicates.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/metrics"
	"github.com/rambosorn/khadimy/internal/slug"
	"github.com/rambosorn/khadimy/internal/store"
)

// AboutSlug is the natural key of the seeded about page.
const AboutSlug = "about-us"

// DefaultTopics are created when the topic collection is empty.
var DefaultTopics = []string{"Social Media", "Email Marketing", "SEO", "Inbound Sales", "Content Marketing"}

// PublicActions lists the permissions granted to the public role.
func PublicActions() []string {
	actions := []string{metadata.ActionUID(metadata.HomeHero, metadata.ActionFind)}
	for _, name := range []string{
		metadata.Course, metadata.Article, metadata.Expert, metadata.Partner,
		metadata.Event, metadata.Page, metadata.SiteIdentity, metadata.Topic,
	} {
		actions = append(actions,
			metadata.ActionUID(name, metadata.ActionFind),
			metadata.ActionUID(name, metadata.ActionFindOne),
		)
	}
	return actions
}

// Report summarises one run.
type Report struct {
	PublicRole bool     `json:"public_role"`
	Granted    []string `json:"granted"`
	Created    []string `json:"created"`
	Published  []string `json:"published"`
	Failures   []string `json:"failures"`
}

// OK reports whether every step completed without error.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

func (r *Report) fail(step string, err error) {
	r.Failures = append(r.Failures, fmt.Sprintf("%s: %v", step, err))
}

type Seeder struct {
	store       *store.Store
	registry    *metadata.Registry
	permissions *content.Permissions
	logger      *zap.Logger
	now         func() time.Time
	extra       []string
}

// New creates a seeder. logger receives one line per step; pass the step log
// from logging.NewStepLog to mirror them into the debug file.
func New(s *store.Store, reg *metadata.Registry, logger *zap.Logger) *Seeder {
	return &Seeder{
		store:       s,
		registry:    reg,
		permissions: content.NewPermissions(s),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the publish timestamp source.
func (s *Seeder) WithClock(now func() time.Time) *Seeder {
	s.now = now
	return s
}

// WithExtraPublicActions grants additional actions to the public role on top
// of PublicActions.
func (s *Seeder) WithExtraPublicActions(actions []string) *Seeder {
	s.extra = append(s.extra, actions...)
	return s
}

// Run performs every step in order. It never fails: errors and panics are
// logged and recorded in the report, and the caller keeps starting.
func (s *Seeder) Run(ctx context.Context) (report *Report) {
	report = &Report{}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("seeding aborted", zap.Any("panic", r))
			report.fail("panic", fmt.Errorf("%v", r))
			metrics.SeedStepsTotal.WithLabelValues("run", "panic").Inc()
		}
	}()

	s.logger.Info("Starting bootstrap sequence")

	role, err := s.permissions.FindRole(ctx, metadata.RolePublic)
	switch {
	case err == nil:
		report.PublicRole = true
		s.logger.Info(fmt.Sprintf("Found public role ID: %d", role.ID))
		s.grantPublic(ctx, role, report)
	case errors.Is(err, store.ErrNotFound):
		s.logger.Warn("Public role not found, skipping permissions")
		metrics.SeedStepsTotal.WithLabelValues("permissions", "skipped").Inc()
	default:
		s.logger.Error("Public role lookup failed", zap.Error(err))
		report.fail("permissions", err)
		metrics.SeedStepsTotal.WithLabelValues("permissions", "error").Inc()
	}

	now := s.now()
	s.seedSingleton(ctx, report, metadata.HomeHero, nil, homeHeroDefaults(now))
	s.seedSingleton(ctx, report, metadata.Page, content.Where{content.Eq("slug", AboutSlug)}, aboutPageDefaults(now))
	s.seedSingleton(ctx, report, metadata.SiteIdentity, nil, siteIdentityDefaults(now))
	s.seedTopics(ctx, report, now)

	s.logger.Info("Bootstrap finished",
		zap.Int("granted", len(report.Granted)),
		zap.Int("created", len(report.Created)),
		zap.Int("published", len(report.Published)),
		zap.Int("failures", len(report.Failures)),
	)
	return report
}

func (s *Seeder) grantPublic(ctx context.Context, role *content.Role, report *Report) {
	for _, action := range append(PublicActions(), s.extra...) {
		created, err := s.permissions.Grant(ctx, action, role.ID)
		if err != nil {
			s.logger.Error("Permission grant failed", zap.String("action", action), zap.Error(err))
			report.fail("permission "+action, err)
			metrics.SeedStepsTotal.WithLabelValues("permissions", "error").Inc()
			continue
		}
		if created {
			s.logger.Info("Creating permission for: " + action)
			report.Granted = append(report.Granted, action)
			metrics.SeedStepsTotal.WithLabelValues("permissions", "created").Inc()
		}
	}
}

// seedSingleton creates the entry matched by where when it is missing, and
// publishes it when it exists unpublished. Content of an existing entry is
// never touched.
func (s *Seeder) seedSingleton(ctx context.Context, report *Report, typeName string, where content.Where, defaults map[string]any) {
	step := typeName
	repo, err := s.repo(typeName)
	if err != nil {
		report.fail(step, err)
		return
	}

	existing, err := repo.FindOne(ctx, where)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Info("Creating default " + typeName)
		rec, created, err := repo.CreateIfAbsent(ctx, defaults)
		if err != nil {
			s.logger.Error("Create failed", zap.String("type", typeName), zap.Error(err))
			report.fail(step, err)
			metrics.SeedStepsTotal.WithLabelValues(step, "error").Inc()
			return
		}
		if !created {
			s.logger.Info(typeName + " was created concurrently, skipping")
			metrics.SeedStepsTotal.WithLabelValues(step, "exists").Inc()
			return
		}
		s.logger.Info(fmt.Sprintf("Created %s. ID: %d", typeName, rec.ID()))
		report.Created = append(report.Created, typeName)
		metrics.SeedStepsTotal.WithLabelValues(step, "created").Inc()

	case err != nil:
		s.logger.Error("Lookup failed", zap.String("type", typeName), zap.Error(err))
		report.fail(step, err)
		metrics.SeedStepsTotal.WithLabelValues(step, "error").Inc()

	case !existing.Published():
		s.logger.Info(fmt.Sprintf("Found %s (ID: %d) but it is unpublished. Publishing now", typeName, existing.ID()))
		if _, err := repo.Update(ctx, existing.ID(), map[string]any{"publishedAt": s.now()}); err != nil {
			s.logger.Error("Publish failed", zap.String("type", typeName), zap.Error(err))
			report.fail(step, err)
			metrics.SeedStepsTotal.WithLabelValues(step, "error").Inc()
			return
		}
		report.Published = append(report.Published, typeName)
		metrics.SeedStepsTotal.WithLabelValues(step, "published").Inc()

	default:
		s.logger.Info(fmt.Sprintf("%s exists and is published (ID: %d)", typeName, existing.ID()))
		metrics.SeedStepsTotal.WithLabelValues(step, "exists").Inc()
	}
}

func (s *Seeder) seedTopics(ctx context.Context, report *Report, now time.Time) {
	const step = metadata.Topic
	repo, err := s.repo(metadata.Topic)
	if err != nil {
		report.fail(step, err)
		return
	}

	n, err := repo.Count(ctx, nil)
	if err != nil {
		s.logger.Error("Topic count failed", zap.Error(err))
		report.fail(step, err)
		metrics.SeedStepsTotal.WithLabelValues(step, "error").Inc()
		return
	}
	if n > 0 {
		metrics.SeedStepsTotal.WithLabelValues(step, "exists").Inc()
		return
	}

	s.logger.Info("Creating default Topics")
	for _, name := range DefaultTopics {
		_, created, err := repo.CreateIfAbsent(ctx, map[string]any{
			"name":        name,
			"slug":        slug.Make(name),
			"publishedAt": now,
		})
		if err != nil {
			s.logger.Error("Topic create failed", zap.String("name", name), zap.Error(err))
			report.fail("topic "+name, err)
			metrics.SeedStepsTotal.WithLabelValues(step, "error").Inc()
			continue
		}
		if created {
			report.Created = append(report.Created, "topic:"+slug.Make(name))
			metrics.SeedStepsTotal.WithLabelValues(step, "created").Inc()
		}
	}
	s.logger.Info("Created default Topics")
}

func (s *Seeder) repo(typeName string) (*content.Repository, error) {
	ct := s.registry.Get(typeName)
	if ct == nil {
		return nil, fmt.Errorf("content type %s is not registered", typeName)
	}
	return content.NewRepository(s.store, ct).WithClock(s.now), nil
}

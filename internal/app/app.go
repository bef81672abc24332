// Package app wires the CMS runtime: database, registry, permissions and the
// HTTP handlers built on them.
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/admin"
	"github.com/rambosorn/khadimy/internal/auth"
	"github.com/rambosorn/khadimy/internal/config"
	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/engine"
	"github.com/rambosorn/khadimy/internal/logging"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/metrics"
	"github.com/rambosorn/khadimy/internal/seed"
	"github.com/rambosorn/khadimy/internal/site"
	"github.com/rambosorn/khadimy/internal/storage"
	"github.com/rambosorn/khadimy/internal/store"
)

// Runtime holds the CMS resources and pre-built handlers.
type Runtime struct {
	Config *config.Config
	Logger *zap.Logger

	Store       *store.Store
	Registry    *metadata.Registry
	Migrator    *store.Migrator
	Permissions *content.Permissions
	Storage     *storage.LocalStorage

	EngineHandler *engine.Handler
	UploadHandler *engine.UploadHandler
	AuthHandler   *auth.AuthHandler
	AdminHandler  *admin.Handler
}

// Open connects to the database, creates the system and content tables and
// builds the handlers. Permissions are loaded by LoadPermissions.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	s, err := store.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connected", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	if err := s.Bootstrap(ctx, store.AdminSeed{Email: cfg.Admin.Email, Password: cfg.Admin.Password}, logger); err != nil {
		s.Close()
		return nil, err
	}

	rt := &Runtime{
		Config:      cfg,
		Logger:      logger,
		Store:       s,
		Registry:    metadata.NewDefaultRegistry(),
		Migrator:    store.NewMigrator(s),
		Permissions: content.NewPermissions(s),
		Storage:     storage.NewLocalStorage(cfg.Storage.LocalPath),
	}
	if err := rt.Migrator.MigrateAll(ctx, rt.Registry.All()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate content types: %w", err)
	}
	if err := engine.CompileRules(rt.Registry); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("content types ready", zap.Int("count", len(rt.Registry.All())))

	rt.buildHandlers()
	return rt, nil
}

func (rt *Runtime) buildHandlers() {
	rt.EngineHandler = engine.NewHandler(rt.Store, rt.Registry, rt.Config.API.ResponseFormat, rt.Logger)
	rt.UploadHandler = engine.NewUploadHandler(content.NewFiles(rt.Store), rt.Storage, rt.Config.Storage.MaxFileSize, rt.Logger)
	rt.AuthHandler = auth.NewAuthHandler(content.NewUsers(rt.Store), rt.Config.JWTSecret, rt.Logger)
	rt.AdminHandler = admin.NewHandler(rt.Permissions, rt.Registry, rt.Logger)
}

// Seed runs the bootstrap seeder, mirroring its steps to the step log file.
func (rt *Runtime) Seed(ctx context.Context) *seed.Report {
	stepLogger, closer := logging.NewStepLog(rt.Logger, rt.Config.Seed.LogPath)
	defer closer.Close()

	return seed.New(rt.Store, rt.Registry, stepLogger).
		WithExtraPublicActions(rt.Config.Permissions.Public).
		Run(ctx)
}

// LoadPermissions refreshes the registry grants from the database.
func (rt *Runtime) LoadPermissions(ctx context.Context) error {
	return metadata.Reload(ctx, rt.Permissions, rt.Registry)
}

// NewServer builds the CMS fiber app with every route mounted.
func (rt *Runtime) NewServer() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler(rt.Logger),
		BodyLimit:    int(rt.Config.Storage.MaxFileSize) + 1<<20,
	})
	useCommon(app, rt.Config, "cms")

	engine.RegisterSystemRoutes(app, rt.Storage.BasePath())

	authMW := auth.OptionalAuth(rt.Config.JWTSecret)
	auth.RegisterAuthRoutes(app, rt.AuthHandler, authMW)
	admin.RegisterAdminRoutes(app, rt.AdminHandler, authMW)
	engine.RegisterContentRoutes(app, rt.EngineHandler, rt.UploadHandler, authMW)
	return app
}

func (rt *Runtime) Close() {
	rt.Store.Close()
}

// NewSiteServer builds the site fiber app serving page data from f.
func NewSiteServer(cfg *config.Config, logger *zap.Logger, f site.Fetcher) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler(logger)})
	useCommon(app, cfg, "site")

	app.Get("/_health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	site.RegisterRoutes(app, site.NewHandler(site.NewLoader(f, logger), logger))
	return app
}

func useCommon(app *fiber.App, cfg *config.Config, server string) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	origins := cfg.CORS.AllowedOrigins()
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		// fiber rejects credentials together with a wildcard origin
		AllowCredentials: !slices.Contains(origins, "*"),
	}))
	app.Use(metrics.Middleware(server))
}

// Package bootstrap builds the application object graph: config, storage,
// repositories, services, handlers, and the HTTP router.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "resume-builder/internal/auth"
	"resume-builder/internal/autosave"
	"resume-builder/internal/billing"
	"resume-builder/internal/entitlements"
	"resume-builder/internal/realtime"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/storage/object"
	localstore "resume-builder/internal/shared/storage/object/local"
	s3store "resume-builder/internal/shared/storage/object/s3"
	"resume-builder/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Hub    *realtime.Hub

	ResumesRepo      resumes.Repo
	EntitlementsRepo entitlements.Repo
	UsersRepo        users.Repo

	ResumesService      *resumes.Service
	EntitlementsService *entitlements.Service
	UsersService        *users.Service
	Autosave            *autosave.Factory
	Checkout            *billing.CheckoutClient

	ResumeHandler   *resumes.Handler
	BillingHandler  *billing.Handler
	UsersHandler    *users.Handler
	RealtimeHandler *realtime.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Hub:    realtime.NewHub(),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		ResumeHandler:   app.ResumeHandler,
		BillingHandler:  app.BillingHandler,
		UserHandler:     app.UsersHandler,
		RealtimeHandler: app.RealtimeHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var resumeRepo resumes.Repo
	var entRepo entitlements.Repo
	var userRepo users.Repo

	if app.DB != nil {
		resumeRepo = &resumes.PGRepo{DB: app.DB}
		entRepo = &entitlements.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		resumeRepo = resumes.NewMemoryRepo()
		entRepo = entitlements.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	gate := entitlements.NewGate(app.Config.FreeResumeLimit)
	entSvc := entitlements.NewService(entRepo, gate)

	resumeSvc := &resumes.Service{
		Repo:  resumeRepo,
		Store: app.Store,
		Gate:  entSvc,
	}

	checkout := billing.NewCheckoutClient(
		app.Config.StripeAPIKey,
		app.Config.StripePriceID,
		app.Config.CheckoutSuccessURL,
		app.Config.CheckoutCancelURL,
	)

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.ResumesRepo = resumeRepo
	app.EntitlementsRepo = entRepo
	app.UsersRepo = userRepo
	app.ResumesService = resumeSvc
	app.EntitlementsService = entSvc
	app.UsersService = userSvc
	app.Autosave = autosave.NewFactory(app.Config.AutosaveDebounce, resumeSvc)
	app.Checkout = checkout
	app.ResumeHandler = resumes.NewHandler(resumeSvc)
	app.BillingHandler = billing.NewHandler(entSvc, checkout, app.Hub, app.Config.WebhookSecret)
	app.UsersHandler = users.NewHandler(userSvc)
	app.RealtimeHandler = realtime.NewHandler(app.Hub, app.Config.CORSAllowOrigin)
	app.GoogleAuth = googleAuthSvc

	if app.ResumeHandler == nil || app.BillingHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

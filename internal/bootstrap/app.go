package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/config"
	"github.com/Ntuthuko-dev/Web-Solution/internal/auth"
	"github.com/Ntuthuko-dev/Web-Solution/internal/gallery"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/assets"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/repository"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/service"
)

// App holds the wired components shared by the API server and the CLI.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Backend   repository.Backend
	FileCache *repository.FileCache
	Uploader  assets.Uploader
	Presenter *gallery.Presenter
	Projects  *service.ProjectService
	Sessions  auth.SessionStore
	Gate      *auth.Gate
	Limiter   *auth.LoginLimiter
}

// NewApp connects the configured infrastructure and builds the project
// service. Nothing is loaded yet; callers decide when to call Load.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	if cfg.NeedsRedis() {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	store, err := app.remoteStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	var cache repository.LocalCache
	switch cfg.Cache.Driver {
	case "redis":
		cache = repository.NewRedisCache(app.Redis, cfg.Cache.Key)
	default:
		app.FileCache = repository.NewFileCache(cfg.Cache.Path, logger)
		cache = app.FileCache
	}

	app.Backend = repository.SelectBackend(store, cache)
	if app.Backend.Mode() == repository.ModeLocal {
		logger.Warn("remote store not configured, projects are kept locally",
			zap.String("cache", app.Backend.Name()))
	}

	app.Uploader = assets.NewUploader(cfg.Assets)
	if !app.Uploader.Durable() {
		logger.Warn("asset host not configured, uploaded images are embedded as data URIs")
	}

	app.Presenter, err = gallery.NewPresenter(cfg.App.ServiceName, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("presenter: %w", err)
	}

	app.Projects = service.NewProjectService(app.Backend, app.Presenter, domain.NewClockIDs(nil), logger)

	switch cfg.Admin.SessionDriver {
	case "redis":
		app.Sessions = auth.NewRedisSessions(app.Redis, cfg.Admin.SessionTTL)
	default:
		app.Sessions = auth.NewMemorySessions(cfg.Admin.SessionTTL)
	}
	app.Gate = auth.NewGate(cfg.Admin.Username, cfg.Admin.Password)
	app.Limiter = auth.NewLoginLimiter(cfg.Admin.LoginRate, cfg.Admin.LoginBurst)

	return app, nil
}

func (a *App) remoteStore(ctx context.Context) (repository.RemoteStore, error) {
	cfg := a.Config.Store
	if !cfg.Configured() {
		return nil, nil
	}

	switch cfg.Driver {
	case "postgres":
		pool, err := OpenDB(ctx, DBOptions{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		a.DB = pool

		store := repository.NewPostgresStore(pool, cfg.DocumentName)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	default:
		return repository.NewJSONBinStore(cfg), nil
	}
}

// Close releases connections opened by NewApp.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

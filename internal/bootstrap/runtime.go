// Package bootstrap wires configuration into the runtime dependencies the
// server needs.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/mail"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/seed"
	"socialhub/internal/server"
	"socialhub/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is reported to the tracer as the service version.
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with fake content.
	SeedDemoData bool
}

// Runtime holds the process-wide dependencies.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Store  storage.ObjectStore
	Mailer mail.Mailer

	shutdownTracing func(context.Context) error
}

// InitRuntime sets up tracing, connects to DB and Redis, builds the object
// store and mailer, and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "socialhub-api",
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}
	rt := &Runtime{Config: cfg, shutdownTracing: shutdownTracing}

	rt.DB, err = database.Connect(ctx, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// nil when Redis is unreachable; realtime falls back to the local hub.
	rt.Redis = cache.InitRedis(ctx, cfg.RedisURL)

	if rt.Store, err = storage.New(cfg); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("object store init failed: %w", err)
	}
	if rt.Mailer, err = mail.New(cfg); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("mailer init failed: %w", err)
	}

	if opts.SeedDemoData {
		if err := seedIfEmpty(rt.DB, cfg); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// Deps returns the server dependencies backed by this runtime.
func (rt *Runtime) Deps() server.Deps {
	return server.Deps{DB: rt.DB, Redis: rt.Redis, Store: rt.Store, Mailer: rt.Mailer}
}

// Close flushes traces. The server owns the DB and Redis handles once it
// has been built from Deps.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.shutdownTracing == nil {
		return nil
	}
	return rt.shutdownTracing(ctx)
}

func seedIfEmpty(db *gorm.DB, cfg *config.Config) error {
	if cfg.IsProduction() {
		return errors.New("demo data is never seeded in production")
	}
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("Skipping demo seed, users already exist", slog.Int64("users", users))
		return nil
	}

	s, err := seed.NewSeeder(db, seed.Options{NumUsers: 20, NumPosts: 60, MaxDays: 30, BatchSize: 50})
	if err != nil {
		return err
	}
	stats, err := s.Run()
	if err != nil {
		return err
	}
	middleware.Logger.Info("Demo data seeded",
		slog.Int("users", stats.Users), slog.Int("posts", stats.Posts), slog.Int("comments", stats.Comments))
	return nil
}

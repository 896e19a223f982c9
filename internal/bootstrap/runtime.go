// Package bootstrap initializes the process-wide runtime shared by the
// command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServiceName identifies the process in traces and metrics.
const ServiceName = "warbler"

// Options control runtime initialization behavior.
type Options struct {
	// Tracing installs the OpenTelemetry provider described by the config.
	Tracing bool
	// Redis connects the shared Redis client. An unreachable Redis is not an error.
	Redis bool
}

// Runtime holds the initialized process dependencies.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and, when asked, Redis and the tracer.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.SetupLogger(cfg.Env)

	rt := &Runtime{
		Config:          cfg,
		shutdownTracing: func(context.Context) error { return nil },
	}

	if opts.Tracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if opts.Redis {
		// May leave a nil client when Redis is unreachable.
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	return rt, nil
}

// ShutdownTracing flushes pending spans.
func (rt *Runtime) ShutdownTracing(ctx context.Context) error {
	return rt.shutdownTracing(ctx)
}

// Close flushes traces and releases the database and Redis connections.
func (rt *Runtime) Close(ctx context.Context) {
	if err := rt.ShutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}
	if rt.Redis != nil {
		if err := cache.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}
}

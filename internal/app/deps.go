package app

import (
	"context"
	"fmt"
	"time"

	"github.com/medialens/backend/internal/auth"
	"github.com/medialens/backend/internal/config"
	"github.com/medialens/backend/internal/db"
	"github.com/medialens/backend/internal/detect"
	"github.com/medialens/backend/internal/federation"
	"github.com/medialens/backend/internal/handlers"
	"github.com/medialens/backend/internal/middleware"
	"github.com/medialens/backend/internal/repositories"
	"github.com/medialens/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The session manager is returned separately so the caller can run
// the expiry sweep.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, *auth.Manager, error) {
	files, err := buildFileStore(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	sessions := auth.NewManager(cfg.SessionTTL, repositories.NewPostgresSessionStore(pool))
	limiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, time.Minute, cfg.LoginRateBurst, 5*time.Minute)

	deps := handlers.Dependencies{
		Users:          repositories.NewPostgresUserRepository(pool),
		Sessions:       sessions,
		Uploads:        repositories.NewPostgresUploadRepository(pool),
		Files:          files,
		Analyzer:       detect.NewAnalyzer(nil),
		Federation:     federation.NewClient(cfg.FederationURL),
		AuthLimiter:    limiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	return deps, sessions, nil
}

func buildFileStore(ctx context.Context, cfg config.Config) (storage.FileStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Storage(ctx, cfg.ObjectStore)
	case config.StorageDir, "":
		return storage.NewDirStorage(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

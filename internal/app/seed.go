package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medialens/backend/internal/auth"
	"github.com/medialens/backend/internal/config"
	"github.com/medialens/backend/internal/db"
	"github.com/medialens/backend/internal/models"
	"github.com/medialens/backend/internal/repositories"
)

// runSeed provisions bootstrap data. The only seed today is "admin", which
// creates (or promotes) an administrator account from environment variables.
func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. admin)")
	}

	switch args[0] {
	case "admin":
		return seedAdmin(ctx)
	default:
		return fmt.Errorf("unknown seed %q", args[0])
	}
}

func seedAdmin(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	email := strings.TrimSpace(strings.ToLower(os.Getenv("MEDIALENS_ADMIN_EMAIL")))
	password := os.Getenv("MEDIALENS_ADMIN_PASSWORD")
	name := os.Getenv("MEDIALENS_ADMIN_NAME")
	if email == "" || password == "" {
		return errors.New("MEDIALENS_ADMIN_EMAIL and MEDIALENS_ADMIN_PASSWORD must be set")
	}
	if name == "" {
		name = "Administrator"
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := repositories.NewPostgresUserRepository(pool)

	if existing, err := users.FindByEmail(ctx, email); err == nil {
		return promoteAdmin(ctx, pool, existing.ID)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("look up admin account: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := models.User{
		ID:           "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	fmt.Printf("created admin account %s\n", email)
	return nil
}

func promoteAdmin(ctx context.Context, pool db.Pool, userID string) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `UPDATE users SET role = $2 WHERE user_id = $1`, userID, models.RoleAdmin); err != nil {
		return fmt.Errorf("promote admin account: %w", err)
	}

	fmt.Printf("promoted existing account to admin\n")
	return nil
}

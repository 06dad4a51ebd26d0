package handlers

import (
	"context"

	"github.com/medialens/backend/internal/auth"
	"github.com/medialens/backend/internal/detect"
	"github.com/medialens/backend/internal/federation"
	"github.com/medialens/backend/internal/models"
	"github.com/medialens/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, picture string) error
	Count(ctx context.Context) (int64, error)
}

// SessionManager issues, resolves and revokes session tokens.
type SessionManager interface {
	Create(ctx context.Context, userID string) (auth.Session, error)
	CreateWithToken(ctx context.Context, userID, token string) (auth.Session, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string)
}

// UploadStore captures persistence for analyzed uploads.
type UploadStore interface {
	Create(ctx context.Context, upload models.Upload) error
	ListForOwner(ctx context.Context, ownerID string, skip, limit int) ([]models.Upload, error)
	FindForOwner(ctx context.Context, id, ownerID string) (models.Upload, error)
	Find(ctx context.Context, id string) (models.Upload, error)
	List(ctx context.Context, filter repositories.UploadFilter, skip, limit int) ([]models.Upload, error)
	SetFlag(ctx context.Context, id string, flagged bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByResult(ctx context.Context, result string) (int64, error)
	CountFlagged(ctx context.Context) (int64, error)
}

// MediaAnalyzer classifies uploaded media bytes.
type MediaAnalyzer interface {
	Analyze(data []byte, contentType string) detect.Finding
}

// SessionExchanger validates an upstream session id for federated login.
type SessionExchanger interface {
	ExchangeSession(ctx context.Context, sessionID string) (federation.Identity, error)
}

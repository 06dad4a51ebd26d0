package repositories

import (
	"context"

	"github.com/medialens/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, picture string) error
	Count(ctx context.Context) (int64, error)
}

// UploadFilter narrows admin upload listings.
type UploadFilter struct {
	Result      string
	FlaggedOnly bool
}

// UploadRepository defines the data access contract for analyzed uploads.
type UploadRepository interface {
	Create(ctx context.Context, upload models.Upload) error
	ListForOwner(ctx context.Context, ownerID string, skip, limit int) ([]models.Upload, error)
	FindForOwner(ctx context.Context, id, ownerID string) (models.Upload, error)
	Find(ctx context.Context, id string) (models.Upload, error)
	List(ctx context.Context, filter UploadFilter, skip, limit int) ([]models.Upload, error)
	SetFlag(ctx context.Context, id string, flagged bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByResult(ctx context.Context, result string) (int64, error)
	CountFlagged(ctx context.Context) (int64, error)
}

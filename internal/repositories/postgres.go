package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medialens/backend/internal/db"
	"github.com/medialens/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (user_id, email, name, password_hash, role, picture, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.Picture, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, email, name, password_hash, role, picture, created_at
        FROM users
        WHERE email = $1
    `, email)

	return scanUser(row)
}

// FindByID fetches a user by their application-level id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, email, name, password_hash, role, picture, created_at
        FROM users
        WHERE user_id = $1
    `, id)

	return scanUser(row)
}

// UpdateProfile refreshes the display name and picture for an existing user.
// Federated logins use this to mirror upstream profile changes.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id, name, picture string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET name = $2, picture = $3
        WHERE user_id = $1
    `, id, name, picture)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the total number of registered users.
func (r *PostgresUserRepository) Count(ctx context.Context) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role, &user.Picture, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// PostgresUploadRepository provides PostgreSQL-backed persistence for uploads.
type PostgresUploadRepository struct {
	pool db.Pool
}

// NewPostgresUploadRepository constructs an upload repository backed by PostgreSQL.
func NewPostgresUploadRepository(pool db.Pool) *PostgresUploadRepository {
	return &PostgresUploadRepository{pool: pool}
}

const uploadColumns = `upload_id, user_id, file_name, file_type, file_path, file_size, detection_result, confidence_score, created_at, flagged`

// Create stores a new upload record.
func (r *PostgresUploadRepository) Create(ctx context.Context, upload models.Upload) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO uploads (`+uploadColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, upload.ID, upload.UserID, upload.FileName, upload.FileType, upload.FilePath,
		upload.FileSize, upload.Result, upload.Confidence, upload.CreatedAt, upload.Flagged)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert upload: %w", err)
	}

	return nil
}

// ListForOwner returns the owner's uploads in reverse chronological order.
func (r *PostgresUploadRepository) ListForOwner(ctx context.Context, ownerID string, skip, limit int) ([]models.Upload, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+uploadColumns+`
        FROM uploads
        WHERE user_id = $1
        ORDER BY created_at DESC
        OFFSET $2 LIMIT $3
    `, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	return collectUploads(rows)
}

// FindForOwner fetches a single upload only when it belongs to the owner.
// Uploads owned by other users are indistinguishable from absent ones.
func (r *PostgresUploadRepository) FindForOwner(ctx context.Context, id, ownerID string) (models.Upload, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Upload{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+uploadColumns+`
        FROM uploads
        WHERE upload_id = $1 AND user_id = $2
    `, id, ownerID)

	return scanUpload(row)
}

// Find fetches a single upload regardless of owner.
func (r *PostgresUploadRepository) Find(ctx context.Context, id string) (models.Upload, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Upload{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+uploadColumns+`
        FROM uploads
        WHERE upload_id = $1
    `, id)

	return scanUpload(row)
}

// List returns uploads across all owners matching the filter, newest first.
func (r *PostgresUploadRepository) List(ctx context.Context, filter UploadFilter, skip, limit int) ([]models.Upload, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var conds []string
	args := []any{}
	if filter.Result != "" {
		args = append(args, filter.Result)
		conds = append(conds, fmt.Sprintf("detection_result = $%d", len(args)))
	}
	if filter.FlaggedOnly {
		conds = append(conds, "flagged")
	}

	query := `SELECT ` + uploadColumns + ` FROM uploads`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, skip)
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d`, len(args))
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	return collectUploads(rows)
}

// SetFlag sets or clears the moderation flag on an upload.
func (r *PostgresUploadRepository) SetFlag(ctx context.Context, id string, flagged bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE uploads
        SET flagged = $2
        WHERE upload_id = $1
    `, id, flagged)
	if err != nil {
		return fmt.Errorf("update upload flag: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an upload record.
func (r *PostgresUploadRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM uploads
        WHERE upload_id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the total number of uploads.
func (r *PostgresUploadRepository) Count(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, "", nil)
}

// CountByResult returns how many uploads carry the provided detection label.
func (r *PostgresUploadRepository) CountByResult(ctx context.Context, result string) (int64, error) {
	return r.countWhere(ctx, "WHERE detection_result = $1", []any{result})
}

// CountFlagged returns how many uploads are flagged for moderation.
func (r *PostgresUploadRepository) CountFlagged(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, "WHERE flagged", nil)
}

func (r *PostgresUploadRepository) countWhere(ctx context.Context, where string, args []any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM uploads `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count uploads: %w", err)
	}
	return count, nil
}

func scanUpload(row pgx.Row) (models.Upload, error) {
	var upload models.Upload
	if err := row.Scan(&upload.ID, &upload.UserID, &upload.FileName, &upload.FileType, &upload.FilePath,
		&upload.FileSize, &upload.Result, &upload.Confidence, &upload.CreatedAt, &upload.Flagged); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Upload{}, ErrNotFound
		}
		return models.Upload{}, fmt.Errorf("scan upload: %w", err)
	}
	upload.CreatedAt = upload.CreatedAt.UTC()
	return upload, nil
}

func collectUploads(rows pgx.Rows) ([]models.Upload, error) {
	var uploads []models.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}

	return uploads, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ UploadRepository = (*PostgresUploadRepository)(nil)

package models

import "time"

// Roles assigned to user accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Detection labels recorded on analyzed uploads.
const (
	DetectionReal        = "real"
	DetectionFake        = "fake"
	DetectionAIGenerated = "ai_generated"
	DetectionUnknown     = "unknown"
	DetectionError       = "error"
)

// User represents an account within the MediaLens platform.
type User struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Picture      string    `json:"picture,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Upload records one analyzed media item and its classification.
type Upload struct {
	ID         string    `json:"upload_id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	Result     string    `json:"detection_result"`
	Confidence float64   `json:"confidence_score"`
	CreatedAt  time.Time `json:"created_at"`
	Flagged    bool      `json:"flagged"`
}

// Stats aggregates platform-wide counters for the admin dashboard. The counts
// come from independent queries, so the snapshot is not atomic.
type Stats struct {
	TotalUploads     int64 `json:"total_uploads"`
	TotalUsers       int64 `json:"total_users"`
	RealCount        int64 `json:"real_count"`
	FakeCount        int64 `json:"fake_count"`
	AIGeneratedCount int64 `json:"ai_generated_count"`
	FlaggedCount     int64 `json:"flagged_count"`
}

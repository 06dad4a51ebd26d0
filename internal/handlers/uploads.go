package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/medialens/backend/internal/logging"
	"github.com/medialens/backend/internal/models"
	"github.com/medialens/backend/internal/repositories"
	"github.com/medialens/backend/internal/storage"
)

// allowedUploadTypes is the closed set of declared MIME types accepted for
// analysis. Byte content is never sniffed; the declared type decides.
var allowedUploadTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/jpg":       {},
	"audio/mpeg":      {},
	"audio/wav":       {},
	"audio/mp3":       {},
	"video/mp4":       {},
	"video/avi":       {},
	"video/quicktime": {},
}

// UploadHandler implements the upload, listing and deletion endpoints for
// user-owned media.
type UploadHandler struct {
	Identity
	Uploads  UploadStore
	Files    storage.FileStore
	Analyzer MediaAnalyzer
	MaxBytes int64
	NowFunc  func() time.Time
}

// Create handles POST /api/upload multipart requests. The file is persisted
// first and analyzed afterwards; the two steps are not transactional.
func (h UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("upload missing file part", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.MaxBytes {
		respondError(ctx, w, http.StatusBadRequest, "File too large (max 100MB)")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedUploadTypes[contentType]; !ok {
		respondError(ctx, w, http.StatusBadRequest, "File type not supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("upload read failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to read file")
		return
	}

	id := newID("upload")
	storedName := id + filepath.Ext(header.Filename)

	location, err := h.Files.Save(ctx, storedName, bytes.NewReader(data))
	if err != nil {
		logger.Error("upload store failed", "error", err, "uploadId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store file")
		return
	}

	spanCtx, span := logging.StartSpan(ctx, "analyze_upload")
	finding := h.Analyzer.Analyze(data, contentType)
	span.End()
	ctx = spanCtx

	upload := models.Upload{
		ID:         id,
		UserID:     user.ID,
		FileName:   header.Filename,
		FileType:   contentType,
		FilePath:   location,
		FileSize:   header.Size,
		Result:     finding.Label,
		Confidence: finding.Confidence,
		CreatedAt:  h.now(),
		Flagged:    false,
	}

	if err := h.Uploads.Create(ctx, upload); err != nil {
		logger.Error("upload record insert failed", "error", err, "uploadId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to record upload")
		return
	}

	respondJSON(ctx, w, http.StatusOK, upload)
}

// List handles GET /api/uploads requests, returning the caller's uploads
// newest first.
func (h UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	skip, limit := pagination(r, 50)
	uploads, err := h.Uploads.ListForOwner(ctx, user.ID, skip, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list uploads failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	if uploads == nil {
		uploads = []models.Upload{}
	}
	respondJSON(ctx, w, http.StatusOK, uploads)
}

// Get handles GET /api/uploads/{id} requests. Uploads owned by other users
// are reported as absent, not forbidden.
func (h UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	upload, err := h.Uploads.FindForOwner(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Upload not found")
			return
		}
		logging.FromContext(ctx).Error("get upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load upload")
		return
	}

	respondJSON(ctx, w, http.StatusOK, upload)
}

// Delete handles DELETE /api/uploads/{id} requests. The backing file is
// removed before the document; the two deletes are not atomic.
func (h UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	upload, err := h.Uploads.FindForOwner(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Upload not found")
			return
		}
		logger.Error("delete upload lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load upload")
		return
	}

	if err := removeUploadFile(ctx, h.Files, upload); err != nil {
		logger.Error("delete upload file failed", "error", err, "uploadId", upload.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete file")
		return
	}

	if err := h.Uploads.Delete(ctx, upload.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("delete upload record failed", "error", err, "uploadId", upload.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete upload")
		return
	}

	respondMessage(ctx, w, "Upload deleted")
}

// removeUploadFile deletes the stored media behind an upload. Stores key files
// by their flat stored name, so the base of the recorded location is the key.
// Missing files are tolerated.
func removeUploadFile(ctx context.Context, files storage.FileStore, upload models.Upload) error {
	name := path.Base(upload.FilePath)
	return files.Remove(ctx, name)
}

// pagination parses skip/limit query parameters, clamping negatives and
// falling back to the provided default limit.
func pagination(r *http.Request, defaultLimit int) (int, int) {
	skip := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v > 0 {
		skip = v
	}
	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return skip, limit
}

func (h UploadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

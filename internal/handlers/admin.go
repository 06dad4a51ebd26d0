package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/medialens/backend/internal/logging"
	"github.com/medialens/backend/internal/models"
	"github.com/medialens/backend/internal/repositories"
	"github.com/medialens/backend/internal/storage"
)

// AdminHandler implements the moderation endpoints. Every operation requires
// the admin role and acts across all owners.
type AdminHandler struct {
	Identity
	Uploads UploadStore
	Files   storage.FileStore
}

// List handles GET /api/admin/uploads requests with optional result and
// flagged filters.
func (h AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	filter := repositories.UploadFilter{
		Result: r.URL.Query().Get("result_filter"),
	}
	if v, err := strconv.ParseBool(r.URL.Query().Get("flagged_only")); err == nil {
		filter.FlaggedOnly = v
	}

	skip, limit := pagination(r, 100)
	uploads, err := h.Uploads.List(ctx, filter, skip, limit)
	if err != nil {
		logging.FromContext(ctx).Error("admin list uploads failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	if uploads == nil {
		uploads = []models.Upload{}
	}
	respondJSON(ctx, w, http.StatusOK, uploads)
}

// Flag handles PATCH /api/admin/uploads/{id}/flag requests, setting or
// clearing the moderation marker.
func (h AdminHandler) Flag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	flagged, err := strconv.ParseBool(r.URL.Query().Get("flagged"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "flagged must be true or false")
		return
	}

	if err := h.Uploads.SetFlag(ctx, r.PathValue("id"), flagged); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Upload not found")
			return
		}
		logging.FromContext(ctx).Error("admin flag upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update upload")
		return
	}

	respondMessage(ctx, w, "Upload updated")
}

// Delete handles DELETE /api/admin/uploads/{id} requests. Unlike the
// user-scoped delete there is no ownership check.
func (h AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	upload, err := h.Uploads.Find(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Upload not found")
			return
		}
		logger.Error("admin delete lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load upload")
		return
	}

	if err := removeUploadFile(ctx, h.Files, upload); err != nil {
		logger.Error("admin delete file failed", "error", err, "uploadId", upload.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete file")
		return
	}

	if err := h.Uploads.Delete(ctx, upload.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("admin delete record failed", "error", err, "uploadId", upload.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete upload")
		return
	}

	respondMessage(ctx, w, "Upload deleted")
}

// Stats handles GET /api/admin/stats requests. The counters come from
// independent queries and may not describe a single instant.
func (h AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	var (
		stats models.Stats
		err   error
	)

	stats.TotalUploads, err = h.Uploads.Count(ctx)
	if err == nil {
		stats.TotalUsers, err = h.Users.Count(ctx)
	}
	if err == nil {
		stats.RealCount, err = h.Uploads.CountByResult(ctx, models.DetectionReal)
	}
	if err == nil {
		stats.FakeCount, err = h.Uploads.CountByResult(ctx, models.DetectionFake)
	}
	if err == nil {
		stats.AIGeneratedCount, err = h.Uploads.CountByResult(ctx, models.DetectionAIGenerated)
	}
	if err == nil {
		stats.FlaggedCount, err = h.Uploads.CountFlagged(ctx)
	}
	if err != nil {
		logger.Error("admin stats failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

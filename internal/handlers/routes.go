package handlers

import (
	"net/http"

	"github.com/medialens/backend/internal/storage"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	identity := Identity{Users: deps.Users, Sessions: deps.Sessions}

	health := HealthHandler{}
	auth := AuthHandler{Identity: identity, Federation: deps.Federation, Limiter: deps.AuthLimiter}
	uploads := UploadHandler{
		Identity: identity,
		Uploads:  deps.Uploads,
		Files:    deps.Files,
		Analyzer: deps.Analyzer,
		MaxBytes: deps.MaxUploadBytes,
	}
	admin := AdminHandler{Identity: identity, Uploads: deps.Uploads, Files: deps.Files}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/auth/register", auth.Register)
	mux.HandleFunc("POST /api/auth/login", auth.Login)
	mux.HandleFunc("GET /api/auth/session", auth.FederatedSession)
	mux.HandleFunc("GET /api/auth/me", auth.Me)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	mux.HandleFunc("POST /api/upload", uploads.Create)
	mux.HandleFunc("GET /api/uploads", uploads.List)
	mux.HandleFunc("GET /api/uploads/{id}", uploads.Get)
	mux.HandleFunc("DELETE /api/uploads/{id}", uploads.Delete)

	mux.HandleFunc("GET /api/admin/uploads", admin.List)
	mux.HandleFunc("PATCH /api/admin/uploads/{id}/flag", admin.Flag)
	mux.HandleFunc("DELETE /api/admin/uploads/{id}", admin.Delete)
	mux.HandleFunc("GET /api/admin/stats", admin.Stats)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Uploads        UploadStore
	Files          storage.FileStore
	Analyzer       MediaAnalyzer
	Federation     SessionExchanger
	AuthLimiter    RateLimiter
	MaxUploadBytes int64
}

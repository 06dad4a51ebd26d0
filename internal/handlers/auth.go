package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/medialens/backend/internal/auth"
	"github.com/medialens/backend/internal/logging"
	"github.com/medialens/backend/internal/models"
	"github.com/medialens/backend/internal/repositories"
)

// AuthHandler implements registration, login, federated login and session
// introspection endpoints.
type AuthHandler struct {
	Identity
	Federation SessionExchanger
	Limiter    RateLimiter
	NowFunc    func() time.Time
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register requests.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "email, password and name are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("register invalid email", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	// Check-then-insert; the unique index on email backstops the race between
	// two concurrent registrations.
	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		respondError(ctx, w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("register user lookup failed", "error", err, "email", req.Email)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	user := models.User{
		ID:           newID("user"),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		CreatedAt:    h.now(),
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusBadRequest, "Email already registered")
			return
		}
		logger.Error("register failed to create user", "error", err, "email", req.Email)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	session, err := h.Sessions.Create(ctx, user.ID)
	if err != nil {
		logger.Error("register failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookie(w, session.Token, session.ExpiresAt)
	respondMessage(ctx, w, "Registration successful")
}

// Login handles POST /api/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("login rejected", "email", req.Email)
		respondError(ctx, w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	session, err := h.Sessions.Create(ctx, user.ID)
	if err != nil {
		logger.Error("login failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookie(w, session.Token, session.ExpiresAt)
	respondMessage(ctx, w, "Login successful")
}

// FederatedSession handles GET /api/auth/session requests. It exchanges an
// upstream session id for a verified identity, provisions or refreshes the
// local account and binds the upstream-issued token as a local session.
func (h AuthHandler) FederatedSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(ctx, w, http.StatusBadRequest, "session_id required")
		return
	}

	if h.Federation == nil {
		logger.Error("federated login requested but no exchanger configured")
		respondError(ctx, w, http.StatusUnauthorized, "Invalid session")
		return
	}

	identity, err := h.Federation.ExchangeSession(ctx, sessionID)
	if err != nil {
		logger.Warn("federated session exchange failed", "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "Invalid session")
		return
	}

	var userID string
	existing, err := h.Users.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		userID = existing.ID
		if err := h.Users.UpdateProfile(ctx, userID, identity.Name, identity.Picture); err != nil {
			logger.Error("federated profile refresh failed", "error", err, "userId", userID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to update account")
			return
		}
	case errors.Is(err, repositories.ErrNotFound):
		user := models.User{
			ID:        newID("user"),
			Email:     identity.Email,
			Name:      identity.Name,
			Role:      models.RoleUser,
			Picture:   identity.Picture,
			CreatedAt: h.now(),
		}
		if err := h.Users.Create(ctx, user); err != nil {
			logger.Error("federated account creation failed", "error", err, "email", identity.Email)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
			return
		}
		userID = user.ID
	default:
		logger.Error("federated user lookup failed", "error", err, "email", identity.Email)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	session, err := h.Sessions.CreateWithToken(ctx, userID, identity.SessionToken)
	if err != nil {
		logger.Error("federated session bind failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Error("federated user reload failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load account")
		return
	}

	setSessionCookie(w, session.Token, session.ExpiresAt)
	respondJSON(ctx, w, http.StatusOK, user)
}

// Me handles GET /api/auth/me requests.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout requests. Logging out without a
// session still succeeds.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		h.Sessions.Revoke(ctx, cookie.Value)
	}

	clearSessionCookie(w)
	respondMessage(ctx, w, "Logged out")
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

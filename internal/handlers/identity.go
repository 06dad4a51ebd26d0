package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medialens/backend/internal/logging"
	"github.com/medialens/backend/internal/models"
)

const sessionCookieName = "session_token"

// Identity resolves the authenticated user behind a request and enforces
// role preconditions. Handlers embed it.
type Identity struct {
	Users    UserStore
	Sessions SessionManager
}

// currentUser maps the request's credential to a user. It returns false when
// the token is missing, the session is invalid or expired, or the user record
// has vanished.
func (i Identity) currentUser(r *http.Request) (models.User, bool) {
	token := sessionTokenFromRequest(r)
	if token == "" {
		return models.User{}, false
	}

	ctx := r.Context()
	userID, err := i.Sessions.Resolve(ctx, token)
	if err != nil {
		return models.User{}, false
	}

	user, err := i.Users.FindByID(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Warn("session resolved but user record missing", "userId", userID)
		return models.User{}, false
	}

	return user, true
}

// requireUser writes 401 and returns false when the request is unauthenticated.
func (i Identity) requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := i.currentUser(r)
	if !ok {
		respondError(r.Context(), w, http.StatusUnauthorized, "Unauthorized")
		return models.User{}, false
	}
	return user, true
}

// requireAdmin writes 401 for unauthenticated callers and 403 for
// authenticated callers without the admin role.
func (i Identity) requireAdmin(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := i.requireUser(w, r)
	if !ok {
		return models.User{}, false
	}
	if user.Role != models.RoleAdmin {
		respondError(r.Context(), w, http.StatusForbidden, "Admin access required")
		return models.User{}, false
	}
	return user, true
}

// sessionTokenFromRequest extracts the session token, preferring the cookie
// over the Authorization header when both are present.
func sessionTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// setSessionCookie installs the session token as a cross-site, http-only
// cookie living until the session expires.
func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// newID builds an application-level id like "user_1f4c09aa23b7".
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/medialens/backend/internal/auth"
	"github.com/medialens/backend/internal/detect"
	"github.com/medialens/backend/internal/federation"
	"github.com/medialens/backend/internal/models"
	"github.com/medialens/backend/internal/repositories"
	"github.com/medialens/backend/internal/storage"
)

const testMaxUploadBytes = 1 << 20

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, id, name, picture string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Name = name
	user.Picture = picture
	s.users[id] = user
	return nil
}

func (s *memUserStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

type memUploadStore struct {
	mu      sync.Mutex
	uploads map[string]models.Upload
}

func newMemUploadStore() *memUploadStore {
	return &memUploadStore{uploads: make(map[string]models.Upload)}
}

func (s *memUploadStore) Create(_ context.Context, upload models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[upload.ID]; ok {
		return repositories.ErrConflict
	}
	s.uploads[upload.ID] = upload
	return nil
}

func (s *memUploadStore) snapshot(keep func(models.Upload) bool) []models.Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Upload, 0, len(s.uploads))
	for _, upload := range s.uploads {
		if keep(upload) {
			out = append(out, upload)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(uploads []models.Upload, skip, limit int) []models.Upload {
	if skip >= len(uploads) {
		return nil
	}
	uploads = uploads[skip:]
	if limit < len(uploads) {
		uploads = uploads[:limit]
	}
	return uploads
}

func (s *memUploadStore) ListForOwner(_ context.Context, ownerID string, skip, limit int) ([]models.Upload, error) {
	return page(s.snapshot(func(u models.Upload) bool { return u.UserID == ownerID }), skip, limit), nil
}

func (s *memUploadStore) FindForOwner(_ context.Context, id, ownerID string) (models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok || upload.UserID != ownerID {
		return models.Upload{}, repositories.ErrNotFound
	}
	return upload, nil
}

func (s *memUploadStore) Find(_ context.Context, id string) (models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok {
		return models.Upload{}, repositories.ErrNotFound
	}
	return upload, nil
}

func (s *memUploadStore) List(_ context.Context, filter repositories.UploadFilter, skip, limit int) ([]models.Upload, error) {
	return page(s.snapshot(func(u models.Upload) bool {
		if filter.Result != "" && u.Result != filter.Result {
			return false
		}
		if filter.FlaggedOnly && !u.Flagged {
			return false
		}
		return true
	}), skip, limit), nil
}

func (s *memUploadStore) SetFlag(_ context.Context, id string, flagged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	upload, ok := s.uploads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	upload.Flagged = flagged
	s.uploads[id] = upload
	return nil
}

func (s *memUploadStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.uploads, id)
	return nil
}

func (s *memUploadStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.uploads)), nil
}

func (s *memUploadStore) CountByResult(_ context.Context, result string) (int64, error) {
	return int64(len(s.snapshot(func(u models.Upload) bool { return u.Result == result }))), nil
}

func (s *memUploadStore) CountFlagged(_ context.Context) (int64, error) {
	return int64(len(s.snapshot(func(u models.Upload) bool { return u.Flagged }))), nil
}

// fakeExchanger returns a canned identity or error for federated login tests.
type fakeExchanger struct {
	identity federation.Identity
	err      error

	lastSessionID string
}

func (f *fakeExchanger) ExchangeSession(_ context.Context, sessionID string) (federation.Identity, error) {
	f.lastSessionID = sessionID
	if f.err != nil {
		return federation.Identity{}, f.err
	}
	return f.identity, nil
}

type testEnv struct {
	mux      *http.ServeMux
	users    *memUserStore
	uploads  *memUploadStore
	manager  *auth.Manager
	store    *auth.InMemorySessionStore
	files    *storage.DirStorage
	exchange *fakeExchanger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	files, err := storage.NewDirStorage(t.TempDir())
	if err != nil {
		t.Fatalf("dir storage: %v", err)
	}

	env := &testEnv{
		mux:      http.NewServeMux(),
		users:    newMemUserStore(),
		uploads:  newMemUploadStore(),
		store:    auth.NewInMemorySessionStore(),
		files:    files,
		exchange: &fakeExchanger{},
	}
	env.manager = auth.NewManager(time.Hour, env.store)

	RegisterRoutes(env.mux, Dependencies{
		Users:          env.users,
		Sessions:       env.manager,
		Uploads:        env.uploads,
		Files:          env.files,
		Analyzer:       detect.NewAnalyzer(rand.NewSource(1)),
		Federation:     env.exchange,
		MaxUploadBytes: testMaxUploadBytes,
	})
	return env
}

// seedUser inserts a user directly and returns it with a live session token.
func (env *testEnv) seedUser(t *testing.T, email, role string) (models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:           newID("user"),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	session, err := env.manager.Create(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return user, session.Token
}

func (env *testEnv) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) doJSON(t *testing.T, method, target, token, payload string) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, method, target, token, bytes.NewBufferString(payload), "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// multipartUpload builds a multipart body with a single file part carrying an
// explicit Content-Type.
func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write multipart part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieName)
	return nil
}

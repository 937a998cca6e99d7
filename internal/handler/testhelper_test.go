package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postboard/internal/auth"
	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/post"
	"github.com/hitoshi/postboard/internal/view"
)

// --- セッション ---

// memSessionStore はメモリ上でセッションを保持するSessionStore。
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	seq      int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*model.Session)}
}

func cloneData(d model.SessionData) model.SessionData {
	out := model.SessionData{ReturnTo: d.ReturnTo}
	for kind, msgs := range d.Flashes {
		for _, m := range msgs {
			out.AddFlash(kind, m)
		}
	}
	return out
}

func (m *memSessionStore) Restore(_ context.Context, id string) (*model.Session, *model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil, nil
	}
	out := *s
	out.Data = cloneData(s.Data)
	return &out, nil, nil
}

func (m *memSessionStore) StartSession(_ context.Context, userID string, data model.SessionData) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s := &model.Session{
		ID:        fmt.Sprintf("s%d", m.seq),
		UserID:    userID,
		Data:      cloneData(data),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	stored := *s
	stored.Data = cloneData(data)
	m.sessions[s.ID] = &stored
	return s, nil
}

func (m *memSessionStore) SaveSessionData(_ context.Context, id string, data model.SessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	s.Data = cloneData(data)
	return nil
}

func (m *memSessionStore) DestroySession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// put は既存セッションを登録する。
func (m *memSessionStore) put(s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	stored.Data = cloneData(s.Data)
	m.sessions[s.ID] = &stored
}

func (m *memSessionStore) get(id string) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	out := *s
	out.Data = cloneData(s.Data)
	return &out
}

// latest は最後に発行されたセッションを返す。
func (m *memSessionStore) latest() *model.Session {
	m.mu.Lock()
	id := fmt.Sprintf("s%d", m.seq)
	m.mu.Unlock()
	return m.get(id)
}

type fakeCodec struct{}

func (fakeCodec) Sign(id string, _ time.Time) (string, error) { return "tok." + id, nil }

func (fakeCodec) Parse(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "tok.")
	if !ok || id == "" {
		return "", errors.New("invalid token")
	}
	return id, nil
}

// --- モック定義 ---

type mockAuthService struct {
	registerFn     func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	authenticateFn func(ctx context.Context, username, password string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, password)
	}
	return nil, nil
}

type mockPostService struct {
	listFn         func(ctx context.Context) ([]post.Summary, error)
	getFn          func(ctx context.Context, id string) (*model.Post, error)
	showFn         func(ctx context.Context, id string) (*model.PostDetail, error)
	createFn       func(ctx context.Context, authorID string, in post.Input) (*model.Post, error)
	updateFn       func(ctx context.Context, id string, in post.Input) (*model.Post, error)
	deleteFn       func(ctx context.Context, id string) error
	addReviewFn    func(ctx context.Context, postID, authorID string, in post.ReviewInput) (*model.Review, error)
	deleteReviewFn func(ctx context.Context, postID, reviewID string) error
	findAuthorIDFn func(ctx context.Context, id string) (string, error)
}

func (m *mockPostService) List(ctx context.Context) ([]post.Summary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPostService) Get(ctx context.Context, id string) (*model.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewPostNotFoundError(id)
}

func (m *mockPostService) Show(ctx context.Context, id string) (*model.PostDetail, error) {
	if m.showFn != nil {
		return m.showFn(ctx, id)
	}
	return nil, model.NewPostNotFoundError(id)
}

func (m *mockPostService) Create(ctx context.Context, authorID string, in post.Input) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, in)
	}
	return &model.Post{}, nil
}

func (m *mockPostService) Update(ctx context.Context, id string, in post.Input) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Post{ID: id}, nil
}

func (m *mockPostService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPostService) AddReview(ctx context.Context, postID, authorID string, in post.ReviewInput) (*model.Review, error) {
	if m.addReviewFn != nil {
		return m.addReviewFn(ctx, postID, authorID, in)
	}
	return &model.Review{}, nil
}

func (m *mockPostService) DeleteReview(ctx context.Context, postID, reviewID string) error {
	if m.deleteReviewFn != nil {
		return m.deleteReviewFn(ctx, postID, reviewID)
	}
	return nil
}

func (m *mockPostService) FindAuthorID(ctx context.Context, id string) (string, error) {
	if m.findAuthorIDFn != nil {
		return m.findAuthorIDFn(ctx, id)
	}
	return "", model.NewPostNotFoundError(id)
}

var (
	_ AuthServiceInterface = (*mockAuthService)(nil)
	_ PostServiceAll       = (*mockPostService)(nil)
)

// --- リクエストヘルパー ---

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	rd, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("view.NewRenderer() error = %v", err)
	}
	return rd
}

// sessionRequest はセッション付きのリクエストを作る。formがnilでなければURLエンコードされたボディを付ける。
// セッションIDは"current"で、storeに登録済みの状態になる。
func sessionRequest(store *memSessionStore, user *model.User, method, target string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	session := &model.Session{ID: "current", ExpiresAt: time.Now().Add(time.Hour)}
	if user != nil {
		session.UserID = user.ID
	}
	store.put(session)

	s := middleware.NewSession(store, fakeCodec{}, middleware.SessionConfig{MaxAge: 3600}, session, user)
	return req.WithContext(middleware.ContextWithSession(req.Context(), s))
}

func sessionFrom(req *http.Request) *middleware.Session {
	return middleware.SessionFromContext(req.Context())
}

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusFound, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func assertFlash(t *testing.T, data model.SessionData, kind, want string) {
	t.Helper()
	for _, m := range data.Flashes[kind] {
		if m == want {
			return
		}
	}
	t.Errorf("flash %s %q not found in %v", kind, want, data.Flashes)
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/postboard/internal/model"
)

// fakeSessionStore はメモリ上でセッションを保持するSessionStore。
type fakeSessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*model.Session
	users      map[string]*model.User
	seq        int
	restoreErr error
	startErr   error
	destroyed  []string
}

func newFakeSessionStore(users ...*model.User) *fakeSessionStore {
	s := &fakeSessionStore{
		sessions: make(map[string]*model.Session),
		users:    make(map[string]*model.User),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func copyData(d model.SessionData) model.SessionData {
	out := model.SessionData{ReturnTo: d.ReturnTo}
	for kind, msgs := range d.Flashes {
		for _, m := range msgs {
			out.AddFlash(kind, m)
		}
	}
	return out
}

func (f *fakeSessionStore) Restore(_ context.Context, id string) (*model.Session, *model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restoreErr != nil {
		return nil, nil, f.restoreErr
	}
	stored, ok := f.sessions[id]
	if !ok {
		return nil, nil, nil
	}
	session := *stored
	session.Data = copyData(stored.Data)
	if session.UserID == "" {
		return &session, nil, nil
	}
	return &session, f.users[session.UserID], nil
}

func (f *fakeSessionStore) StartSession(_ context.Context, userID string, data model.SessionData) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.seq++
	session := &model.Session{
		ID:        fmt.Sprintf("s%d", f.seq),
		UserID:    userID,
		Data:      copyData(data),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	stored := *session
	stored.Data = copyData(data)
	f.sessions[session.ID] = &stored
	return session, nil
}

func (f *fakeSessionStore) SaveSessionData(_ context.Context, id string, data model.SessionData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[id]
	if !ok {
		return errors.New("session not found")
	}
	stored.Data = copyData(data)
	return nil
}

func (f *fakeSessionStore) DestroySession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	f.destroyed = append(f.destroyed, id)
	return nil
}

func (f *fakeSessionStore) data(id string) model.SessionData {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		return copyData(s.Data)
	}
	return model.SessionData{}
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// fakeCodec は署名の代わりに接頭辞を付けるだけのSessionTokenCodec。
type fakeCodec struct{}

func (fakeCodec) Sign(id string, _ time.Time) (string, error) { return "tok." + id, nil }

func (fakeCodec) Parse(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "tok.")
	if !ok || id == "" {
		return "", errors.New("invalid token")
	}
	return id, nil
}

// fakeRenderer は描画されたエラーページを記録するErrorPageRenderer。
type fakeRenderer struct {
	status  int
	message string
}

func (f *fakeRenderer) RenderError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	f.status, f.message = status, message
	w.WriteHeader(status)
	w.Write([]byte(message))
}

var (
	_ SessionStore      = (*fakeSessionStore)(nil)
	_ SessionTokenCodec = fakeCodec{}
	_ ErrorPageRenderer = (*fakeRenderer)(nil)
)

func testSessionConfig() SessionConfig {
	return SessionConfig{MaxAge: 3600}
}

// sessionCookie はレスポンスが設定したセッションCookieを返す。
func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

// withSession は既存のセッションをCookieに載せたリクエストを作る。
func withSession(req *http.Request, sessionID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tok." + sessionID})
	return req
}

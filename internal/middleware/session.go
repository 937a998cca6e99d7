// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/postboard/internal/model"
)

const sessionCookieName = "session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var sessionContextKey = contextKey("session")

// SessionStore はセッションの永続化に必要な操作を定義する。
// auth.Serviceが実装する。
type SessionStore interface {
	Restore(ctx context.Context, sessionID string) (*model.Session, *model.User, error)
	StartSession(ctx context.Context, userID string, data model.SessionData) (*model.Session, error)
	SaveSessionData(ctx context.Context, sessionID string, data model.SessionData) error
	DestroySession(ctx context.Context, sessionID string) error
}

// SessionTokenCodec はセッションIDとCookie値を相互変換する。
// auth.TokenSignerが実装する。
type SessionTokenCodec interface {
	Sign(sessionID string, expiresAt time.Time) (string, error)
	Parse(token string) (string, error)
}

// SessionConfig はセッションCookieの設定。
type SessionConfig struct {
	CookieSecure bool
	CookieDomain string
	MaxAge       int // 秒
}

// Session はリクエスト中のセッションを操作するハンドル。
// フラッシュやreturnToの変更は即座に永続化され、リダイレクト後の次のリクエストで読み出せる。
type Session struct {
	store   SessionStore
	codec   SessionTokenCodec
	config  SessionConfig
	session *model.Session
	user    *model.User
	info    *requestInfo
}

// NewSessionMiddleware はCookieのトークンからセッションとユーザーを復元し、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない、署名が不正、期限切れのいずれの場合も新しい匿名セッションを発行する。
func NewSessionMiddleware(store SessionStore, codec SessionTokenCodec, config SessionConfig, renderer ErrorPageRenderer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s := &Session{
				store:  store,
				codec:  codec,
				config: config,
				info:   requestInfoFromContext(ctx),
			}

			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				if id, err := codec.Parse(cookie.Value); err == nil {
					session, user, err := store.Restore(ctx, id)
					if err != nil {
						slog.Error("failed to restore session",
							slog.String("error", err.Error()),
						)
						writeError(renderer, w, r, http.StatusInternalServerError, MessageInternalError)
						return
					}
					s.session, s.user = session, user
				}
			}

			if s.session == nil {
				if err := s.start(ctx, w, "", model.SessionData{}); err != nil {
					slog.Error("failed to start session",
						slog.String("error", err.Error()),
					)
					writeError(renderer, w, r, http.StatusInternalServerError, MessageInternalError)
					return
				}
			}

			s.annotate()
			next.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, s)))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過していない場合はnilを返す。
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey).(*Session)
	return s
}

// ContextWithSession はコンテキストにセッションを注入する。
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// UserFromContext はログイン中のユーザーを返す。匿名の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	return SessionFromContext(ctx).User()
}

// UserIDFromContext はログイン中のユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return "", fmt.Errorf("user ID not found in context")
	}
	return user.ID, nil
}

// User はログイン中のユーザーを返す。匿名の場合はnilを返す。
func (s *Session) User() *model.User {
	if s == nil {
		return nil
	}
	return s.user
}

// ID はセッションIDを返す。
func (s *Session) ID() string {
	if s == nil || s.session == nil {
		return ""
	}
	return s.session.ID
}

// AddFlash は次に描画される画面で表示するメッセージを追加する。
func (s *Session) AddFlash(ctx context.Context, kind, message string) error {
	s.session.Data.AddFlash(kind, message)
	return s.save(ctx)
}

// PopFlashes は未表示のフラッシュメッセージを取り出して消去する。
func (s *Session) PopFlashes(ctx context.Context) (map[string][]string, error) {
	flashes := s.session.Data.Flashes
	if len(flashes) == 0 {
		return nil, nil
	}
	s.session.Data.Flashes = nil
	if err := s.save(ctx); err != nil {
		return nil, err
	}
	return flashes, nil
}

// SetReturnTo はログイン後に戻るパスを記録する。
func (s *Session) SetReturnTo(ctx context.Context, path string) error {
	s.session.Data.ReturnTo = path
	return s.save(ctx)
}

// PopReturnTo はログイン後に戻るパスを取り出して消去する。
func (s *Session) PopReturnTo(ctx context.Context) (string, error) {
	returnTo := s.session.Data.ReturnTo
	if returnTo == "" {
		return "", nil
	}
	s.session.Data.ReturnTo = ""
	if err := s.save(ctx); err != nil {
		return "", err
	}
	return returnTo, nil
}

// LogIn は現在のセッションを破棄し、userに紐付いた新しいセッションを発行する。
// セッション固定攻撃を防ぐためIDは必ず変わる。未表示のフラッシュは引き継ぐ。
func (s *Session) LogIn(ctx context.Context, w http.ResponseWriter, user *model.User) error {
	carry := model.SessionData{Flashes: s.session.Data.Flashes}
	if err := s.rotate(ctx, w, user.ID, carry); err != nil {
		return err
	}
	s.user = user
	s.annotate()
	return nil
}

// LogOut は現在のセッションを破棄し、新しい匿名セッションを発行する。
func (s *Session) LogOut(ctx context.Context, w http.ResponseWriter) error {
	if err := s.rotate(ctx, w, "", model.SessionData{}); err != nil {
		return err
	}
	s.user = nil
	s.annotate()
	return nil
}

func (s *Session) rotate(ctx context.Context, w http.ResponseWriter, userID string, data model.SessionData) error {
	if old := s.ID(); old != "" {
		if err := s.store.DestroySession(ctx, old); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}
	return s.start(ctx, w, userID, data)
}

// start はセッションを作成し、署名済みトークンをCookieに設定する。
func (s *Session) start(ctx context.Context, w http.ResponseWriter, userID string, data model.SessionData) error {
	session, err := s.store.StartSession(ctx, userID, data)
	if err != nil {
		return err
	}

	token, err := s.codec.Sign(session.ID, session.ExpiresAt)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.config.CookieDomain,
		MaxAge:   s.config.MaxAge,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	s.session = session
	return nil
}

func (s *Session) save(ctx context.Context) error {
	if err := s.store.SaveSessionData(ctx, s.session.ID, s.session.Data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// annotate はリクエストログにユーザーIDを反映する。
func (s *Session) annotate() {
	if s.info == nil {
		return
	}
	s.info.userID = ""
	if s.user != nil {
		s.info.userID = s.user.ID
	}
}

// NewSession は既存のセッションからハンドルを生成する。
// 通常はセッションミドルウェアが生成するが、ハンドラー単体のテストでも使う。
func NewSession(store SessionStore, codec SessionTokenCodec, config SessionConfig, session *model.Session, user *model.User) *Session {
	return &Session{store: store, codec: codec, config: config, session: session, user: user}
}

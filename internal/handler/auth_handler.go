package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/postboard/internal/auth"
	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/view"
)

// 認証画面のフラッシュメッセージ
const (
	FlashWelcome     = "Welcome!"
	FlashWelcomeBack = "welcome back!"
	FlashGoodbye     = "Goodbye!"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

// AuthHandler はユーザー登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer Renderer
	metrics  metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer Renderer, collector metrics.MetricsCollector) *AuthHandler {
	if collector == nil {
		collector = metrics.Nop()
	}
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		metrics:  collector,
	}
}

// ShowLogin はログイン画面を表示する。
// GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, view.PageLogin, "Login", nil)
}

// Login はユーザー名とパスワードで認証し、セッションをログイン済みに切り替える。
// ログイン前に記録された戻り先があればそこへ、なければ投稿一覧へリダイレクトする。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := middleware.SessionFromContext(ctx)
	if s == nil {
		h.serverError(w, r, errors.New("session is not available"))
		return
	}

	user, err := h.service.Authenticate(ctx, r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.metrics.RecordLogin(false)
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			flashAndRedirect(w, r, model.FlashError, appErr.Message, "/login")
			return
		}
		h.serverError(w, r, err)
		return
	}

	returnTo, err := s.PopReturnTo(ctx)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if err := s.LogIn(ctx, w, user); err != nil {
		h.serverError(w, r, err)
		return
	}

	h.metrics.RecordLogin(true)
	flashAndRedirect(w, r, model.FlashSuccess, FlashWelcomeBack, safeReturnTo(returnTo))
}

// ShowRegister はユーザー登録画面を表示する。
// GET /register
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, view.PageRegister, "Register", nil)
}

// Register はユーザーを登録し、そのままログイン状態にする。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := middleware.SessionFromContext(ctx)
	if s == nil {
		h.serverError(w, r, errors.New("session is not available"))
		return
	}

	user, err := h.service.Register(ctx, auth.RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.metrics.RecordRegistration(false)
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			flashAndRedirect(w, r, model.FlashError, appErr.Message, "/register")
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := s.LogIn(ctx, w, user); err != nil {
		h.serverError(w, r, err)
		return
	}

	h.metrics.RecordRegistration(true)
	flashAndRedirect(w, r, model.FlashSuccess, FlashWelcome, "/posts")
}

// Logout はセッションを破棄し、新しい匿名セッションでトップページへ戻す。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := middleware.SessionFromContext(ctx)
	if s == nil {
		h.serverError(w, r, errors.New("session is not available"))
		return
	}

	if err := s.LogOut(ctx, w); err != nil {
		h.serverError(w, r, err)
		return
	}

	flashAndRedirect(w, r, model.FlashSuccess, FlashGoodbye, "/")
}

func (h *AuthHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("auth request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.renderer.RenderError(w, r, http.StatusInternalServerError, middleware.MessageInternalError)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/middleware"
)

// PostServiceAll はルーターが必要とする投稿サービスの全操作。
// post.Serviceが実装する。
type PostServiceAll interface {
	PostServiceInterface
	ReviewServiceInterface
	FindAuthorID(ctx context.Context, postID string) (string, error)
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 共通
	Logger   *slog.Logger
	Metrics  metrics.MetricsCollector
	Renderer Renderer
	BaseURL  string

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ミドルウェア依存
	SessionStore  middleware.SessionStore
	SessionCodec  middleware.SessionTokenCodec
	SessionConfig middleware.SessionConfig
	RateLimiter   *middleware.RateLimiter

	// サービス
	AuthService AuthServiceInterface
	PostService PostServiceAll
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → MethodOverride → Logging → Metrics → SecurityHeaders
//	  → Session → CSRF → RateLimit(General)
//
// /health と /metrics はセッションを発行しないようにSession以降のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Renderer))
	r.Use(chimw.RealIP)
	// ルーティング、ログ、メトリクスが書き換え後のメソッドを見るよう先に置く
	r.Use(middleware.NewMethodOverrideMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	notFound := func(w http.ResponseWriter, r *http.Request) {
		deps.Renderer.RenderError(w, r, http.StatusNotFound, middleware.MessageNotFound)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, collector)
	postHandler := NewPostHandler(deps.PostService, deps.Renderer)
	reviewHandler := NewReviewHandler(deps.PostService, deps.Renderer)
	feedHandler := NewFeedHandler(deps.PostService, deps.BaseURL)

	// --- 画面 ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionStore, deps.SessionCodec, deps.SessionConfig, deps.Renderer))
		r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
			CookieSecure: deps.SessionConfig.CookieSecure,
			CookieDomain: deps.SessionConfig.CookieDomain,
			Renderer:     deps.Renderer,
		}))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		requireAuth := middleware.NewRequireAuthenticated(deps.Renderer)
		requireAuthor := middleware.NewRequireAuthor(deps.PostService, deps.Renderer)
		authLimit := deps.RateLimiter.AuthMiddleware()

		r.Get("/", NewHomeHandler(deps.Renderer))

		// 認証
		r.Get("/login", authHandler.ShowLogin)
		r.With(authLimit).Post("/login", authHandler.Login)
		r.Get("/register", authHandler.ShowRegister)
		r.With(authLimit).Post("/register", authHandler.Register)
		r.Get("/logout", authHandler.Logout)

		// 投稿
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.Index)
			r.Get("/page", postHandler.Cards)
			r.Method(http.MethodGet, "/feed.xml", feedHandler)
			r.With(requireAuth).Get("/new", postHandler.New)
			r.With(requireAuth).Post("/", postHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Show)
				r.With(requireAuth, requireAuthor).Get("/edit", postHandler.Edit)
				r.With(requireAuth, requireAuthor).Put("/", postHandler.Update)
				r.With(requireAuth, requireAuthor).Delete("/", postHandler.Delete)

				// レビュー
				r.With(requireAuth).Post("/reviews", reviewHandler.Create)
				r.With(requireAuth, requireAuthor).Delete("/reviews/{reviewId}", reviewHandler.Delete)
			})
		})
	})

	return r
}

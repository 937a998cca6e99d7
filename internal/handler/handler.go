// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/view"
)

// Renderer は画面とエラーページを描画するインターフェース。
// view.Rendererが実装する。
type Renderer interface {
	middleware.ErrorPageRenderer
	Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any)
}

var _ Renderer = (*view.Renderer)(nil)

// NewHomeHandler はトップページのハンドラーを返す。
// GET /
func NewHomeHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderer.Render(w, r, http.StatusOK, view.PageHome, "Home", nil)
	}
}

// flashAndRedirect はフラッシュメッセージを記録してからリダイレクトする。
// フラッシュの保存に失敗してもリダイレクトは行う。
func flashAndRedirect(w http.ResponseWriter, r *http.Request, kind, message, to string) {
	if s := middleware.SessionFromContext(r.Context()); s != nil {
		if err := s.AddFlash(r.Context(), kind, message); err != nil {
			slog.Error("failed to store flash",
				slog.String("error", err.Error()),
			)
		}
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// validationError はエラーが入力検証エラーであればそれを返す。
func validationError(err error) (*model.AppError, bool) {
	var appErr *model.AppError
	if errors.As(err, &appErr) && appErr.Code == model.ErrCodeValidation {
		return appErr, true
	}
	return nil, false
}

// handleServiceError はサービス層のエラーをエラーページに変換する。
// 未検出は404、それ以外は詳細をログに残して500とする。
func handleServiceError(w http.ResponseWriter, r *http.Request, renderer Renderer, err error) {
	if model.IsNotFound(err) {
		renderer.RenderError(w, r, http.StatusNotFound, middleware.MessageNotFound)
		return
	}

	slog.Error("unexpected error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	renderer.RenderError(w, r, http.StatusInternalServerError, middleware.MessageInternalError)
}

// safeReturnTo はログイン後の戻り先として自サイト内のパスのみを許可する。
func safeReturnTo(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return "/posts"
	}
	return path
}

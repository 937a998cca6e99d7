package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postboard/internal/model"
)

// ガードが表示するフラッシュメッセージ
const (
	FlashSignInRequired = "You must be signed in First"
	FlashNoPermission   = "You do not have permission to do that!"
)

// PostAuthorFinder は投稿の投稿者IDを取得するインターフェース。
// 投稿が存在しない場合はPOST_NOT_FOUNDのAppErrorを返す。
type PostAuthorFinder interface {
	FindAuthorID(ctx context.Context, postID string) (string, error)
}

// NewRequireAuthenticated は未ログインのリクエストをログイン画面へ誘導するミドルウェアを返す。
// 元のページをreturnToとして記録し、ログイン後にそこへ戻れるようにする。
func NewRequireAuthenticated(renderer ErrorPageRenderer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFromContext(r.Context())
			if s.User() != nil {
				next.ServeHTTP(w, r)
				return
			}
			if s == nil {
				slog.Error("session middleware is not installed",
					slog.String("path", r.URL.Path),
				)
				writeError(renderer, w, r, http.StatusInternalServerError, MessageInternalError)
				return
			}

			ctx := r.Context()
			if returnTo := returnToFor(r); returnTo != "" {
				if err := s.SetReturnTo(ctx, returnTo); err != nil {
					slog.Error("failed to store returnTo", slog.String("error", err.Error()))
				}
			}
			if err := s.AddFlash(ctx, model.FlashError, FlashSignInRequired); err != nil {
				slog.Error("failed to store flash", slog.String("error", err.Error()))
			}
			http.Redirect(w, r, "/login", http.StatusFound)
		})
	}
}

// NewRequireAuthor は投稿者本人以外のリクエストを投稿詳細へ戻すミドルウェアを返す。
// URLパラメータ {id} の投稿を対象とし、NewRequireAuthenticatedの後に配置する。
// 投稿が存在しない場合は404ページを返す。
func NewRequireAuthor(finder PostAuthorFinder, renderer ErrorPageRenderer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			postID := chi.URLParam(r, "id")

			authorID, err := finder.FindAuthorID(ctx, postID)
			if err != nil {
				if model.IsNotFound(err) {
					writeError(renderer, w, r, http.StatusNotFound, MessageNotFound)
					return
				}
				slog.Error("failed to find post author",
					slog.String("post_id", postID),
					slog.String("error", err.Error()),
				)
				writeError(renderer, w, r, http.StatusInternalServerError, MessageInternalError)
				return
			}

			s := SessionFromContext(ctx)
			if user := s.User(); user != nil && user.ID == authorID {
				next.ServeHTTP(w, r)
				return
			}

			if s != nil {
				if err := s.AddFlash(ctx, model.FlashError, FlashNoPermission); err != nil {
					slog.Error("failed to store flash", slog.String("error", err.Error()))
				}
			}
			http.Redirect(w, r, "/posts/"+url.PathEscape(postID), http.StatusFound)
		})
	}
}

// returnToFor はログイン後に戻る先を決める。
// メソッドによらずリクエストされたURIを記録する。
// PUTやDELETEの対象パスはGETで開ける画面と同じパスになる。
func returnToFor(r *http.Request) string {
	return r.URL.RequestURI()
}

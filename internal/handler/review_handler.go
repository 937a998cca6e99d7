package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/post"
)

// レビュー操作のフラッシュメッセージ
const (
	FlashReviewCreated = "Created new review!"
	FlashReviewDeleted = "Successfully deleted review"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	AddReview(ctx context.Context, postID, authorID string, in post.ReviewInput) (*model.Review, error)
	DeleteReview(ctx context.Context, postID, reviewID string) error
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service  ReviewServiceInterface
	renderer Renderer
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface, renderer Renderer) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		renderer: renderer,
	}
}

// Create は投稿にレビューを追加する。
// POST /posts/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	_, err = h.service.AddReview(r.Context(), postID, userID, post.ReviewInput{
		Body: r.PostFormValue("review[body]"),
	})
	if err != nil {
		if appErr, ok := validationError(err); ok {
			flashAndRedirect(w, r, model.FlashError, appErr.Message, "/posts/"+postID)
			return
		}
		handleServiceError(w, r, h.renderer, err)
		return
	}

	flashAndRedirect(w, r, model.FlashSuccess, FlashReviewCreated, "/posts/"+postID)
}

// Delete は投稿からレビューを取り除いて削除する。
// DELETE /posts/{id}/reviews/{reviewId}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	if err := h.service.DeleteReview(r.Context(), postID, chi.URLParam(r, "reviewId")); err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	flashAndRedirect(w, r, model.FlashSuccess, FlashReviewDeleted, "/posts/"+postID)
}

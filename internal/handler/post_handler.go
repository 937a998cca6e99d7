package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/post"
	"github.com/hitoshi/postboard/internal/view"
)

// 投稿操作のフラッシュメッセージ
const (
	FlashPostCreated = "Successfully made a new post!"
	FlashPostUpdated = "Successfully updated post!"
	FlashPostDeleted = "Successfully deleted post!"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	List(ctx context.Context) ([]post.Summary, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	Show(ctx context.Context, id string) (*model.PostDetail, error)
	Create(ctx context.Context, authorID string, in post.Input) (*model.Post, error)
	Update(ctx context.Context, id string, in post.Input) (*model.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostHandler は投稿のHTTPハンドラー。
type PostHandler struct {
	service  PostServiceInterface
	renderer Renderer
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, renderer Renderer) *PostHandler {
	return &PostHandler{
		service:  service,
		renderer: renderer,
	}
}

// Index は投稿一覧を表示する。
// GET /posts
func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, view.PagePostIndex, "All Posts")
}

// Cards はカード形式の投稿一覧を表示する。
// GET /posts/page
func (h *PostHandler) Cards(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, view.PagePostCards, "Posts")
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request, page, title string) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, page, title, posts)
}

// New は投稿作成フォームを表示する。
// GET /posts/new
func (h *PostHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, view.PagePostNew, "New Post", nil)
}

// Create はログイン中のユーザーを投稿者として投稿を作成する。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	_, err = h.service.Create(r.Context(), userID, postInput(r))
	if err != nil {
		if appErr, ok := validationError(err); ok {
			flashAndRedirect(w, r, model.FlashError, appErr.Message, "/posts/new")
			return
		}
		handleServiceError(w, r, h.renderer, err)
		return
	}

	flashAndRedirect(w, r, model.FlashSuccess, FlashPostCreated, "/posts/page")
}

// Show は閲覧数を加算して投稿詳細を表示する。
// GET /posts/{id}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, view.PagePostShow, detail.Title, detail)
}

// Edit は投稿編集フォームを表示する。
// GET /posts/{id}/edit
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, view.PagePostEdit, "Edit "+p.Title, p)
}

// Update は投稿のタイトルと本文を更新する。
// PUT /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	_, err := h.service.Update(r.Context(), id, postInput(r))
	if err != nil {
		if appErr, ok := validationError(err); ok {
			flashAndRedirect(w, r, model.FlashError, appErr.Message, "/posts/"+id+"/edit")
			return
		}
		handleServiceError(w, r, h.renderer, err)
		return
	}

	flashAndRedirect(w, r, model.FlashSuccess, FlashPostUpdated, "/posts/"+id)
}

// Delete は投稿を削除する。
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}
	flashAndRedirect(w, r, model.FlashSuccess, FlashPostDeleted, "/posts/page")
}

func postInput(r *http.Request) post.Input {
	return post.Input{
		Title: r.PostFormValue("post[title]"),
		Body:  r.PostFormValue("post[body]"),
	}
}

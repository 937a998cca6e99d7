// Package post は投稿とレビューのドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/postboard/internal/metrics"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
	"github.com/hitoshi/postboard/internal/security"
	"github.com/hitoshi/postboard/internal/validation"
)

// 一覧に表示する抜粋の最大文字数
const excerptRunes = 160

// Input は投稿の作成・更新の入力値。
type Input struct {
	Title string `validate:"required,max=200" label:"Title"`
	Body  string `validate:"required,max=10000" label:"Body"`
}

// Summary は一覧表示用の投稿。
type Summary struct {
	model.PostWithAuthor
	Excerpt string
}

// Service は投稿とレビューのサービス層。
type Service struct {
	posts     repository.PostRepository
	reviews   repository.ReviewRepository
	sanitizer security.ContentSanitizer
	metrics   metrics.MetricsCollector
	policy    model.DeletePolicy
}

// NewService はServiceの新しいインスタンスを生成する。
// policyは投稿削除時にレビューをどう扱うかを決める。
func NewService(
	posts repository.PostRepository,
	reviews repository.ReviewRepository,
	sanitizer security.ContentSanitizer,
	collector metrics.MetricsCollector,
	policy model.DeletePolicy,
) *Service {
	if collector == nil {
		collector = metrics.Nop()
	}
	return &Service{
		posts:     posts,
		reviews:   reviews,
		sanitizer: sanitizer,
		metrics:   collector,
		policy:    policy,
	}
}

// List は全投稿を新しい順に抜粋付きで返す。
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	summaries := make([]Summary, len(rows))
	for i, row := range rows {
		summaries[i] = Summary{
			PostWithAuthor: row,
			Excerpt:        s.sanitizer.Excerpt(row.Body, excerptRunes),
		}
	}
	return summaries, nil
}

// Get は投稿を取得する。存在しないか不正なIDの場合はPOST_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Post, error) {
	if !validID(id) {
		return nil, model.NewPostNotFoundError(id)
	}

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

// Show は閲覧数を1加算し、投稿者とレビューを展開した投稿を返す。
func (s *Service) Show(ctx context.Context, id string) (*model.PostDetail, error) {
	if !validID(id) {
		return nil, model.NewPostNotFoundError(id)
	}

	found, err := s.posts.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}
	if !found {
		return nil, model.NewPostNotFoundError(id)
	}

	detail, err := s.posts.FindDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post detail: %w", err)
	}
	if detail == nil {
		// 加算後に削除された
		return nil, model.NewPostNotFoundError(id)
	}
	return detail, nil
}

// FindAuthorID は投稿の投稿者IDを返す。投稿が存在しない場合はPOST_NOT_FOUNDを返す。
func (s *Service) FindAuthorID(ctx context.Context, id string) (string, error) {
	if !validID(id) {
		return "", model.NewPostNotFoundError(id)
	}

	authorID, err := s.posts.FindAuthorID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to find post author: %w", err)
	}
	if authorID == "" {
		return "", model.NewPostNotFoundError(id)
	}
	return authorID, nil
}

// Create は入力を検証・サニタイズし、authorIDを投稿者として投稿を作成する。
func (s *Service) Create(ctx context.Context, authorID string, in Input) (*model.Post, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	post := &model.Post{
		ID:        uuid.New().String(),
		Title:     in.Title,
		Body:      in.Body,
		ReviewIDs: []string{},
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.metrics.RecordPostCreated()
	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", authorID),
	)
	return post, nil
}

// Update はタイトルと本文を更新する。投稿者は変更しない。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Post, error) {
	if !validID(id) {
		return nil, model.NewPostNotFoundError(id)
	}

	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:        id,
		Title:     in.Title,
		Body:      in.Body,
		UpdatedAt: time.Now(),
	}

	found, err := s.posts.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if !found {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}

// Delete は設定された削除ポリシーに従って投稿を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return model.NewPostNotFoundError(id)
	}

	found, err := s.posts.Delete(ctx, id, s.policy)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if !found {
		return model.NewPostNotFoundError(id)
	}

	s.metrics.RecordPostDeleted()
	slog.Info("post deleted",
		slog.String("post_id", id),
		slog.String("policy", string(s.policy)),
	)
	return nil
}

// clean は入力の前後空白を除き、検証した上で本文をサニタイズする。
// サニタイズで本文が空になった場合も検証エラーとする。
func (s *Service) clean(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)

	if err := validation.Struct(in); err != nil {
		return Input{}, err
	}

	in.Body = s.sanitizer.Sanitize(in.Body)
	if in.Body == "" {
		return Input{}, model.NewValidationError("Body is required")
	}
	return in, nil
}

// validID はIDが正規形（36文字のハイフン区切り）のUUIDかを返す。
// uuid.Parseはurn:uuid:や波括弧付きの形式も受け付けるため長さでも絞る。
// 不正なIDはDBに問い合わせず未検出として扱う。
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

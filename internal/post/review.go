package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/validation"
)

// ReviewInput はレビュー作成の入力値。
type ReviewInput struct {
	Body string `validate:"required,max=2000" label:"Review"`
}

// AddReview は投稿にレビューを追加する。
// レビューの作成と投稿のレビュー一覧への追加は同一トランザクションで行われる。
func (s *Service) AddReview(ctx context.Context, postID, authorID string, in ReviewInput) (*model.Review, error) {
	if !validID(postID) {
		return nil, model.NewPostNotFoundError(postID)
	}

	in.Body = strings.TrimSpace(in.Body)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	body := s.sanitizer.Sanitize(in.Body)
	if body == "" {
		return nil, model.NewValidationError("Review is required")
	}

	review := &model.Review{
		ID:        uuid.New().String(),
		Body:      body,
		AuthorID:  authorID,
		CreatedAt: time.Now(),
	}

	found, err := s.reviews.CreateForPost(ctx, postID, review)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	if !found {
		return nil, model.NewPostNotFoundError(postID)
	}

	s.metrics.RecordReviewCreated()
	slog.Info("review created",
		slog.String("post_id", postID),
		slog.String("review_id", review.ID),
		slog.String("author_id", authorID),
	)
	return review, nil
}

// DeleteReview は投稿のレビュー一覧からIDを取り除き、レビューを削除する。
// レビューがその投稿に属していない場合はREVIEW_NOT_FOUNDを返す。
func (s *Service) DeleteReview(ctx context.Context, postID, reviewID string) error {
	if !validID(postID) {
		return model.NewPostNotFoundError(postID)
	}
	if !validID(reviewID) {
		return model.NewReviewNotFoundError(reviewID)
	}

	found, err := s.reviews.RemoveFromPost(ctx, postID, reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if !found {
		return model.NewReviewNotFoundError(reviewID)
	}

	s.metrics.RecordReviewDeleted()
	slog.Info("review deleted",
		slog.String("post_id", postID),
		slog.String("review_id", reviewID),
	)
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/postboard/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// CreateForPost はレビューを作成し、投稿のreview_ids末尾にIDを追加する。
// 投稿が存在しない場合は何も作成せずfalseを返す。
func (r *PostgresReviewRepo) CreateForPost(ctx context.Context, postID string, review *model.Review) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE posts SET review_ids = array_append(review_ids, $2::uuid) WHERE id = $1`,
		postID, review.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to append review id: %w", err)
	}
	found, err := affectedOne(result)
	if err != nil || !found {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (id, body, author_id, created_at) VALUES ($1, $2, $3, $4)`,
		review.ID, review.Body, review.AuthorID, review.CreatedAt,
	); err != nil {
		return false, fmt.Errorf("failed to insert review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// RemoveFromPost は投稿のreview_idsからIDを取り除き、レビューを削除する。
// レビューがその投稿に属していない場合はfalseを返す。
func (r *PostgresReviewRepo) RemoveFromPost(ctx context.Context, postID, reviewID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE posts SET review_ids = array_remove(review_ids, $2::uuid)
		 WHERE id = $1 AND $2::uuid = ANY(review_ids)`,
		postID, reviewID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to pull review id: %w", err)
	}
	found, err := affectedOne(result)
	if err != nil || !found {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
		return false, fmt.Errorf("failed to delete review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/postboard/internal/model"
	"github.com/lib/pq"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// List は全投稿を作成日時の降順で投稿者名付きで返す。
func (r *PostgresPostRepo) List(ctx context.Context) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.body, p.views, p.review_ids, p.author_id, p.created_at, p.updated_at,
		        COALESCE(u.username, '')
		 FROM posts p
		 LEFT JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.PostWithAuthor
	for rows.Next() {
		var p model.PostWithAuthor
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Body, &p.Views, pq.Array(&p.ReviewIDs), &p.AuthorID,
			&p.CreatedAt, &p.UpdatedAt, &p.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, body, views, review_ids, author_id, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(
		&post.ID, &post.Title, &post.Body, &post.Views, pq.Array(&post.ReviewIDs), &post.AuthorID,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// FindDetail は投稿者とレビューを展開した投稿を返す。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindDetail(ctx context.Context, id string) (*model.PostDetail, error) {
	detail := &model.PostDetail{}
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.title, p.body, p.views, p.review_ids, p.author_id, p.created_at, p.updated_at,
		        COALESCE(u.username, '')
		 FROM posts p
		 LEFT JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1`,
		id,
	).Scan(
		&detail.ID, &detail.Title, &detail.Body, &detail.Views, pq.Array(&detail.ReviewIDs), &detail.AuthorID,
		&detail.CreatedAt, &detail.UpdatedAt, &detail.AuthorName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post detail: %w", err)
	}

	// review_idsの並び順を保ったままレビューを展開する
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.id, rv.body, rv.author_id, rv.created_at, COALESCE(u.username, '')
		 FROM posts p
		 CROSS JOIN LATERAL unnest(p.review_ids) WITH ORDINALITY AS ref(review_id, ord)
		 JOIN reviews rv ON rv.id = ref.review_id
		 LEFT JOIN users u ON u.id = rv.author_id
		 WHERE p.id = $1
		 ORDER BY ref.ord`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rv model.ReviewWithAuthor
		if err := rows.Scan(&rv.ID, &rv.Body, &rv.AuthorID, &rv.CreatedAt, &rv.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		detail.Reviews = append(detail.Reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return detail, nil
}

// FindAuthorID は投稿の投稿者IDを返す。見つからない場合は空文字列を返す。
func (r *PostgresPostRepo) FindAuthorID(ctx context.Context, id string) (string, error) {
	var authorID string
	err := r.db.QueryRowContext(ctx,
		`SELECT author_id FROM posts WHERE id = $1`,
		id,
	).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find post author: %w", err)
	}
	return authorID, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	reviewIDs := post.ReviewIDs
	if reviewIDs == nil {
		reviewIDs = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, body, views, review_ids, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		post.ID, post.Title, post.Body, post.Views, pq.Array(reviewIDs), post.AuthorID,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Update はタイトルと本文のみを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $2, body = $3, updated_at = $4 WHERE id = $1`,
		post.ID, post.Title, post.Body, post.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update post: %w", err)
	}
	return affectedOne(result)
}

// IncrementViews は閲覧数を1加算する。対象が存在しない場合はfalseを返す。
func (r *PostgresPostRepo) IncrementViews(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET views = views + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to increment views: %w", err)
	}
	return affectedOne(result)
}

// Delete は削除ポリシーに従って投稿を削除する。対象が存在しない場合はfalseを返す。
// 投稿行をFOR UPDATEでロックしてからレビューと投稿を削除するため、
// 削除中に並行してレビューが追加されることはない。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string, policy model.DeletePolicy) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var reviewIDs []string
	err = tx.QueryRowContext(ctx,
		`SELECT review_ids FROM posts WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(pq.Array(&reviewIDs))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock post: %w", err)
	}

	if policy == model.DeletePolicyCascade && len(reviewIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM reviews WHERE id = ANY($1)`,
			pq.Array(reviewIDs),
		); err != nil {
			return false, fmt.Errorf("failed to delete reviews: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// affectedOne は更新系クエリが1行以上に作用したかを返す。
func affectedOne(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)

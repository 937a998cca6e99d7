// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/postboard/internal/model"
)

// ErrDuplicateKey は一意制約違反を表す。
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。usernameが重複する場合はErrDuplicateKeyをラップして返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はusernameでユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// UpdateData はセッションの付随データ（returnTo、フラッシュ）を上書きする。
	UpdateData(ctx context.Context, id string, data model.SessionData) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// List は全投稿を作成日時の降順で投稿者名付きで返す。
	List(ctx context.Context) ([]model.PostWithAuthor, error)

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindDetail は投稿者とレビュー（レビュー投稿者を含む）を展開した投稿を返す。
	// レビューはreview_idsの順序で並ぶ。見つからない場合はnilを返す。
	FindDetail(ctx context.Context, id string) (*model.PostDetail, error)

	// FindAuthorID は投稿の投稿者IDを返す。見つからない場合は空文字列を返す。
	FindAuthorID(ctx context.Context, id string) (string, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update はタイトルと本文のみを更新する。author_idは変更しない。
	// 対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, post *model.Post) (bool, error)

	// IncrementViews は閲覧数を1加算する。対象が存在しない場合はfalseを返す。
	IncrementViews(ctx context.Context, id string) (bool, error)

	// Delete は削除ポリシーに従って投稿を削除する。
	// DeletePolicyCascadeの場合は同一トランザクションでレビューも削除する。
	// 対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string, policy model.DeletePolicy) (bool, error)
}

// ReviewRepository はレビューデータの永続化インターフェース。
// レビューの追加・削除は親投稿のreview_idsの更新と同一トランザクションで行う。
type ReviewRepository interface {
	// CreateForPost はレビューを作成し、投稿のreview_ids末尾にIDを追加する。
	// 投稿が存在しない場合は何も作成せずfalseを返す。
	CreateForPost(ctx context.Context, postID string, review *model.Review) (bool, error)

	// RemoveFromPost は投稿のreview_idsからIDを取り除き、レビューを削除する。
	// レビューがその投稿に属していない場合はfalseを返す。
	RemoveFromPost(ctx context.Context, postID, reviewID string) (bool, error)
}

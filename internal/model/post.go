package model

import "time"

// Post はユーザーが投稿したコンテンツを表す。
// AuthorIDは作成時に1度だけ設定され、以降変更されない。
// ReviewIDsはレビューへの参照の順序付きリストで、投稿がメンバーシップを管理する。
type Post struct {
	ID        string
	Title     string
	Body      string
	Views     int64
	ReviewIDs []string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostWithAuthor は一覧表示用に投稿者名を結合した投稿。
type PostWithAuthor struct {
	Post
	AuthorName string
}

// Review は投稿に付けられたレビュー（コメント）を表す。
// 投稿への逆参照は持たず、Post.ReviewIDs経由でのみ紐付く。
type Review struct {
	ID        string
	Body      string
	AuthorID  string
	CreatedAt time.Time
}

// ReviewWithAuthor はレビューと投稿者名を結合した構造体。
type ReviewWithAuthor struct {
	Review
	AuthorName string
}

// PostDetail は詳細画面用に投稿者とレビューを展開した投稿。
// ReviewsはPost.ReviewIDsと同じ順序で並ぶ。
type PostDetail struct {
	Post
	AuthorName string
	Reviews    []ReviewWithAuthor
}

// DeletePolicy は投稿削除時に紐付くレビューをどう扱うかを表す。
type DeletePolicy string

const (
	// DeletePolicyCascade は投稿と同一トランザクションでレビューも削除する。
	DeletePolicyCascade DeletePolicy = "cascade"
	// DeletePolicyKeep は投稿のみ削除し、レビューは残す。
	DeletePolicyKeep DeletePolicy = "keep"
)

// ParseDeletePolicy は文字列からDeletePolicyを解析する。
func ParseDeletePolicy(s string) (DeletePolicy, bool) {
	switch DeletePolicy(s) {
	case DeletePolicyCascade:
		return DeletePolicyCascade, true
	case DeletePolicyKeep:
		return DeletePolicyKeep, true
	default:
		return "", false
	}
}

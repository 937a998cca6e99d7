// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// AppError は利用者に提示できる想定内のエラーを表す。
// ハンドラー層でHTTPステータスとフラッシュメッセージに変換される。
type AppError struct {
	Code     string // エラーコード
	Message  string // 利用者向けメッセージ
	Category string // カテゴリ: auth, validation, post, system
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeReviewNotFound     = "REVIEW_NOT_FOUND"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeValidation         = "VALIDATION_FAILED"
)

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *AppError {
	return &AppError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("post not found: %s", postID),
		Category: "post",
	}
}

// NewReviewNotFoundError はレビュー未検出エラーを生成する。
func NewReviewNotFoundError(reviewID string) *AppError {
	return &AppError{
		Code:     ErrCodeReviewNotFound,
		Message:  fmt.Sprintf("review not found: %s", reviewID),
		Category: "post",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError() *AppError {
	return &AppError{
		Code:     ErrCodeDuplicateUsername,
		Message:  "A user with the given username is already registered",
		Category: "auth",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Password or username is incorrect",
		Category: "auth",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
	}
}

// IsNotFound はエラーが投稿またはレビューの未検出エラーかどうかを返す。
func IsNotFound(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == ErrCodePostNotFound || appErr.Code == ErrCodeReviewNotFound
}

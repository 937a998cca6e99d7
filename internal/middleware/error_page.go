package middleware

import (
	"net/http"
)

// エラーページに表示する定型メッセージ
const (
	MessageNotFound      = "Page Not Found"
	MessageInternalError = "Oh No, Something Went Wrong"
	MessageForbidden     = "Invalid or missing form token"
	MessageTooMany       = "Too many requests. Please try again later."
)

// ErrorPageRenderer はエラーページを描画するインターフェース。
// ミドルウェアがハンドラーを通さずにエラー応答する際に使用する。
type ErrorPageRenderer interface {
	RenderError(w http.ResponseWriter, r *http.Request, status int, message string)
}

// writeError はエラーページを描画する。rendererが未設定の場合はプレーンテキストで応答する。
func writeError(renderer ErrorPageRenderer, w http.ResponseWriter, r *http.Request, status int, message string) {
	if renderer == nil {
		http.Error(w, message, status)
		return
	}
	renderer.RenderError(w, r, status, message)
}

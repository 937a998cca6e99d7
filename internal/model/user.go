// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptでハッシュ化済みの値であり、平文パスワードは保持しない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// フラッシュメッセージの種別
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// SessionData はサーバー側セッションに保存する付随データ。
// sessions.dataカラムにJSONとして永続化する。
type SessionData struct {
	// ReturnTo はログイン後に戻るパス。ログイン成功時に1回だけ消費される。
	ReturnTo string `json:"return_to,omitempty"`
	// Flashes は種別ごとの未表示フラッシュメッセージ。次の画面描画で消費される。
	Flashes map[string][]string `json:"flashes,omitempty"`
}

// AddFlash は指定種別のフラッシュメッセージを追加する。
func (d *SessionData) AddFlash(kind, message string) {
	if d.Flashes == nil {
		d.Flashes = make(map[string][]string)
	}
	d.Flashes[kind] = append(d.Flashes[kind], message)
}

// Session はユーザーのセッションを表す。
// 未ログインの訪問者にも発行され、その場合UserIDは空文字列となる。
type Session struct {
	ID        string
	UserID    string
	Data      SessionData
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsAuthenticated はセッションがログイン済みユーザーに紐付いているかを返す。
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != ""
}

package middleware

import (
	"net/http"
	"strings"
)

const methodOverrideField = "_method"

// NewMethodOverrideMiddleware はHTMLフォームからのPUT/PATCH/DELETEを扱うミドルウェアを返す。
// POSTリクエストの _method フォーム値（またはX-HTTP-Method-Overrideヘッダー）で
// メソッドを置き換える。ルーティングより前に動く必要があるため、ルーターのUseで最初の方に登録する。
func NewMethodOverrideMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				override := r.Header.Get("X-HTTP-Method-Override")
				if override == "" {
					override = r.PostFormValue(methodOverrideField)
				}
				switch m := strings.ToUpper(strings.TrimSpace(override)); m {
				case http.MethodPut, http.MethodPatch, http.MethodDelete:
					r.Method = m
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

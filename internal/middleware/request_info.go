package middleware

import "context"

var requestInfoContextKey = contextKey("request_info")

// requestInfo はリクエストログ用に内側のミドルウェアが書き込む値を保持する。
// ロギングミドルウェアはセッション復元より外側で動くため、ポインタで受け渡す。
type requestInfo struct {
	userID string
}

func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoContextKey, info), info
}

func requestInfoFromContext(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoContextKey).(*requestInfo)
	return info
}

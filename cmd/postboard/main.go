// Command postboard は投稿とレビューの掲示板Webアプリケーション。
//
// サブコマンド:
//
//	serve       Webサーバーを起動する（既定）
//	worker      期限切れセッションなどのクリーンアップを定期実行する
//	migrate     データベースマイグレーションを適用する
//	healthcheck 稼働中のサーバーの /health を確認する
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/postboard/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

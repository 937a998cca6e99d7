package app

import (
	"fmt"
	"io"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はWebサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はクリーンアップワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp は使い方を表示する。
	CommandHelp Command = "help"
)

// commands は表示順に並べたサブコマンドと説明。
var commands = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "Webサーバーを起動する（既定）"},
	{CommandWorker, "期限切れセッションなどを定期的に削除する"},
	{CommandMigrate, "未適用のマイグレーションを適用する"},
	{CommandHealthcheck, "稼働中のサーバーの /health を確認する"},
	{CommandHelp, "この使い方を表示する"},
}

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "-h", "--help":
		return CommandHelp
	}
	for _, c := range commands {
		if string(c.cmd) == args[0] {
			return c.cmd
		}
	}
	return CommandServe
}

// writeUsage はサブコマンドの一覧をwに書き出す。
func writeUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: postboard [command]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.cmd, c.desc)
	}
}

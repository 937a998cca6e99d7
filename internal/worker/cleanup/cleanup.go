// Package cleanup は期限切れセッションと孤立レビューの定期削除ジョブを提供する。
// 孤立レビューはどの投稿のreview_idsからも参照されていないレビューで、
// 削除ポリシーkeepで投稿を消した場合に生じる。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/postboard/internal/metrics"
)

// 削除対象の種別。メトリクスのkindラベルにも使う。
const (
	KindSessions      = "sessions"
	KindOrphanReviews = "orphan_reviews"
)

const (
	deleteExpiredSessionsQuery = `DELETE FROM sessions WHERE expires_at < now()`

	deleteOrphanReviewsQuery = `
		DELETE FROM reviews r
		WHERE NOT EXISTS (
			SELECT 1 FROM posts p WHERE r.id = ANY (p.review_ids)
		)`
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は定期削除ジョブ。冪等であり、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	db      Executor
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	// OrphanReviews がtrueの場合は孤立レビューも削除する。
	OrphanReviews bool
}

// NewCleanupJob は新しいCleanupJobを生成する。
// 既定では期限切れセッションのみを削除する。
func NewCleanupJob(db Executor, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	if collector == nil {
		collector = metrics.Nop()
	}
	return &CleanupJob{
		db:      db,
		logger:  logger,
		metrics: collector,
	}
}

// Run は削除処理を1回実行する。
func (j *CleanupJob) Run(ctx context.Context) error {
	if err := j.exec(ctx, KindSessions, deleteExpiredSessionsQuery); err != nil {
		return err
	}
	if !j.OrphanReviews {
		return nil
	}
	return j.exec(ctx, KindOrphanReviews, deleteOrphanReviewsQuery)
}

// Start は起動直後に1回実行し、その後intervalごとにRunを繰り返す。
// ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップジョブが失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

func (j *CleanupJob) exec(ctx context.Context, kind, query string) error {
	start := time.Now()

	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("クリーンアップの実行に失敗しました",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%sのクリーンアップに失敗: %w", kind, err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.metrics.RecordCleanup(kind, deletedCount)
	j.logger.Info("クリーンアップが完了しました",
		slog.String("kind", kind),
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

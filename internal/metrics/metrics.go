// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordLogin(success bool)
	RecordRegistration(success bool)
	RecordPostCreated()
	RecordPostDeleted()
	RecordReviewCreated()
	RecordReviewDeleted()
	RecordCleanup(kind string, deleted int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	logins         *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	postsCreated   prometheus.Counter
	postsDeleted   prometheus.Counter
	reviewsCreated prometheus.Counter
	reviewsDeleted prometheus.Counter
	cleanupDeleted *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postboard_http_requests_total",
			Help: "HTTPリクエストの合計数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postboard_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postboard_logins_total",
			Help: "ログイン試行の合計数",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postboard_registrations_total",
			Help: "ユーザー登録試行の合計数",
		}, []string{"result"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postboard_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postboard_posts_deleted_total",
			Help: "削除された投稿の合計数",
		}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postboard_reviews_created_total",
			Help: "作成されたレビューの合計数",
		}),
		reviewsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postboard_reviews_deleted_total",
			Help: "削除されたレビューの合計数",
		}),
		cleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postboard_cleanup_deleted_total",
			Help: "クリーンアップで削除されたレコードの合計数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.logins,
		c.registrations,
		c.postsCreated,
		c.postsDeleted,
		c.reviewsCreated,
		c.reviewsDeleted,
		c.cleanupDeleted,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはchiのルートパターンを渡し、ラベルの種類が増えすぎないようにする。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordLogin はログイン試行を記録する。
func (c *Collector) RecordLogin(success bool) {
	c.logins.WithLabelValues(result(success)).Inc()
}

// RecordRegistration はユーザー登録試行を記録する。
func (c *Collector) RecordRegistration(success bool) {
	c.registrations.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordPostCreated()   { c.postsCreated.Inc() }
func (c *Collector) RecordPostDeleted()   { c.postsDeleted.Inc() }
func (c *Collector) RecordReviewCreated() { c.reviewsCreated.Inc() }
func (c *Collector) RecordReviewDeleted() { c.reviewsDeleted.Inc() }

// RecordCleanup はクリーンアップで削除した件数を種別ごとに記録する。
func (c *Collector) RecordCleanup(kind string, deleted int64) {
	c.cleanupDeleted.WithLabelValues(kind).Add(float64(deleted))
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// nopCollector は何も記録しないMetricsCollector。
type nopCollector struct{}

// Nop は何も記録しないMetricsCollectorを返す。テストやメトリクス不要の経路で使う。
func Nop() MetricsCollector { return nopCollector{} }

func (nopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (nopCollector) RecordLogin(bool)                                     {}
func (nopCollector) RecordRegistration(bool)                              {}
func (nopCollector) RecordPostCreated()                                   {}
func (nopCollector) RecordPostDeleted()                                   {}
func (nopCollector) RecordReviewCreated()                                 {}
func (nopCollector) RecordReviewDeleted()                                 {}
func (nopCollector) RecordCleanup(string, int64)                          {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = nopCollector{}
)

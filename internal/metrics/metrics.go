// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー層から利用する。
type MetricsCollector interface {
	RecordRegistration(isBotanist bool)
	RecordLogin()
	RecordAuthFailure()
	RecordPlantCreated()
	RecordCommentCreated()
	RecordCareStarted()
	RecordCareEnded()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations  *prometheus.CounterVec
	logins         prometheus.Counter
	authFailures   prometheus.Counter
	plantsCreated  prometheus.Counter
	comments       prometheus.Counter
	careStarted    prometheus.Counter
	careEnded      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantcare_registrations_total",
			Help: "ユーザー登録の合計数（ユーザー種別ごと）",
		}, []string{"user_type"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantcare_logins_total",
			Help: "ログイン成功の合計数",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantcare_auth_failures_total",
			Help: "認証失敗の合計数",
		}),
		plantsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantcare_plants_created_total",
			Help: "登録された植物の合計数",
		}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantcare_comments_created_total",
			Help: "投稿されたコメントの合計数",
		}),
		careStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantcare_care_started_total",
			Help: "ケア開始の合計数",
		}),
		careEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantcare_care_ended_total",
			Help: "ケア終了の合計数",
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.authFailures,
		c.plantsCreated,
		c.comments,
		c.careStarted,
		c.careEnded,
	)

	return c
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration(isBotanist bool) {
	userType := "regular"
	if isBotanist {
		userType = "botanist"
	}
	c.registrations.WithLabelValues(userType).Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// RecordPlantCreated は植物の登録を記録する。
func (c *Collector) RecordPlantCreated() {
	c.plantsCreated.Inc()
}

// RecordCommentCreated はコメントの投稿を記録する。
func (c *Collector) RecordCommentCreated() {
	c.comments.Inc()
}

// RecordCareStarted はケア開始を記録する。
func (c *Collector) RecordCareStarted() {
	c.careStarted.Inc()
}

// RecordCareEnded はケア終了を記録する。
func (c *Collector) RecordCareEnded() {
	c.careEnded.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

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
// ミドルウェアとサービス層から利用する。
type MetricsCollector interface {
	RecordAuthDecision(result string)
	RecordVerifyLatency(duration time.Duration)
	RecordGuardRejection(reason string)
	RecordHTTPStatus(statusCode int)
	RecordImageUpload()
}

// 認可ゲートウェイの判定結果ラベル。
const (
	AuthResultAdmitted          = "admitted"
	AuthResultUnauthenticated   = "unauthenticated"
	AuthResultInvalidCredential = "invalid_credential"
	AuthResultForbidden         = "forbidden"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authDecisions   *prometheus.CounterVec
	verifyLatency   prometheus.Histogram
	guardRejections *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	imageUploads    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodatlas_auth_decisions_total",
			Help: "認可ゲートウェイの判定結果別の合計数",
		}, []string{"result"}),
		verifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodatlas_token_verify_seconds",
			Help:    "IDトークン検証のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodatlas_guard_rejections_total",
			Help: "参照整合性ガードによる拒否の理由別合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodatlas_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		imageUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodatlas_image_uploads_total",
			Help: "メディアホストへの画像アップロード成功の合計数",
		}),
	}

	reg.MustRegister(
		c.authDecisions,
		c.verifyLatency,
		c.guardRejections,
		c.httpStatus,
		c.imageUploads,
	)

	return c
}

// RecordAuthDecision は認可ゲートウェイの判定結果を記録する。
func (c *Collector) RecordAuthDecision(result string) {
	c.authDecisions.WithLabelValues(result).Inc()
}

// RecordVerifyLatency はIDトークン検証のレイテンシを記録する。
func (c *Collector) RecordVerifyLatency(duration time.Duration) {
	c.verifyLatency.Observe(duration.Seconds())
}

// RecordGuardRejection は参照整合性ガードによる拒否を理由付きで記録する。
func (c *Collector) RecordGuardRejection(reason string) {
	c.guardRejections.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordImageUpload は画像アップロード成功を記録する。
func (c *Collector) RecordImageUpload() {
	c.imageUploads.Inc()
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

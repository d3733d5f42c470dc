// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス記録のインターフェース。
// サービス層やミドルウェアから利用する。
type Recorder interface {
	RecordApplicationSubmitted()
	RecordApplicationConflict()
	RecordStatusChange(status string)
	RecordJobCreated()
	RecordJobDeleted(cascadedApplications int)
	RecordAuthorizationDenied(action string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	applicationsSubmitted prometheus.Counter
	applicationConflicts  prometheus.Counter
	statusChanges         *prometheus.CounterVec
	jobsCreated           prometheus.Counter
	jobsDeleted           prometheus.Counter
	cascadedApplications  prometheus.Counter
	authorizationDenied   *prometheus.CounterVec
	httpStatus            *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		applicationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillbridge_applications_submitted_total",
			Help: "受け付けた応募の合計数",
		}),
		applicationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillbridge_application_conflicts_total",
			Help: "二重応募として拒否された応募の合計数",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_application_status_changes_total",
			Help: "変更後ステータス別の応募ステータス変更数",
		}, []string{"status"}),
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillbridge_jobs_created_total",
			Help: "作成された求人の合計数",
		}),
		jobsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillbridge_jobs_deleted_total",
			Help: "削除された求人の合計数",
		}),
		cascadedApplications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillbridge_cascaded_applications_total",
			Help: "求人削除に伴って削除された応募の合計数",
		}),
		authorizationDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_authorization_denied_total",
			Help: "操作別の認可拒否数",
		}, []string{"action"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.applicationsSubmitted,
		c.applicationConflicts,
		c.statusChanges,
		c.jobsCreated,
		c.jobsDeleted,
		c.cascadedApplications,
		c.authorizationDenied,
		c.httpStatus,
	)

	return c
}

// RecordApplicationSubmitted は応募受付を記録する。
func (c *Collector) RecordApplicationSubmitted() {
	c.applicationsSubmitted.Inc()
}

// RecordApplicationConflict は二重応募の拒否を記録する。
func (c *Collector) RecordApplicationConflict() {
	c.applicationConflicts.Inc()
}

// RecordStatusChange は応募ステータスの変更を記録する。
func (c *Collector) RecordStatusChange(status string) {
	c.statusChanges.WithLabelValues(status).Inc()
}

// RecordJobCreated は求人作成を記録する。
func (c *Collector) RecordJobCreated() {
	c.jobsCreated.Inc()
}

// RecordJobDeleted は求人削除と連鎖削除された応募数を記録する。
func (c *Collector) RecordJobDeleted(cascadedApplications int) {
	c.jobsDeleted.Inc()
	c.cascadedApplications.Add(float64(cascadedApplications))
}

// RecordAuthorizationDenied は認可拒否を記録する。
func (c *Collector) RecordAuthorizationDenied(action string) {
	c.authorizationDenied.WithLabelValues(action).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないRecorder。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordApplicationSubmitted() {}
func (Nop) RecordApplicationConflict() {}
func (Nop) RecordStatusChange(string) {}
func (Nop) RecordJobCreated() {}
func (Nop) RecordJobDeleted(int) {}
func (Nop) RecordAuthorizationDenied(string) {}
func (Nop) RecordHTTPStatus(int) {}

// compile-time interface check
var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 结果标签取值
const (
	ResultReloaded  = "reloaded"
	ResultUnchanged = "unchanged"
	ResultError     = "error"
	ResultHit       = "hit"
	ResultFetched   = "fetched"
	ResultSuccess   = "success"
	ResultFailure   = "failure"
)

var (
	// 配置刷新
	SettingsRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scadaweb_settings_refresh_total",
			Help: "Settings refresh attempts by file and result",
		},
		[]string{"file", "result"},
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scadaweb_refresh_duration_seconds",
			Help:    "Duration of the application data refresh sequence",
			Buckets: prometheus.DefBuckets,
		},
	)

	// 插件
	PluginsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scadaweb_plugins_loaded",
			Help: "Number of loaded plugins",
		},
	)

	PluginErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scadaweb_plugin_errors_total",
			Help: "Plugin failures by plugin and stage",
		},
		[]string{"plugin", "stage"},
	)

	// 会话与视图
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scadaweb_sessions_active",
			Help: "Number of live user sessions",
		},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scadaweb_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	ViewRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scadaweb_view_requests_total",
			Help: "View cache lookups by result",
		},
		[]string{"result"},
	)

	// 限流
	RequestsBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scadaweb_requests_blocked_total",
			Help: "Requests rejected by rate limiters",
		},
		[]string{"limiter", "path"},
	)
)

func init() {
	prometheus.MustRegister(SettingsRefreshTotal)
	prometheus.MustRegister(RefreshDuration)
	prometheus.MustRegister(PluginsLoaded)
	prometheus.MustRegister(PluginErrorsTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(LoginsTotal)
	prometheus.MustRegister(ViewRequestsTotal)
	prometheus.MustRegister(RequestsBlockedTotal)
}

// Handler Prometheus 指标 HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer 计时并写入直方图
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

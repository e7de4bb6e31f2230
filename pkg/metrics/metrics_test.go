package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	assert := assert.New(t)
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(timer.Duration(), 10*time.Millisecond)

	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_duration_seconds", Help: "test"})
	timer.ObserveDuration(h)
	assert.Equal(1, testutil.CollectAndCount(h))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SettingsRefreshTotal.WithLabelValues("WebSettings.xml", ResultReloaded))
	SettingsRefreshTotal.WithLabelValues("WebSettings.xml", ResultReloaded).Inc()
	after := testutil.ToFloat64(SettingsRefreshTotal.WithLabelValues("WebSettings.xml", ResultReloaded))
	assert.Equal(t, before+1, after)
}

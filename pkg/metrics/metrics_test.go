package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(JoinRequestsTotal.WithLabelValues("ACCEPTED"))
	JoinRequestsTotal.WithLabelValues("ACCEPTED").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(JoinRequestsTotal.WithLabelValues("ACCEPTED")))
}

func TestTimerObserveDuration(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_timer_seconds", Help: "test"})
	d := NewTimer().ObserveDuration(h)
	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(h))
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	MessagesSent.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "travelbuddy_messages_sent_total")
}

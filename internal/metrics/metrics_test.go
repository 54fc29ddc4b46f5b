package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegistry(t *testing.T) {
	RemoteWriteFailures.Inc()
	Judgements.WithLabelValues("easy", "perfect").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "rushline_remote_write_failures_total")
	assert.Contains(t, rec.Body.String(), `rushline_judgements_total{judgement="perfect",level="easy"}`)
	assert.GreaterOrEqual(t, testutil.ToFloat64(RemoteWriteFailures), 1.0)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordResolution("query", true)
	c.RecordResolution("query", true)
	c.RecordResolution("cookie", false)
	c.RecordMultiResolution("query", 2, 3)
	c.RecordTokenMint(true)
	c.RecordTokenMint(false)
	c.RecordErrorResponse("GITHUB_RATE_LIMIT_ERROR", 429)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.resolutions.WithLabelValues("query", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.resolutions.WithLabelValues("cookie", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.multiResolutions.WithLabelValues("query")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.droppedIDs))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.tokenMints.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.tokenMints.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.errorResponses.WithLabelValues("GITHUB_RATE_LIMIT_ERROR", "429")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTokenMint(true)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghdash_installation_token_mints_total")
}

func TestNoop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	assert.NotPanics(t, func() {
		r.RecordResolution("none", false)
		r.RecordMultiResolution("none", 0, 0)
		r.RecordTokenMint(false)
		r.RecordErrorResponse("UNKNOWN_ERROR", 500)
	})
}

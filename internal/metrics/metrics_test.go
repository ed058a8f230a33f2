package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(RecordsWritten.WithLabelValues("upload"))
	RecordsWritten.WithLabelValues("upload").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(RecordsWritten.WithLabelValues("upload")))

	PendingStaged.Set(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(PendingStaged))
}

func TestHandler(t *testing.T) {
	ApifyRequests.WithLabelValues("start", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waskita_apify_requests_total")
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{404, "4xx"},
		{429, "4xx"},
		{503, "5xx"},
		{42, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusClass(tt.code), "code %d", tt.code)
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(SnapshotResolutionsTotal.WithLabelValues("secondary"))
	SnapshotResolutionsTotal.WithLabelValues("secondary").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SnapshotResolutionsTotal.WithLabelValues("secondary")))
}

func TestMetricsEndpoint(t *testing.T) {
	SnapshotRecords.Set(3)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "fraudengine_snapshot_records 3"))
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsTierOutcomes(t *testing.T) {
	r := NewRecorder()
	r.ObserveTier("sentiment", "neural", "unavailable")
	r.ObserveTier("sentiment", "lexical", "success")
	r.ObserveTier("sentiment", "lexical", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.tierOutcomes.WithLabelValues("sentiment", "lexical", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tierOutcomes.WithLabelValues("sentiment", "neural", "unavailable")))
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveTier("keywords", "regex", "success")
	r.ObserveAnalysis(15 * time.Millisecond)
	r.ObserveBatchNote("analyzed")
	r.ObserveCache("miss")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"casenotes_tier_attempts_total",
		"casenotes_note_analysis_duration_seconds",
		"casenotes_batch_notes_total",
		"casenotes_metrics_cache_lookups_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(generationTotal.WithLabelValues("plan", "big-pickle", "error"))
	ObserveGeneration("plan", "big-pickle", time.Second, errors.New("boom"))
	ObserveGeneration("plan", "big-pickle", time.Second, nil)

	assert.Equal(t, before+1, testutil.ToFloat64(generationTotal.WithLabelValues("plan", "big-pickle", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(generationTotal.WithLabelValues("plan", "big-pickle", "ok")), 1.0)
}

func TestAddUsageSkipsZeroCost(t *testing.T) {
	AddUsage("free-model", 10, 5, 0)
	assert.Equal(t, 10.0, testutil.ToFloat64(generationTokens.WithLabelValues("free-model", "prompt")))
	assert.Equal(t, 5.0, testutil.ToFloat64(generationTokens.WithLabelValues("free-model", "completion")))

	AddUsage("paid-model", 0, 0, 0.5)
	assert.InDelta(t, 0.5, testutil.ToFloat64(generationCost.WithLabelValues("paid-model")), 1e-9)
}

func TestHandlerExposesCollectors(t *testing.T) {
	IncMessage("incoming")
	IncFlow("onboarding", "started")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `energy_exec_messages_total{direction="incoming"}`)
	assert.Contains(t, rec.Body.String(), `energy_exec_flows_total{event="started",flow="onboarding"}`)
}

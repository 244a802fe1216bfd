package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.ObserveCommit("approve_event", "ok", time.Now())
	m.ObserveCommit("approve_event", "conflict", time.Now())
	m.ObserveRetry("approve_event")
	m.ObserveRPC("/splitledger.v1.LedgerService/ApproveEvent", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `splitledger_commits_total{op="approve_event",outcome="ok"} 1`)
	assert.Contains(t, string(body), `splitledger_commit_retries_total{op="approve_event"} 1`)
	assert.Contains(t, string(body), "splitledger_rpc_requests_total")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCommit("x", "ok", time.Now())
		m.ObserveRetry("x")
		m.ObserveRPC("x", "ok")
	})
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New()

	m.Registration("success")
	m.Registration("duplicate")
	m.Login("success")
	m.Login("invalid")
	m.Login("invalid")
	m.Logout()
	m.ResetRequested("success")
	m.ResetCompleted("invalid_token")
	m.GateDecision("allowed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("duplicate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resetRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resetCompleted.WithLabelValues("invalid_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateDecisions.WithLabelValues("allowed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.Registration("success")
	m.Login("success")
	m.Logout()
	m.ResetRequested("success")
	m.ResetCompleted("success")
	m.GateDecision("denied")
	assert.Nil(t, m.Registry())
}

func TestRegistryServesCounters(t *testing.T) {
	m := New()
	m.Login("success")

	got, err := testutil.GatherAndCount(m.Registry(), "warden_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

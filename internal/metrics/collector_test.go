package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveClassify(t *testing.T) {
	c := NewCollector()

	c.ObserveClassify("EC2", 10*time.Millisecond, nil)
	c.ObserveClassify("EC2", 20*time.Millisecond, nil)
	c.ObserveClassify("EC2", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ClassifyRequests.WithLabelValues("EC2", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ClassifyRequests.WithLabelValues("EC2", OutcomeFailure)))
}

func TestCollector_InFlight(t *testing.T) {
	c := NewCollector()

	c.TaskStarted()
	c.TaskStarted()
	c.TaskFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.TasksInFlight))
}

func TestCollector_ObserveRecord(t *testing.T) {
	c := NewCollector()

	c.ObserveRecord("Lambda", 10, 1.0)
	c.ObserveRecord("Lambda", 10, 0.5)
	c.ObserveRecord("Lambda", 50, 0.0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RecordsTotal.WithLabelValues("Lambda", "10")))
	assert.InDelta(t, 0.75, testutil.ToFloat64(c.F1Score.WithLabelValues("Lambda", "10")), 1e-9)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.F1Score.WithLabelValues("Lambda", "50")))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveClassify("EC2", time.Second, nil)
		c.TaskStarted()
		c.TaskFinished()
		c.ObserveRecord("EC2", 10, 1)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveRecord("Cloud Run", 100, 0.8)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "labelbench_records_total")
	assert.Contains(t, string(body), `platform="Cloud Run"`)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	a.ObserveRecord("EC2", 10, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RecordsTotal.WithLabelValues("EC2", "10")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecordsTotal.WithLabelValues("EC2", "10")))
}

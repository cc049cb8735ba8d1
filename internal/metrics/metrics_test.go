package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ChunkDone(time.Second, 1, 2, 3)
		m.ChunkFailed()
		m.Merged(time.Second, 1, 1)
		m.Query("/health", "200")
	})
}

func TestRecording(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ChunkDone(10*time.Millisecond, 6, 2, 1)
	m.ChunkDone(10*time.Millisecond, 4, 0, 3)
	m.ChunkFailed()
	m.Merged(time.Millisecond, 7, 5)
	m.Query("/summary", "200")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChunksProcessed.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksProcessed.WithLabelValues("failed")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.KmersTotal.WithLabelValues("emitted")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.KmersTotal.WithLabelValues("promoted")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.GraphNodes))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.GraphEdges))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("/summary", "200")))
}

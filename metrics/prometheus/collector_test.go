package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, "pandora")
	require.NoError(t, err)

	c.RecordItem("build", 10*time.Millisecond, nil)
	c.RecordItem("build", 20*time.Millisecond, errors.New("bad file"))
	c.RecordItem("reduce", time.Millisecond, nil)
	c.RecordBatch("build", 2, 1, time.Second)

	assert.Equal(t, 2.0, counterValue(t, c.items.WithLabelValues("build")))
	assert.Equal(t, 1.0, counterValue(t, c.items.WithLabelValues("reduce")))
	assert.Equal(t, 1.0, counterValue(t, c.itemErrors.WithLabelValues("build")))
	assert.Equal(t, 1.0, counterValue(t, c.batches.WithLabelValues("build")))
	assert.Equal(t, 2.0, counterValue(t, c.batchItems.WithLabelValues("build")))
	assert.Equal(t, 1.0, counterValue(t, c.batchFailed.WithLabelValues("build")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pandora_item_duration_seconds")
	assert.Contains(t, names, "pandora_batch_duration_seconds")
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg, "pandora")
	require.NoError(t, err)

	_, err = NewCollector(reg, "pandora")
	assert.Error(t, err)
}

package promexport

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gather returns the value of every sample, keyed by metric name and label
// values.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "/" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "vecand")
	require.NoError(t, err)

	c.RecordNodeExec("BitmapAnd", 3, time.Millisecond, nil)
	c.RecordNodeExec("BitmapAnd", 2, time.Millisecond, nil)
	c.RecordNodeExec("SimilarityScan", 0, time.Millisecond, errors.New("boom"))
	c.RecordShortCircuit(2)
	c.RecordSubstitution()
	c.RecordRescan("BitmapIndexScan", true)
	c.RecordRescan("BitmapAnd", false)

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["vecand_node_exec_duration_seconds/BitmapAnd"])
	assert.Equal(t, 5.0, got["vecand_node_rows_total/BitmapAnd"])
	assert.Equal(t, 1.0, got["vecand_node_errors_total/SimilarityScan"])
	assert.Equal(t, 1.0, got["vecand_bitmap_and_short_circuits_total"])
	assert.Equal(t, 2.0, got["vecand_bitmap_and_skipped_children_total"])
	assert.Equal(t, 1.0, got["vecand_bitmap_and_substitutions_total"])
	assert.Equal(t, 1.0, got["vecand_node_rescans_total/BitmapIndexScan/true"])
	assert.Equal(t, 1.0, got["vecand_node_rescans_total/BitmapAnd/false"])
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "vecand")
	require.NoError(t, err)

	_, err = New(reg, "vecand")
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)
}

func TestCollector_NilRegisterer(t *testing.T) {
	c, err := New(nil, "")
	require.NoError(t, err)
	assert.NotPanics(t, func() { c.RecordSubstitution() })
}

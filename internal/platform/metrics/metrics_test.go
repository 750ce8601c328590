package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"custos/pkg/changeset"
)

func TestObserverCounts(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.EntryStamped(changeset.OpInsert)
	m.EntryStamped(changeset.OpInsert)
	m.EntryStamped(changeset.OpDelete)
	m.DeleteConverted()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.entriesStamped.WithLabelValues("insert")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.entriesStamped.WithLabelValues("delete")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deletesConverted))
}

func TestServerCounters(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.ItemsCreated.Inc()
	m.ItemsRestored.Inc()
	m.AuditEvents.Add(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ItemsCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ItemsRestored))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.AuditEvents))
}

// Package metrics exposes the Prometheus instruments for the reference
// server. The Metrics struct doubles as the changeset.Observer so policy
// activity is counted without the policy knowing about Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"custos/pkg/changeset"
)

// Metrics holds all counters for the server. Construct once per process;
// registering the same instruments twice panics.
type Metrics struct {
	entriesStamped   *prometheus.CounterVec
	deletesConverted prometheus.Counter

	ItemsCreated  prometheus.Counter
	ItemsRestored prometheus.Counter
	AuditEvents   prometheus.Counter
}

// New registers the instruments with the default Prometheus registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the instruments with reg. Tests pass a fresh
// prometheus.NewRegistry so parallel constructions do not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		entriesStamped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_changeset_entries_stamped_total",
			Help: "Changeset entries processed by the audit policy, by operation.",
		}, []string{"op"}),
		deletesConverted: factory.NewCounter(prometheus.CounterOpts{
			Name: "custos_changeset_deletes_converted_total",
			Help: "Physical deletes redirected to soft deletes by the audit policy.",
		}),
		ItemsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "custos_items_created_total",
			Help: "Catalog items created.",
		}),
		ItemsRestored: factory.NewCounter(prometheus.CounterOpts{
			Name: "custos_items_restored_total",
			Help: "Catalog items restored from the terminated state.",
		}),
		AuditEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "custos_audit_events_total",
			Help: "Audit events accepted by the recorder.",
		}),
	}
}

// EntryStamped counts one policy-processed changeset entry.
func (m *Metrics) EntryStamped(op changeset.Op) {
	m.entriesStamped.WithLabelValues(string(op)).Inc()
}

// DeleteConverted counts one delete redirected to a soft delete.
func (m *Metrics) DeleteConverted() {
	m.deletesConverted.Inc()
}

var _ changeset.Observer = (*Metrics)(nil)

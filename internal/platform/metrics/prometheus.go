// Package metrics exposes bounty engine counters to Prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements the engine's Metrics port. Each instance owns its
// registry so API and worker processes, and tests, never collide.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	callsTotal     *prometheus.CounterVec
	payoutsTotal   *prometheus.CounterVec
	payoutVolume   *prometheus.CounterVec
	feeVolume      *prometheus.CounterVec
	transfersTotal *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
}

func New(serviceName string) *PrometheusMetrics {
	m := &PrometheusMetrics{registry: prometheus.NewRegistry()}

	m.callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_calls_total", serviceName),
			Help: "Entry point calls by method and outcome tag",
		},
		[]string{"method", "outcome"},
	)
	m.payoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_payouts_total", serviceName),
			Help: "Accepted submissions paid out",
		},
		[]string{"asset"},
	)
	// Float conversion loses precision above 2^53; good enough for dashboards.
	m.payoutVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_payout_gross_units_total", serviceName),
			Help: "Gross reward volume in smallest units",
		},
		[]string{"asset"},
	)
	m.feeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_payout_fee_units_total", serviceName),
			Help: "Platform fee volume in smallest units",
		},
		[]string{"asset"},
	)
	m.transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_transfers_total", serviceName),
			Help: "Outbound transfers by reason and status",
		},
		[]string{"reason", "status"},
	)
	m.eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_events_total", serviceName),
			Help: "Event log records by pipeline stage",
		},
		[]string{"stage"},
	)

	m.registry.MustRegister(
		m.callsTotal,
		m.payoutsTotal,
		m.payoutVolume,
		m.feeVolume,
		m.transfersTotal,
		m.eventsTotal,
	)
	return m
}

func (m *PrometheusMetrics) ObserveCall(method string, outcome string) {
	m.callsTotal.WithLabelValues(method, outcome).Inc()
}

func (m *PrometheusMetrics) ObservePayout(assetKey string, gross entities.Balance, fee entities.Balance) {
	m.payoutsTotal.WithLabelValues(assetKey).Inc()
	m.payoutVolume.WithLabelValues(assetKey).Add(gross.Float64())
	m.feeVolume.WithLabelValues(assetKey).Add(fee.Float64())
}

func (m *PrometheusMetrics) ObserveTransfer(reason entities.TransferReason, status entities.TransferStatus) {
	m.transfersTotal.WithLabelValues(string(reason), string(status)).Inc()
}

func (m *PrometheusMetrics) ObserveEvents(stage string, count int) {
	if count <= 0 {
		return
	}
	m.eventsTotal.WithLabelValues(stage).Add(float64(count))
}

// Handler serves this instance's registry.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

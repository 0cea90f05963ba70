package monitoring

import (
	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.RelayMetrics on the default registry.
type PrometheusCollector struct {
	sessionsActive prometheus.Gauge
	peersConnected prometheus.Gauge

	sessionsCreatedTotal prometheus.Counter
	sessionsReapedTotal  prometheus.Counter

	envelopesRelayedTotal *prometheus.CounterVec
	droppedDeliveries     *prometheus.CounterVec
	historyAppendsTotal   *prometheus.CounterVec

	backpressureDisconnectsTotal prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "whiteboard_sessions_active",
			Help: "Number of live whiteboard sessions",
		}),

		peersConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "whiteboard_peers_connected",
			Help: "Number of peers currently joined to a session",
		}),

		sessionsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_sessions_created_total",
			Help: "Total number of sessions created",
		}),

		sessionsReapedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_sessions_reaped_total",
			Help: "Total number of empty sessions reaped",
		}),

		envelopesRelayedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "whiteboard_envelopes_relayed_total",
			Help: "Total number of relayed envelopes by type",
		}, []string{"type"}),

		droppedDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "whiteboard_dropped_deliveries_total",
			Help: "Total number of envelope deliveries dropped, by reason",
		}, []string{"reason"}),

		historyAppendsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "whiteboard_history_appends_total",
			Help: "Total number of drawing history appends by outcome",
		}, []string{"outcome"}),

		backpressureDisconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "whiteboard_backpressure_disconnects_total",
			Help: "Total number of peers disconnected for a full send queue",
		}),
	}
}

var _ ports.RelayMetrics = (*PrometheusCollector)(nil)

func (p *PrometheusCollector) RecordSessionCreated(domain.SessionID) {
	p.sessionsActive.Inc()
	p.sessionsCreatedTotal.Inc()
}

func (p *PrometheusCollector) RecordSessionReaped(domain.SessionID) {
	p.sessionsActive.Dec()
	p.sessionsReapedTotal.Inc()
}

func (p *PrometheusCollector) RecordPeerJoined(domain.SessionID) {
	p.peersConnected.Inc()
}

func (p *PrometheusCollector) RecordPeerLeft(domain.SessionID) {
	p.peersConnected.Dec()
}

func (p *PrometheusCollector) RecordEnvelopeRelayed(envType domain.EnvelopeType) {
	p.envelopesRelayedTotal.WithLabelValues(string(envType)).Inc()
}

func (p *PrometheusCollector) RecordDroppedDelivery(reason string) {
	p.droppedDeliveries.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordHistoryAppend(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	p.historyAppendsTotal.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) RecordBackpressureDisconnect() {
	p.backpressureDisconnectsTotal.Inc()
}

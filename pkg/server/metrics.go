package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for one Server.
type metrics struct {
	clientsActive     prometheus.Gauge
	clientsTotal      prometheus.Counter
	disconnectsTotal  *prometheus.CounterVec
	cyclesTotal       prometheus.Counter
	cycleDuration     prometheus.Histogram
	broadcastBytes    *prometheus.CounterVec
	positionsReceived prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		clientsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridcast",
			Name:      "clients_active",
			Help:      "Number of clients past the handshake and receiving broadcasts",
		}),
		clientsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "clients_total",
			Help:      "Total number of accepted connections",
		}),
		disconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "disconnects_total",
			Help:      "Total number of disconnected clients by reason",
		}, []string{"reason"}),
		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "broadcast_cycles_total",
			Help:      "Total number of broadcast cycles",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridcast",
			Name:      "broadcast_cycle_duration_seconds",
			Help:      "Time to quantize and send one frame to all clients",
			Buckets:   prometheus.DefBuckets,
		}),
		broadcastBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "broadcast_bytes_total",
			Help:      "Total compressed bytes sent to clients by frame kind",
		}, []string{"kind"}),
		positionsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "positions_received_total",
			Help:      "Total viewer position updates received",
		}),
	}
}

// Disconnect reasons used as metric labels.
const (
	reasonClosed    = "closed"
	reasonHandshake = "handshake"
	reasonViolation = "violation"
	reasonSend      = "send"
	reasonShutdown  = "shutdown"
)

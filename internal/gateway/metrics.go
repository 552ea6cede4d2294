package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts routing outcomes per pool.
type Metrics struct {
	Forwards   *prometheus.CounterVec
	Rejections prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Forwards: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_gateway_forwards_total",
			Help: "Requests forwarded, labelled by downstream pool",
		}, []string{"pool"}),
		Rejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_gateway_rejections_total",
			Help: "Requests rejected by the path/verb routing policy",
		}),
	}
}

// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tiendapos"

// Registry is private to the service so tests can read it without global state leaking.
var Registry = prometheus.NewRegistry()

var (
	VentasRegistradas = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ventas_registradas_total",
		Help:      "Ventas confirmadas.",
	})
	DevolucionesRegistradas = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "devoluciones_registradas_total",
		Help:      "Devoluciones confirmadas.",
	})
	TransferenciasStock = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transferencias_stock_total",
		Help:      "Transferencias de stock entre grupos.",
	})
	Recaudaciones = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recaudaciones_total",
		Help:      "Retiros de recaudacion registrados.",
	})
	PendientesConciliados = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movimientos_pendientes_conciliados_total",
		Help:      "Movimientos pendientes volcados a una caja abierta.",
	})
	HTTPRequestDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latencia de las requests HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

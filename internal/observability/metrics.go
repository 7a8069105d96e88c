// Package observability exposes the simulator's Prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ShiftTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_corridor_shift_ticks_total",
		Help: "Corridor shift cycles executed.",
	})

	CorridorsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_corridors_activated_total",
		Help: "Dormant corridors brought online by shifts.",
	})

	CorridorsDeactivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_corridors_deactivated_total",
		Help: "Active corridors collapsed by shifts.",
	})

	NewsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_news_delivered_total",
		Help: "News entries posted to chat.",
	})

	NewsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_news_queued_total",
		Help: "News entries scheduled for delivery.",
	})

	NPCDeaths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_npc_deaths_total",
		Help: "Dynamic NPC deaths from all causes.",
	})

	LiveNPCs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "galaxy_npcs_alive",
		Help: "Living dynamic NPC population.",
	})

	LoopErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "galaxy_loop_errors_total",
		Help: "Errors inside background loops.",
	}, []string{"loop"})

	HistoryEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxy_history_events_total",
		Help: "Historical events written by the generator.",
	})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnvelopesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_agent", Name: "envelopes_total", Help: "Realtime envelopes received by type"},
		[]string{"type"},
	)
	WSReconnects = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "ws_reconnects_total", Help: "Realtime channel reconnect attempts"})
	WSConnected  = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_agent", Name: "ws_connected", Help: "1 while the realtime channel is connected"})

	OffersEnqueued  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "offers_enqueued_total", Help: "Offers admitted to the queue"})
	OffersDuplicate = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "offers_duplicate_total", Help: "Offers dropped as duplicates or already declined"})
	OfferOutcomes   = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_agent", Name: "offer_outcomes_total", Help: "Offer decisions by outcome"},
		[]string{"outcome"},
	)

	PollsTotal        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "booking_polls_total", Help: "Booking poll requests issued"})
	ReconcileApplied  = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_agent", Name: "reconcile_applied_total", Help: "Booking updates applied by source"},
		[]string{"source"},
	)
	ReconcileRejected = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "reconcile_rejected_total", Help: "Booking updates rejected as status regressions"})

	RouteFetches     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "route_fetches_total", Help: "Route requests issued to the map service"})
	RouteStaleDrops  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "route_stale_dropped_total", Help: "Route responses discarded because a newer request superseded them"})
	RouteFetchErrors = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "route_fetch_errors_total", Help: "Route requests that failed"})

	LocationPushes = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_agent", Name: "location_pushes_total", Help: "Driver location updates pushed to tracking"})
)

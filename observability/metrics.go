package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/frontdesk/generic"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "frontdesk", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ReservationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "reservation_transitions_total", Help: "Committed reservation operations."},
		[]string{"transition"}, // create|edit|check_in|check_out|cancel
	)
	LedgerEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "ledger_entries_total", Help: "Ledger entries appended."},
		[]string{"kind", "origin"},
	)
	DrawerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "drawer_sessions_total", Help: "Drawer sessions opened/closed."},
		[]string{"event"},
	)
	Relocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "relocations_total", Help: "Relocation outcomes."},
		[]string{"outcome"}, // relocated|rejected
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels/errors."},
		[]string{"cache", "event"},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "frontdesk", Name: "events_published_total", Help: "Domain events handed to the broker."},
		[]string{"type", "status"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ReservationTransitions, LedgerEntries,
		DrawerEvents, Relocations, CacheEvents, EventsPublished)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveTransition(name string) { ReservationTransitions.WithLabelValues(name).Inc() }

func ObserveLedger(kind generic.EntryKind, origin generic.EntryOrigin) {
	LedgerEntries.WithLabelValues(string(kind), string(origin)).Inc()
}

func ObserveDrawer(event string) { DrawerEvents.WithLabelValues(event).Inc() }

func ObserveRelocation(outcome string) { Relocations.WithLabelValues(outcome).Inc() }

func ObserveCache(cache, event string) { // event: hit|miss|set|del|error
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObservePublish(eventType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(eventType, status).Inc()
}

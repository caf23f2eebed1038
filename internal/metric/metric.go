package metric

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"icsgen/internal/ics"
)

var (
	EventsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "icsgen_events_added_total",
		Help: "Events successfully added to a calendar document",
	})

	// AddFailures is labelled by reason: missing_field, invalid_time.
	AddFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icsgen_event_add_failures_total",
		Help: "Events rejected when adding to a calendar document",
	}, []string{"reason"})

	// ExportsTotal is labelled by exporter: file, writer, http.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icsgen_exports_total",
		Help: "Rendered calendars handed to an exporter",
	}, []string{"target"})

	// RebuildsTotal is labelled by trigger (cron, watch, manual) and result.
	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "icsgen_rebuilds_total",
		Help: "Scheduled calendar rebuilds",
	}, []string{"trigger", "result"})
)

// ObserveAdd records the outcome of a Document.AddEvent call.
func ObserveAdd(err error) {
	switch {
	case err == nil:
		EventsAdded.Inc()
	case errors.Is(err, ics.ErrMissingField):
		AddFailures.WithLabelValues("missing_field").Inc()
	case errors.Is(err, ics.ErrInvalidTime):
		AddFailures.WithLabelValues("invalid_time").Inc()
	default:
		AddFailures.WithLabelValues("other").Inc()
	}
}

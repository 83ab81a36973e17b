// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "events_handled_total",
		Help:      "Inbound chat events by kind and outcome.",
	}, []string{"kind", "outcome"})

	FormTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "form_transitions_total",
		Help:      "Leave form transitions by target step.",
	}, []string{"to"})

	LeaveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "leave_requests_total",
		Help:      "Leave and late reports written, by type and source.",
	}, []string{"type", "source"})

	Scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "scans_total",
		Help:      "Scan logs recorded, by status.",
	}, []string{"status"})

	NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "notify_failures_total",
		Help:      "Failed outbound replies and pushes.",
	}, []string{"channel"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the HTTP rate limiter.",
	})
)

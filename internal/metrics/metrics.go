// Package metrics holds the Prometheus instruments for upload lifecycle
// reconciliation. They are registered on the default registry and served
// from /metrics by cmd/api.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsReadyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_posts_ready_total",
		Help: "Posts transitioned to ready, by reconciliation source.",
	}, []string{"source"})

	ReconcilePassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reels_reconcile_passes_total",
		Help: "Poll reconciliation passes over uploading posts.",
	})

	ProviderPollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reels_provider_poll_errors_total",
		Help: "Upload status probes that failed at the transport level.",
	})

	WebhookEventsIgnoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_webhook_events_ignored_total",
		Help: "Provider webhook events acknowledged but not acted on.",
	}, []string{"reason"})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartecobin_readings_ingested_total",
		Help: "Total sensor readings processed, labelled by ingest status.",
	}, []string{"status"})

	SequenceGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartecobin_sequence_gaps_total",
		Help: "Total accepted readings whose sequence number skipped past last+1.",
	})

	ConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartecobin_conflict_retries_total",
		Help: "Total ingest retries caused by a concurrent bin mutation.",
	})

	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartecobin_notifications_emitted_total",
		Help: "Total notifications emitted, labelled by severity and reason.",
	}, []string{"severity", "reason"})

	NotificationsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartecobin_notifications_resolved_total",
		Help: "Total notification delivery resolutions, labelled by final status.",
	}, []string{"status"})

	CommandsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartecobin_commands_resolved_total",
		Help: "Total action commands resolved, labelled by type and outcome.",
	}, []string{"command", "outcome"})
)

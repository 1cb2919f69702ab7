package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Sign-in attempts by method and result",
		},
		[]string{"method", "result"},
	)

	identityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_resolutions_total",
			Help: "External identities resolved, by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	identityResolveConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_resolve_conflicts_total",
			Help: "Resolution attempts rolled back by a concurrent insert of the same identity or email",
		},
		[]string{"provider"},
	)

	translationJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translation_jobs_total",
			Help: "Translation jobs by final status",
		},
		[]string{"status"},
	)

	translationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translation_provider_duration_seconds",
			Help:    "Time spent waiting for the translation provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

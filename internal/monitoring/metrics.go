// Package monitoring holds the package logger and the prometheus
// collectors the api server and CLI publish.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts identification attempts, labelled by outcome
	// ("match", "no_match", "error").
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "touchstone",
		Name:      "scans_total",
		Help:      "Identification attempts by outcome.",
	}, []string{"outcome"})

	// EnrollmentsTotal counts enrollment attempts, labelled by outcome
	// ("ok", "error").
	EnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "touchstone",
		Name:      "enrollments_total",
		Help:      "Enrollment attempts by outcome.",
	}, []string{"outcome"})

	// TemplatesStored tracks the template count reported by the sensor at
	// the last refresh.
	TemplatesStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "touchstone",
		Name:      "templates_stored",
		Help:      "Templates stored on the sensor at last refresh.",
	})

	// MatchAccuracy observes the accuracy score of successful matches.
	MatchAccuracy = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "touchstone",
		Name:      "match_accuracy",
		Help:      "Accuracy score distribution of successful matches.",
		Buckets:   prometheus.LinearBuckets(0, 50, 10),
	})
)

// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveLobbies tracks the number of registered lobbies.
	ActiveLobbies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bargebo_active_lobbies",
		Help: "Number of currently registered lobbies.",
	})

	// ConnectedClients tracks open websocket connections.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bargebo_connected_clients",
		Help: "Number of currently connected websocket clients.",
	})

	// RoundsStarted counts rounds that actually started (audio resolved).
	RoundsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargebo_rounds_started_total",
		Help: "Total rounds started across all lobbies.",
	})

	// RoundStartFailures counts aborted round starts (candidate selection or
	// audio resolution).
	RoundStartFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargebo_round_start_failures_total",
		Help: "Total aborted round starts.",
	})

	// AnswersSubmitted counts accepted answer submissions, by correctness.
	AnswersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bargebo_answers_submitted_total",
		Help: "Total accepted answer submissions.",
	}, []string{"correct"})
)

package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	combatsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_combats_started_total",
		Help: "Total number of combats started.",
	})

	actionsTakenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_actions_taken_total",
			Help: "Total number of combat actions taken, by category.",
		},
		[]string{"category"},
	)

	turnsAdvancedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_turns_advanced_total",
		Help: "Total number of turn advances.",
	})

	diceRolledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_dice_rolls_total",
		Help: "Total number of dice rolls submitted.",
	})

	broadcastDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_broadcast_degraded_total",
		Help: "Total number of mutations persisted without a successful realtime broadcast.",
	})
)

func trackBroadcast(degraded bool) {
	if degraded {
		broadcastDegradedTotal.Inc()
	}
}

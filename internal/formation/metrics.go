package formation

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// status: success, in_progress, data_integrity, delegate, error
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "team_formation_runs_total",
			Help: "Total number of team formation runs",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "team_formation_duration_seconds",
			Help:    "Time spent on a team formation run, including the completion call",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"status"},
	)

	teamsFormed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "team_formation_teams_current",
			Help: "Number of teams stored by the last successful run",
		},
	)
)

func runStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrFormationInProgress):
		return "in_progress"
	case IsDataIntegrity(err):
		return "data_integrity"
	case IsDelegateFailure(err):
		return "delegate"
	default:
		return "error"
	}
}

package reconcile

import "github.com/prometheus/client_golang/prometheus"

var (
	// usersChecked counts users examined by the loop, by outcome:
	// "unchanged", "changed", or "error".
	usersChecked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_users_total",
			Help: "Users processed by the reconciliation loop, by outcome.",
		},
		[]string{"outcome"},
	)

	// recordsCreated counts store rows created for uids that were new
	// to the directory snapshot.
	recordsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_records_created_total",
			Help: "Presence records created for newly discovered users.",
		},
	)

	// patchFailures counts upserts dropped because the store rejected
	// the write. These are retried naturally on the next run.
	patchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_patch_failures_total",
			Help: "Record-store writes that failed and were dropped for the run.",
		},
	)

	// runDuration observes full loop duration in seconds.
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_run_duration_seconds",
			Help:    "Duration of full reconciliation runs in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(usersChecked, recordsCreated, patchFailures, runDuration)
}

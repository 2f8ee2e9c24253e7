package training

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "traind",
			Subsystem: "training",
			Name:      "jobs_started_total",
			Help:      "Total training jobs accepted",
		},
	)

	jobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traind",
			Subsystem: "training",
			Name:      "jobs_finished_total",
			Help:      "Total training jobs finished, by terminal state",
		},
		[]string{"state"},
	)

	jobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "traind",
			Subsystem: "training",
			Name:      "jobs_active",
			Help:      "Training jobs not yet in a terminal state",
		},
	)

	epochsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "traind",
			Subsystem: "training",
			Name:      "epochs_total",
			Help:      "Total epochs completed across all jobs",
		},
	)

	framesPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "traind",
			Subsystem: "training",
			Name:      "progress_frames_total",
			Help:      "Total progress frames published",
		},
	)

	subscribersDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "traind",
			Subsystem: "training",
			Name:      "progress_subscribers_dropped_total",
			Help:      "Subscribers removed after a failed delivery",
		},
	)
)

func init() {
	prometheus.MustRegister(
		jobsStartedTotal,
		jobsFinishedTotal,
		jobsActive,
		epochsTotal,
		framesPublishedTotal,
		subscribersDroppedTotal,
	)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(workerJobsTotal, schedulerRunsTotal) }

var (
	workerJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_total",
			Help:      "Background jobs processed by the worker pool, labeled by job and status.",
		},
		[]string{"job", "status"}, // 'ok', 'failed', 'dropped'
	)

	schedulerRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Periodic task executions.",
		},
		[]string{"task"},
	)
)

func IncWorkerJob(job, status string) {
	workerJobsTotal.WithLabelValues(norm(job), norm(status)).Inc()
}

func IncSchedulerRun(task string) {
	schedulerRunsTotal.WithLabelValues(norm(task)).Inc()
}

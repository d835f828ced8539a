package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		stepViewsTotal,
		stepRedirectsTotal,
		stepTransitionsTotal,
		submissionsTotal,
		guardDecisionsTotal,
		attachmentsEvictedTotal,
		onboardedUsers,
	)
}

var (
	stepViewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "step_views_total",
			Help:      "Step views rendered, labeled by step.",
		},
		[]string{"step"},
	)

	stepRedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "step_redirects_total",
			Help:      "Redirects issued instead of mounting a step.",
		},
		[]string{"step", "reason"}, // 'prerequisite', 'not_applicable', 'completed'
	)

	stepTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "step_transitions_total",
			Help:      "Forward and backward moves between steps.",
		},
		[]string{"from", "direction"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "submissions_total",
			Help:      "Final submissions, labeled by user type and result.",
		},
		[]string{"user_type", "result"},
	)

	guardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "guard_decisions_total",
			Help:      "Completion guard outcomes on application routes.",
		},
		[]string{"decision"}, // 'pass_anonymous', 'pass_guest', 'pass_complete', 'redirect'
	)

	attachmentsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "attachments_evicted_total",
			Help:      "Session attachments dropped by the periodic sweep.",
		},
	)

	onboardedUsers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "onboarding",
			Name:      "users",
			Help:      "Registered users by onboarding state.",
		},
		[]string{"state"}, // 'total', 'completed'
	)
)

func IncStepView(step string) {
	stepViewsTotal.WithLabelValues(norm(step)).Inc()
}

func IncStepRedirect(step, reason string) {
	stepRedirectsTotal.WithLabelValues(norm(step), norm(reason)).Inc()
}

func IncStepTransition(from, direction string) {
	stepTransitionsTotal.WithLabelValues(norm(from), norm(direction)).Inc()
}

func IncSubmission(userType, result string) {
	submissionsTotal.WithLabelValues(norm(userType), norm(result)).Inc()
}

func IncGuardDecision(decision string) {
	guardDecisionsTotal.WithLabelValues(norm(decision)).Inc()
}

func AddAttachmentsEvicted(n int) {
	attachmentsEvictedTotal.Add(float64(n))
}

func SetOnboardedUsers(total, completed int) {
	onboardedUsers.WithLabelValues("total").Set(float64(total))
	onboardedUsers.WithLabelValues("completed").Set(float64(completed))
}

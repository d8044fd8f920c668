package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the referral tracking pipeline, exposed on /metrics.
var (
	ApplicationsCreated = promauto.NewCounter(prom.CounterOpts{
		Name: "reflens_applications_created_total",
		Help: "Applications registered together with a referral code.",
	})

	VisitsLogged = promauto.NewCounter(prom.CounterOpts{
		Name: "reflens_visits_logged_total",
		Help: "Referral visits accepted and persisted.",
	})

	VisitsSuppressed = promauto.NewCounter(prom.CounterOpts{
		Name: "reflens_visits_suppressed_total",
		Help: "Referral visits dropped by the per-source rate limit.",
	})

	FirstVisitNotifications = promauto.NewCounter(prom.CounterOpts{
		Name: "reflens_first_visit_notifications_total",
		Help: "First-visit notification emails successfully sent.",
	})
)

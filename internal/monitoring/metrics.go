package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	paymentsAuthorized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_authorized_total",
			Help: "Completed payment authorizations by revenue source",
		},
		[]string{"source"},
	)

	paymentsDeclined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_declined_total",
			Help: "Payment authorizations declined by the gateway",
		},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Post-payment side effects that failed and need operator retry",
		},
		[]string{"effect"},
	)

	stockAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_decrement_anomalies_total",
			Help: "Merchandise purchases that found stock already at zero",
		},
	)

	rewardUnits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_units_issued_total",
			Help: "Loyalty units issued as payment side effects",
		},
	)
)

// RecordAuthorized counts a completed authorization
func RecordAuthorized(source string) {
	paymentsAuthorized.WithLabelValues(source).Inc()
}

// RecordDeclined counts a gateway decline
func RecordDeclined() {
	paymentsDeclined.Inc()
}

// RecordSideEffectFailure counts a failed post-payment effect
// (effect is one of: ticket_activation, stock_decrement, reward_issue, ticket_revoke)
func RecordSideEffectFailure(effect string) {
	sideEffectFailures.WithLabelValues(effect).Inc()
}

// RecordStockAnomaly counts a zero-stock purchase no-op
func RecordStockAnomaly() {
	stockAnomalies.Inc()
}

// RecordRewardUnits counts issued loyalty units
func RecordRewardUnits(units int64) {
	rewardUnits.Add(float64(units))
}

// Handler returns the /metrics endpoint handler
func Handler() http.Handler {
	return promhttp.Handler()
}

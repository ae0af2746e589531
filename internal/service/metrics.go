package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	withdrawalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_requests_total",
			Help: "Withdrawal requests by outcome",
		},
		[]string{"outcome"},
	)
	withdrawalDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_decisions_total",
			Help: "Admin decisions on withdrawals by resulting status",
		},
		[]string{"status"},
	)
	withdrawalCancellations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "withdrawal_cancellations_total",
			Help: "Withdrawals cancelled by their owner",
		},
	)
	methodCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_method_cache_lookups_total",
			Help: "Payment method catalog lookups by cache result",
		},
		[]string{"result"},
	)
)

// outcomeOf labels a processor result for withdrawalRequests.
func outcomeOf(err error) string {
	if err == nil {
		return "created"
	}
	return KindOf(err).String()
}

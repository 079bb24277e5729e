package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosafe_orders_submitted_total",
			Help: "Total number of orders submitted (by decision action).",
		},
		[]string{"action"},
	)

	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosafe_orders_rejected_total",
			Help: "Orders refused by the executor (by decision action).",
		},
		[]string{"action"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gosafe_positions_open",
			Help: "Number of open positions in the current run.",
		},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gosafe_equity",
			Help: "Current equity of the paper executor.",
		},
	)

	CandidateRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosafe_candidate_runs_total",
			Help: "Backtest runs executed by the optimizer (by phase).",
		},
		[]string{"phase"},
	)

	BestReturn = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gosafe_best_total_return",
			Help: "Terminal return of the best candidate of the last sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersSubmitted, OrdersRejected, PositionsOpen, EquityGauge, CandidateRuns, BestReturn)
}

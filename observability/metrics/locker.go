package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LockerMetrics struct {
	campaignsCreated prometheus.Counter
	claimsProcessed  prometheus.Counter
	incentivesMoved  *prometheus.CounterVec
	feesAccrued      prometheus.Counter
	eventsEmitted    *prometheus.CounterVec
}

var (
	lockerOnce     sync.Once
	lockerRegistry *LockerMetrics
)

func Locker() *LockerMetrics {
	lockerOnce.Do(func() {
		lockerRegistry = &LockerMetrics{
			campaignsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "locker_campaigns_created_total",
				Help: "Count of campaigns created in the registry.",
			}),
			claimsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "locker_claims_processed_total",
				Help: "Count of settled claim payouts.",
			}),
			incentivesMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "locker_incentives_moved_total",
				Help: "Count of incentive mutations by direction (add, remove).",
			}, []string{"direction"}),
			feesAccrued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "locker_fee_accruals_total",
				Help: "Count of claim settlements that accrued a protocol fee.",
			}),
			eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "locker_events_emitted_total",
				Help: "Count of engine events emitted by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			lockerRegistry.campaignsCreated,
			lockerRegistry.claimsProcessed,
			lockerRegistry.incentivesMoved,
			lockerRegistry.feesAccrued,
			lockerRegistry.eventsEmitted,
		)
	})
	return lockerRegistry
}

func (m *LockerMetrics) ObserveCampaignCreated() {
	if m == nil {
		return
	}
	m.campaignsCreated.Inc()
}

func (m *LockerMetrics) ObserveClaim() {
	if m == nil {
		return
	}
	m.claimsProcessed.Inc()
}

func (m *LockerMetrics) ObserveIncentiveMove(direction string) {
	if m == nil {
		return
	}
	if direction == "" {
		direction = "unknown"
	}
	m.incentivesMoved.WithLabelValues(direction).Inc()
}

func (m *LockerMetrics) ObserveFeeAccrual() {
	if m == nil {
		return
	}
	m.feesAccrued.Inc()
}

func (m *LockerMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}

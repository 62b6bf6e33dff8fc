package metrics

import "lockstream/core/events"

// EventEmitter forwards engine events to an inner emitter while counting
// them. Every event increments the by-type counter; lifecycle events
// additionally drive their dedicated counters. Wrapping the daemon's emitter
// with it keeps the engines free of any metrics awareness.
type EventEmitter struct {
	inner   events.Emitter
	metrics *LockerMetrics
}

// NewEventEmitter wraps inner with event counting. A nil inner discards
// events after counting them.
func NewEventEmitter(inner events.Emitter) *EventEmitter {
	if inner == nil {
		inner = events.NoopEmitter{}
	}
	return &EventEmitter{inner: inner, metrics: Locker()}
}

// Emit implements events.Emitter.
func (e *EventEmitter) Emit(event events.Event) {
	if e == nil || event == nil {
		return
	}
	e.metrics.ObserveEvent(event.EventType())
	switch ev := event.(type) {
	case events.CampaignCreated:
		e.metrics.ObserveCampaignCreated()
	case events.CampaignIncentivesAdded:
		e.metrics.ObserveIncentiveMove("add")
	case events.CampaignIncentivesRemoved:
		e.metrics.ObserveIncentiveMove("remove")
	case events.CampaignClaimed:
		e.metrics.ObserveClaim()
		if ev.Fee != nil && ev.Fee.Sign() > 0 {
			e.metrics.ObserveFeeAccrual()
		}
	}
	e.inner.Emit(event)
}

package metrics

import (
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"lockstream/core/events"
)

type captureEmitter struct {
	seen []events.Event
}

func (c *captureEmitter) Emit(event events.Event) {
	c.seen = append(c.seen, event)
}

func TestEventEmitterDrivesCounters(t *testing.T) {
	inner := &captureEmitter{}
	emitter := NewEventEmitter(inner)
	m := Locker()

	// The registry is process-global, so assert deltas over the baseline.
	createdBefore := testutil.ToFloat64(m.campaignsCreated)
	claimsBefore := testutil.ToFloat64(m.claimsProcessed)
	feesBefore := testutil.ToFloat64(m.feesAccrued)
	addedBefore := testutil.ToFloat64(m.incentivesMoved.WithLabelValues("add"))
	removedBefore := testutil.ToFloat64(m.incentivesMoved.WithLabelValues("remove"))

	emitter.Emit(events.CampaignCreated{})
	emitter.Emit(events.CampaignIncentivesAdded{Count: 1})
	emitter.Emit(events.CampaignIncentivesRemoved{Count: 1})
	emitter.Emit(events.CampaignClaimed{Gross: big.NewInt(100), Fee: big.NewInt(10), Net: big.NewInt(90)})
	emitter.Emit(events.CampaignClaimed{Gross: big.NewInt(50), Fee: big.NewInt(0), Net: big.NewInt(50)})

	if got := testutil.ToFloat64(m.campaignsCreated) - createdBefore; got != 1 {
		t.Fatalf("campaigns created delta: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.claimsProcessed) - claimsBefore; got != 2 {
		t.Fatalf("claims processed delta: got %v, want 2", got)
	}
	// Only the claim that carried a fee counts as an accrual.
	if got := testutil.ToFloat64(m.feesAccrued) - feesBefore; got != 1 {
		t.Fatalf("fee accruals delta: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.incentivesMoved.WithLabelValues("add")) - addedBefore; got != 1 {
		t.Fatalf("incentive adds delta: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.incentivesMoved.WithLabelValues("remove")) - removedBefore; got != 1 {
		t.Fatalf("incentive removes delta: got %v, want 1", got)
	}

	if len(inner.seen) != 5 {
		t.Fatalf("inner emitter saw %d events, want 5", len(inner.seen))
	}
}

func TestEventEmitterCountsByType(t *testing.T) {
	emitter := NewEventEmitter(nil)
	m := Locker()

	before := testutil.ToFloat64(m.eventsEmitted.WithLabelValues(events.CampaignCreated{}.EventType()))
	emitter.Emit(events.CampaignCreated{})
	after := testutil.ToFloat64(m.eventsEmitted.WithLabelValues(events.CampaignCreated{}.EventType()))
	if after-before != 1 {
		t.Fatalf("by-type counter delta: got %v, want 1", after-before)
	}
}

package stream

import "math/big"

// PrecisionFactor scales every rate and per-unit-weight value. A rate of
// amount*PrecisionFactor/duration streams `amount` whole units over the
// window.
var PrecisionFactor = big.NewInt(1_000_000_000_000_000_000)

// StreamState is the global accrual state of one incentive within a
// campaign: a monotonically non-decreasing per-unit-of-weight accumulator,
// the time it was last advanced, and the current emission rate (scaled).
type StreamState struct {
	Accumulated *big.Int
	LastUpdate  uint64
	Rate        *big.Int
}

func (s *StreamState) normalize() {
	if s.Accumulated == nil {
		s.Accumulated = big.NewInt(0)
	}
	if s.Rate == nil {
		s.Rate = big.NewInt(0)
	}
}

// Flush advances the accumulator through min(now, end). With no weight in
// the system nothing accrues and only the clock advances; every division
// rounds down, so the stream can only under-distribute, never promise more
// than the locked budget.
func (s *StreamState) Flush(now, start, end uint64, totalWeight *big.Int) {
	s.normalize()
	if now <= start {
		return
	}
	clampedNow := now
	if clampedNow > end {
		clampedNow = end
	}
	if clampedNow <= s.LastUpdate {
		return
	}
	elapsed := clampedNow - s.LastUpdate
	if totalWeight == nil || totalWeight.Sign() == 0 {
		s.LastUpdate = clampedNow
		return
	}
	accrued := new(big.Int).Mul(new(big.Int).SetUint64(elapsed), s.Rate)
	accrued.Div(accrued, totalWeight)
	s.Accumulated.Add(s.Accumulated, accrued)
	s.LastUpdate = clampedNow
}

// ParticipantStream is the lazy per-participant snapshot: the accumulator
// value at last settlement and the amount owed so far.
type ParticipantStream struct {
	AccumulatedAt *big.Int
	Owed          *big.Int
}

func (p *ParticipantStream) normalize() {
	if p.AccumulatedAt == nil {
		p.AccumulatedAt = big.NewInt(0)
	}
	if p.Owed == nil {
		p.Owed = big.NewInt(0)
	}
}

// Settle folds the accumulator delta since the last settlement into the
// participant's owed balance at their current weight. It must run before the
// participant's weight changes.
func (p *ParticipantStream) Settle(weight, accumulated *big.Int) {
	p.normalize()
	if accumulated == nil {
		return
	}
	delta := new(big.Int).Sub(accumulated, p.AccumulatedAt)
	if delta.Sign() > 0 && weight != nil && weight.Sign() > 0 {
		earned := new(big.Int).Mul(weight, delta)
		earned.Div(earned, PrecisionFactor)
		p.Owed.Add(p.Owed, earned)
	}
	p.AccumulatedAt = new(big.Int).Set(accumulated)
}

// AdjustRate recomputes the emission rate after `delta` is added to
// (positive) or removed from (negative) the incentive budget mid-stream.
// The caller must have flushed the accumulator first so the adjustment never
// applies retroactively to an unflushed window.
func AdjustRate(rate *big.Int, now, start, end uint64, delta *big.Int) (*big.Int, error) {
	if rate == nil {
		rate = big.NewInt(0)
	}
	from := now
	if from < start {
		from = start
	}
	if from >= end {
		return nil, ErrWindowElapsed
	}
	remaining := new(big.Int).SetUint64(end - from)

	unstreamed := new(big.Int).Mul(rate, remaining)
	unstreamed.Div(unstreamed, PrecisionFactor)
	newUnstreamed := new(big.Int).Add(unstreamed, delta)
	if newUnstreamed.Sign() < 0 {
		return nil, ErrRemoveExceedsAccrued
	}
	newRate := new(big.Int).Mul(newUnstreamed, PrecisionFactor)
	newRate.Div(newRate, remaining)
	if newRate.Sign() == 0 {
		// A zero rate would silently stall the campaign.
		return nil, ErrZeroRate
	}
	return newRate, nil
}

// InitialRate computes the emission rate that streams `amount` over the
// window [start, end].
func InitialRate(amount *big.Int, start, end uint64) (*big.Int, error) {
	if end <= start {
		return nil, ErrZeroDuration
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroRate
	}
	rate := new(big.Int).Mul(amount, PrecisionFactor)
	rate.Div(rate, new(big.Int).SetUint64(end-start))
	if rate.Sign() == 0 {
		return nil, ErrZeroRate
	}
	return rate, nil
}

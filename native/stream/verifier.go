package stream

import (
	"fmt"
	"math/big"
	"time"

	"lockstream/core/events"
	"lockstream/native/campaign"
)

// RoleWeigher names the role allowed to report participant weights.
const RoleWeigher = "ROLE_STREAM_WEIGHER"

type verifierState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	HasRole(role string, addr []byte) bool
}

// campaignMeta is the per-campaign streaming bookkeeping: the immutable
// window, the streamed incentive list and the current total weight.
type campaignMeta struct {
	Start       uint64
	End         uint64
	Incentives  []campaign.IncentiveID
	TotalWeight *big.Int
}

func (m *campaignMeta) normalize() {
	if m.TotalWeight == nil {
		m.TotalWeight = big.NewInt(0)
	}
}

func (m *campaignMeta) hasIncentive(id campaign.IncentiveID) bool {
	for _, incentive := range m.Incentives {
		if incentive == id {
			return true
		}
	}
	return false
}

// Verifier distributes each incentive budget linearly over the campaign
// window to participants in proportion to their reported weight, using the
// lazy per-unit-weight accumulator.
type Verifier struct {
	st      verifierState
	emitter events.Emitter
	locker  [20]byte
	nowFn   func() uint64
}

// NewVerifier creates a streaming verifier. locker is the registry module
// address expected on every callback.
func NewVerifier(st verifierState, locker [20]byte) *Verifier {
	return &Verifier{
		st:      st,
		emitter: events.NoopEmitter{},
		locker:  locker,
		nowFn:   func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (v *Verifier) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		v.emitter = events.NoopEmitter{}
		return
	}
	v.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (v *Verifier) SetNowFunc(now func() uint64) {
	if now == nil {
		v.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	v.nowFn = now
}

func (v *Verifier) emit(event events.Event) {
	if v == nil || v.emitter == nil {
		return
	}
	v.emitter.Emit(event)
}

func (v *Verifier) now() uint64 {
	if v == nil || v.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return v.nowFn()
}

func metaKey(id campaign.CampaignID) []byte {
	return append([]byte("stream/campaign/"), id[:]...)
}

func stateKey(id campaign.CampaignID, incentive campaign.IncentiveID) []byte {
	key := append([]byte("stream/state/"), id[:]...)
	return append(key, incentive[:]...)
}

func weightKey(id campaign.CampaignID, ap [20]byte) []byte {
	key := append([]byte("stream/weight/"), id[:]...)
	return append(key, ap[:]...)
}

func participantKey(id campaign.CampaignID, ap [20]byte, incentive campaign.IncentiveID) []byte {
	key := append([]byte("stream/part/"), id[:]...)
	key = append(key, ap[:]...)
	return append(key, incentive[:]...)
}

// --- ActionVerifier callbacks ---

// OnCampaignCreated initialises a stream for every offered incentive at the
// rate that exhausts its budget exactly over the window.
func (v *Verifier) OnCampaignCreated(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.locker {
		return ErrUnauthorized
	}
	window, err := decodeWindow(params)
	if err != nil {
		return err
	}
	if window.End <= window.Start {
		return ErrZeroDuration
	}
	meta := &campaignMeta{Start: window.Start, End: window.End, TotalWeight: big.NewInt(0)}
	for i, incentive := range incentives {
		if meta.hasIncentive(incentive) {
			state, err := v.loadState(id, incentive)
			if err != nil {
				return err
			}
			extra, err := InitialRate(amounts[i], meta.Start, meta.End)
			if err != nil {
				return err
			}
			state.Rate.Add(state.Rate, extra)
			if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
				return err
			}
			continue
		}
		rate, err := InitialRate(amounts[i], meta.Start, meta.End)
		if err != nil {
			return err
		}
		state := &StreamState{Accumulated: big.NewInt(0), LastUpdate: meta.Start, Rate: rate}
		if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
			return err
		}
		meta.Incentives = append(meta.Incentives, incentive)
	}
	return v.st.KVPut(metaKey(id), meta)
}

// OnIncentivesAdded flushes pending accrual, then folds each addition into
// the emission rate over the remaining window. New incentives start
// streaming from now.
func (v *Verifier) OnIncentivesAdded(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.locker {
		return ErrUnauthorized
	}
	meta, err := v.loadMeta(id)
	if err != nil {
		return err
	}
	now := v.now()
	metaDirty := false
	for i, incentive := range incentives {
		if meta.hasIncentive(incentive) {
			state, err := v.loadState(id, incentive)
			if err != nil {
				return err
			}
			state.Flush(now, meta.Start, meta.End, meta.TotalWeight)
			oldRate := new(big.Int).Set(state.Rate)
			newRate, err := AdjustRate(state.Rate, now, meta.Start, meta.End, amounts[i])
			if err != nil {
				return err
			}
			state.Rate = newRate
			if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
				return err
			}
			v.emit(events.StreamRateAdjusted{Campaign: id, Incentive: incentive, OldRate: oldRate, NewRate: new(big.Int).Set(newRate)})
			continue
		}
		from := now
		if from < meta.Start {
			from = meta.Start
		}
		rate, err := InitialRate(amounts[i], from, meta.End)
		if err != nil {
			return err
		}
		state := &StreamState{Accumulated: big.NewInt(0), LastUpdate: from, Rate: rate}
		if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
			return err
		}
		meta.Incentives = append(meta.Incentives, incentive)
		metaDirty = true
	}
	if metaDirty {
		return v.st.KVPut(metaKey(id), meta)
	}
	return nil
}

// OnIncentivesRemoved rejects any removal that would claw back value the
// stream has already emitted, or that would stall the stream entirely.
func (v *Verifier) OnIncentivesRemoved(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, sponsor [20]byte) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.locker {
		return ErrUnauthorized
	}
	meta, err := v.loadMeta(id)
	if err != nil {
		return err
	}
	now := v.now()
	for i, incentive := range incentives {
		if !meta.hasIncentive(incentive) {
			return fmt.Errorf("%w", ErrUnknownIncentive)
		}
		state, err := v.loadState(id, incentive)
		if err != nil {
			return err
		}
		state.Flush(now, meta.Start, meta.End, meta.TotalWeight)
		oldRate := new(big.Int).Set(state.Rate)
		newRate, err := AdjustRate(state.Rate, now, meta.Start, meta.End, new(big.Int).Neg(amounts[i]))
		if err != nil {
			return err
		}
		state.Rate = newRate
		if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
			return err
		}
		v.emit(events.StreamRateAdjusted{Campaign: id, Incentive: incentive, OldRate: oldRate, NewRate: new(big.Int).Set(newRate)})
	}
	return nil
}

// OnClaim flushes every stream, settles the participant lazily and quotes
// the owed balances. The balances stay on the participant record until
// OnClaimSettled deducts them, so a claim the registry rejects forfeits
// nothing. The flush and settle writes are value-preserving either way.
func (v *Verifier) OnClaim(caller [20]byte, ap [20]byte, id campaign.CampaignID, claimParams []byte) (*campaign.ClaimResult, error) {
	if v == nil || v.st == nil {
		return nil, ErrNilState
	}
	if caller != v.locker {
		return nil, ErrUnauthorized
	}
	meta, err := v.loadMeta(id)
	if err != nil {
		return nil, err
	}
	now := v.now()
	weight, err := v.loadWeight(id, ap)
	if err != nil {
		return nil, err
	}
	result := &campaign.ClaimResult{}
	for _, incentive := range meta.Incentives {
		state, err := v.loadState(id, incentive)
		if err != nil {
			return nil, err
		}
		state.Flush(now, meta.Start, meta.End, meta.TotalWeight)
		if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
			return nil, err
		}
		part, err := v.loadParticipant(id, ap, incentive)
		if err != nil {
			return nil, err
		}
		part.Settle(weight, state.Accumulated)
		if part.Owed.Sign() > 0 {
			result.Incentives = append(result.Incentives, incentive)
			result.Amounts = append(result.Amounts, new(big.Int).Set(part.Owed))
		}
		if err := v.st.KVPut(participantKey(id, ap, incentive), part); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// OnClaimSettled deducts the quoted amounts from the participant's owed
// balances once the registry has paid them out.
func (v *Verifier) OnClaimSettled(caller [20]byte, ap [20]byte, id campaign.CampaignID, result *campaign.ClaimResult) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.locker {
		return ErrUnauthorized
	}
	if result == nil {
		return nil
	}
	for i, incentive := range result.Incentives {
		amount := result.Amounts[i]
		if amount == nil || amount.Sign() <= 0 {
			continue
		}
		part, err := v.loadParticipant(id, ap, incentive)
		if err != nil {
			return err
		}
		if amount.Cmp(part.Owed) > 0 {
			return ErrSettleExceedsOwed
		}
		part.Owed = new(big.Int).Sub(part.Owed, amount)
		if err := v.st.KVPut(participantKey(id, ap, incentive), part); err != nil {
			return err
		}
	}
	return nil
}

// --- Weight reporting ---

// SetWeight updates a participant's weight. Callers need the weigher role.
// The participant is settled against every stream before the total weight
// changes, so past accrual is preserved at the old weight.
func (v *Verifier) SetWeight(caller [20]byte, id campaign.CampaignID, ap [20]byte, weight *big.Int) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if !v.st.HasRole(RoleWeigher, caller[:]) {
		return ErrUnauthorized
	}
	if weight == nil || weight.Sign() < 0 {
		return ErrNegativeWeight
	}
	meta, err := v.loadMeta(id)
	if err != nil {
		return err
	}
	now := v.now()
	oldWeight, err := v.loadWeight(id, ap)
	if err != nil {
		return err
	}
	for _, incentive := range meta.Incentives {
		state, err := v.loadState(id, incentive)
		if err != nil {
			return err
		}
		state.Flush(now, meta.Start, meta.End, meta.TotalWeight)
		if err := v.st.KVPut(stateKey(id, incentive), state); err != nil {
			return err
		}
		part, err := v.loadParticipant(id, ap, incentive)
		if err != nil {
			return err
		}
		part.Settle(oldWeight, state.Accumulated)
		if err := v.st.KVPut(participantKey(id, ap, incentive), part); err != nil {
			return err
		}
	}
	meta.TotalWeight.Sub(meta.TotalWeight, oldWeight)
	meta.TotalWeight.Add(meta.TotalWeight, weight)
	if err := v.st.KVPut(metaKey(id), meta); err != nil {
		return err
	}
	if err := v.st.KVPut(weightKey(id, ap), weight); err != nil {
		return err
	}
	v.emit(events.StreamWeightUpdated{Campaign: id, Participant: ap, Weight: new(big.Int).Set(weight), TotalWeight: new(big.Int).Set(meta.TotalWeight)})
	return nil
}

// --- Reads ---

// PendingOwed previews what a claim would pay the participant right now,
// without mutating any state.
func (v *Verifier) PendingOwed(id campaign.CampaignID, ap [20]byte) (map[campaign.IncentiveID]*big.Int, error) {
	if v == nil || v.st == nil {
		return nil, ErrNilState
	}
	meta, err := v.loadMeta(id)
	if err != nil {
		return nil, err
	}
	now := v.now()
	weight, err := v.loadWeight(id, ap)
	if err != nil {
		return nil, err
	}
	owed := make(map[campaign.IncentiveID]*big.Int, len(meta.Incentives))
	for _, incentive := range meta.Incentives {
		state, err := v.loadState(id, incentive)
		if err != nil {
			return nil, err
		}
		state.Flush(now, meta.Start, meta.End, meta.TotalWeight)
		part, err := v.loadParticipant(id, ap, incentive)
		if err != nil {
			return nil, err
		}
		part.Settle(weight, state.Accumulated)
		owed[incentive] = part.Owed
	}
	return owed, nil
}

// TotalWeight returns the current aggregate participant weight.
func (v *Verifier) TotalWeight(id campaign.CampaignID) (*big.Int, error) {
	meta, err := v.loadMeta(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(meta.TotalWeight), nil
}

// Rate returns the current emission rate for one incentive, scaled by
// PrecisionFactor.
func (v *Verifier) Rate(id campaign.CampaignID, incentive campaign.IncentiveID) (*big.Int, error) {
	state, err := v.loadState(id, incentive)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(state.Rate), nil
}

// --- Internals ---

func (v *Verifier) loadMeta(id campaign.CampaignID) (*campaignMeta, error) {
	meta := new(campaignMeta)
	ok, err := v.st.KVGet(metaKey(id), meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCampaignNotTracked
	}
	meta.normalize()
	return meta, nil
}

func (v *Verifier) loadState(id campaign.CampaignID, incentive campaign.IncentiveID) (*StreamState, error) {
	state := new(StreamState)
	ok, err := v.st.KVGet(stateKey(id, incentive), state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w", ErrUnknownIncentive)
	}
	state.normalize()
	return state, nil
}

func (v *Verifier) loadWeight(id campaign.CampaignID, ap [20]byte) (*big.Int, error) {
	weight := new(big.Int)
	ok, err := v.st.KVGet(weightKey(id, ap), weight)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return weight, nil
}

func (v *Verifier) loadParticipant(id campaign.CampaignID, ap [20]byte, incentive campaign.IncentiveID) (*ParticipantStream, error) {
	part := new(ParticipantStream)
	ok, err := v.st.KVGet(participantKey(id, ap, incentive), part)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ParticipantStream{AccumulatedAt: big.NewInt(0), Owed: big.NewInt(0)}, nil
	}
	part.normalize()
	return part, nil
}

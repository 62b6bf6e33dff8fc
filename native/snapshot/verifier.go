package snapshot

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"lockstream/core/events"
	"lockstream/native/campaign"
)

// AssertionID identifies a published root assertion.
type AssertionID [32]byte

// AssertionStatus tracks the lifecycle of a root assertion. Pending
// assertions are inert: they influence nothing until resolved.
type AssertionStatus uint8

const (
	AssertionPending AssertionStatus = iota
	AssertionResolved
	AssertionDiscarded
)

// Assertion is a root published through the assert→liveness→resolve
// protocol. Only a truthful resolution promotes the root; disputes and
// untruthful resolutions discard it.
type Assertion struct {
	ID           AssertionID
	Campaign     campaign.CampaignID
	Root         [32]byte
	Asserter     [20]byte
	ResolveAfter uint64
	Status       AssertionStatus
}

// ClaimParams is the RLP-encoded payload an action provider presents to
// claim against the resolved root. Cumulative amounts are lifetime totals;
// the verifier pays only the positive delta over what it has recorded.
type ClaimParams struct {
	Incentives []campaign.IncentiveID
	Cumulative []*big.Int
	Proof      [][32]byte
}

type verifierState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Verifier approves claims proven against an asserted, dispute-resolved
// merkle root of cumulative entitlements.
type Verifier struct {
	st       verifierState
	emitter  events.Emitter
	locker   [20]byte
	oracle   [20]byte
	liveness uint64
	nowFn    func() uint64
}

// NewVerifier creates a merkle-snapshot verifier. locker is the registry
// module address expected on every callback; oracle is the only caller
// allowed to resolve or dispute assertions; liveness is the challenge window
// in seconds.
func NewVerifier(st verifierState, locker, oracle [20]byte, liveness uint64) *Verifier {
	return &Verifier{
		st:       st,
		emitter:  events.NoopEmitter{},
		locker:   locker,
		oracle:   oracle,
		liveness: liveness,
		nowFn:    func() uint64 { return uint64(time.Now().Unix()) },
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

func assertionKey(id AssertionID) []byte {
	return append([]byte("snapshot/assertion/"), id[:]...)
}

func rootKey(id campaign.CampaignID) []byte {
	return append([]byte("snapshot/root/"), id[:]...)
}

func trackedKey(id campaign.CampaignID) []byte {
	return append([]byte("snapshot/campaign/"), id[:]...)
}

func paidKey(id campaign.CampaignID, ap [20]byte, incentive campaign.IncentiveID) []byte {
	key := append([]byte("snapshot/paid/"), id[:]...)
	key = append(key, ap[:]...)
	return append(key, incentive[:]...)
}

var assertionCounterKey = []byte("snapshot/counter")

// --- ActionVerifier callbacks ---

// OnCampaignCreated registers the campaign with this verifier, reserving its
// root-assertion slot.
func (v *Verifier) OnCampaignCreated(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.locker {
		return ErrUnauthorized
	}
	return v.st.KVPut(trackedKey(id), true)
}

// OnIncentivesAdded accepts unconditionally: a bigger budget only raises the
// amounts a future snapshot may attest to.
func (v *Verifier) OnIncentivesAdded(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error {
	if caller != v.locker {
		return ErrUnauthorized
	}
	if tracked, err := v.isTracked(id); err != nil {
		return err
	} else if !tracked {
		return ErrCampaignNotTracked
	}
	return nil
}

// OnIncentivesRemoved accepts: snapshots attest cumulative entitlements, and
// the registry's own remaining-balance check hard-fails any claim the
// shrunken budget can no longer cover.
func (v *Verifier) OnIncentivesRemoved(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, sponsor [20]byte) error {
	if caller != v.locker {
		return ErrUnauthorized
	}
	if tracked, err := v.isTracked(id); err != nil {
		return err
	} else if !tracked {
		return ErrCampaignNotTracked
	}
	return nil
}

// OnClaim verifies the presented proof against the campaign's resolved root
// and quotes the positive delta over the cumulative amounts already paid.
// Nothing is recorded here: the paid table advances only in OnClaimSettled,
// so a claim the registry rejects stays fully claimable.
func (v *Verifier) OnClaim(caller [20]byte, ap [20]byte, id campaign.CampaignID, claimParams []byte) (*campaign.ClaimResult, error) {
	if v == nil || v.st == nil {
		return nil, ErrNilState
	}
	if caller != v.locker {
		return nil, ErrUnauthorized
	}
	if tracked, err := v.isTracked(id); err != nil {
		return nil, err
	} else if !tracked {
		return nil, ErrCampaignNotTracked
	}
	root, ok, err := v.resolvedRoot(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoResolvedRoot
	}

	params := new(ClaimParams)
	if err := rlp.DecodeBytes(claimParams, params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaimParams, err)
	}
	if len(params.Incentives) == 0 || len(params.Incentives) != len(params.Cumulative) {
		return nil, ErrInvalidClaimParams
	}
	for _, cumulative := range params.Cumulative {
		if cumulative == nil || cumulative.Sign() < 0 {
			return nil, ErrInvalidClaimParams
		}
	}

	leaf, err := claimLeaf(ap, params.Incentives, params.Cumulative)
	if err != nil {
		return nil, err
	}
	if !verifyProof(root, leaf, params.Proof) {
		return nil, ErrProofVerification
	}

	result := &campaign.ClaimResult{
		Incentives: make([]campaign.IncentiveID, 0, len(params.Incentives)),
		Amounts:    make([]*big.Int, 0, len(params.Incentives)),
	}
	for i, incentive := range params.Incentives {
		paid, err := v.cumulativePaid(id, ap, incentive)
		if err != nil {
			return nil, err
		}
		delta := new(big.Int).Sub(params.Cumulative[i], paid)
		if delta.Sign() <= 0 {
			// Same or earlier snapshot: nothing further owed. Out-of-order
			// submissions of monotone cumulative snapshots stay safe.
			continue
		}
		result.Incentives = append(result.Incentives, incentive)
		result.Amounts = append(result.Amounts, delta)
	}
	return result, nil
}

// OnClaimSettled records the quoted deltas as paid. The registry calls it
// after its remaining-balance checks pass, so resubmitting the same or an
// earlier snapshot afterwards yields zero.
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
		paid, err := v.cumulativePaid(id, ap, incentive)
		if err != nil {
			return err
		}
		paid.Add(paid, amount)
		if err := v.st.KVPut(paidKey(id, ap, incentive), paid); err != nil {
			return err
		}
	}
	return nil
}

// --- Assertion protocol ---

// AssertRoot publishes a candidate root for the campaign. The assertion is
// inert until the oracle resolves it after the liveness window.
func (v *Verifier) AssertRoot(asserter [20]byte, id campaign.CampaignID, root [32]byte) (AssertionID, error) {
	if v == nil || v.st == nil {
		return AssertionID{}, ErrNilState
	}
	if tracked, err := v.isTracked(id); err != nil {
		return AssertionID{}, err
	} else if !tracked {
		return AssertionID{}, ErrCampaignNotTracked
	}
	counter, err := v.nextCounter()
	if err != nil {
		return AssertionID{}, err
	}
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)
	var assertionID AssertionID
	copy(assertionID[:], ethcrypto.Keccak256(id[:], root[:], counterBytes[:]))

	assertion := &Assertion{
		ID:           assertionID,
		Campaign:     id,
		Root:         root,
		Asserter:     asserter,
		ResolveAfter: v.now() + v.liveness,
		Status:       AssertionPending,
	}
	if err := v.st.KVPut(assertionKey(assertionID), assertion); err != nil {
		return AssertionID{}, err
	}
	v.emit(events.SnapshotRootAsserted{
		AssertionID:  assertionID,
		Campaign:     id,
		Root:         root,
		Asserter:     asserter,
		ResolveAfter: assertion.ResolveAfter,
	})
	return assertionID, nil
}

// OnAssertionResolved is the oracle's truthful/untruthful settlement
// callback. A truthful resolution promotes the root to the campaign's
// current root; an untruthful one discards the assertion.
func (v *Verifier) OnAssertionResolved(caller [20]byte, id AssertionID, truthful bool) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.oracle {
		return ErrUnauthorized
	}
	assertion, err := v.loadAssertion(id)
	if err != nil {
		return err
	}
	if assertion.Status != AssertionPending {
		return ErrAssertionNotPending
	}
	if !truthful {
		assertion.Status = AssertionDiscarded
		if err := v.st.KVPut(assertionKey(id), assertion); err != nil {
			return err
		}
		v.emit(events.SnapshotRootDiscarded{AssertionID: id, Campaign: assertion.Campaign})
		return nil
	}
	if v.now() < assertion.ResolveAfter {
		return ErrLivenessNotElapsed
	}
	assertion.Status = AssertionResolved
	if err := v.st.KVPut(assertionKey(id), assertion); err != nil {
		return err
	}
	if err := v.st.KVPut(rootKey(assertion.Campaign), assertion.Root); err != nil {
		return err
	}
	v.emit(events.SnapshotRootResolved{AssertionID: id, Campaign: assertion.Campaign, Root: assertion.Root})
	return nil
}

// OnAssertionDisputed discards a pending assertion. The dispute's economics
// live in the oracle; here the root simply never becomes claimable.
func (v *Verifier) OnAssertionDisputed(caller [20]byte, id AssertionID) error {
	if v == nil || v.st == nil {
		return ErrNilState
	}
	if caller != v.oracle {
		return ErrUnauthorized
	}
	assertion, err := v.loadAssertion(id)
	if err != nil {
		return err
	}
	if assertion.Status != AssertionPending {
		return ErrAssertionNotPending
	}
	assertion.Status = AssertionDiscarded
	if err := v.st.KVPut(assertionKey(id), assertion); err != nil {
		return err
	}
	v.emit(events.SnapshotRootDiscarded{AssertionID: id, Campaign: assertion.Campaign, Disputed: true})
	return nil
}

// --- Reads ---

// ResolvedRoot returns the campaign's current claimable root, if any.
func (v *Verifier) ResolvedRoot(id campaign.CampaignID) ([32]byte, bool) {
	root, ok, err := v.resolvedRoot(id)
	if err != nil {
		return [32]byte{}, false
	}
	return root, ok
}

// GetAssertion returns a stored assertion by identifier.
func (v *Verifier) GetAssertion(id AssertionID) (*Assertion, bool) {
	assertion, err := v.loadAssertion(id)
	if err != nil {
		return nil, false
	}
	return assertion, true
}

// CumulativePaid returns the lifetime amount already paid to the action
// provider for one incentive of a campaign.
func (v *Verifier) CumulativePaid(id campaign.CampaignID, ap [20]byte, incentive campaign.IncentiveID) (*big.Int, error) {
	if v == nil || v.st == nil {
		return nil, ErrNilState
	}
	return v.cumulativePaid(id, ap, incentive)
}

// --- Internals ---

func (v *Verifier) isTracked(id campaign.CampaignID) (bool, error) {
	var tracked bool
	ok, err := v.st.KVGet(trackedKey(id), &tracked)
	if err != nil {
		return false, err
	}
	return ok && tracked, nil
}

func (v *Verifier) resolvedRoot(id campaign.CampaignID) ([32]byte, bool, error) {
	var root [32]byte
	ok, err := v.st.KVGet(rootKey(id), &root)
	if err != nil {
		return [32]byte{}, false, err
	}
	return root, ok, nil
}

func (v *Verifier) loadAssertion(id AssertionID) (*Assertion, error) {
	assertion := new(Assertion)
	ok, err := v.st.KVGet(assertionKey(id), assertion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAssertionNotFound
	}
	return assertion, nil
}

func (v *Verifier) cumulativePaid(id campaign.CampaignID, ap [20]byte, incentive campaign.IncentiveID) (*big.Int, error) {
	paid := new(big.Int)
	ok, err := v.st.KVGet(paidKey(id, ap, incentive), paid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return paid, nil
}

func (v *Verifier) nextCounter() (uint64, error) {
	var counter uint64
	if _, err := v.st.KVGet(assertionCounterKey, &counter); err != nil {
		return 0, err
	}
	counter++
	if err := v.st.KVPut(assertionCounterKey, counter); err != nil {
		return 0, err
	}
	return counter, nil
}

type leafPayload struct {
	AP         [20]byte
	Incentives []campaign.IncentiveID
	Cumulative []*big.Int
}

// claimLeaf double-hashes the RLP-encoded entitlement tuple, keeping leaves
// domain-separated from interior pair hashes.
func claimLeaf(ap [20]byte, incentives []campaign.IncentiveID, cumulative []*big.Int) ([32]byte, error) {
	encoded, err := rlp.EncodeToBytes(leafPayload{AP: ap, Incentives: incentives, Cumulative: cumulative})
	if err != nil {
		return [32]byte{}, err
	}
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(ethcrypto.Keccak256(encoded)))
	return leaf, nil
}

// EncodeClaimParams is a convenience for callers (and tests) building the
// opaque claim blob the registry forwards to OnClaim.
func EncodeClaimParams(params *ClaimParams) ([]byte, error) {
	return rlp.EncodeToBytes(params)
}

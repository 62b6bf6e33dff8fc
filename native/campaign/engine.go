package campaign

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"lockstream/core/events"
	"lockstream/core/types"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	TokenByID(id [32]byte) (string, bool)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// PointsLedger is the points collaborator surface the registry needs. Spend
// pulls value from the sponsor's cap, Refund unwinds such a pull, and Award
// credits a claimant.
type PointsLedger interface {
	IsProgram(id [32]byte) bool
	Spend(id [32]byte, payer [20]byte, amount *big.Int) error
	Refund(id [32]byte, payer [20]byte, amount *big.Int) error
	Award(id [32]byte, recipient [20]byte, amount *big.Int) error
}

// Engine is the campaign registry: it owns campaign records, pulls and pays
// out incentive assets, applies the fee policy and consults the pluggable
// ActionVerifier on every transition.
type Engine struct {
	st        engineState
	points    PointsLedger
	emitter   events.Emitter
	verifiers map[string]ActionVerifier
	owner     [20]byte
	vault     [20]byte
	nowFn     func() uint64
}

// NewEngine creates a campaign engine with a no-op emitter. The vault address
// holds pulled token incentives and doubles as the caller identity passed to
// verifier callbacks.
func NewEngine(st engineState, points PointsLedger, owner, vault [20]byte) *Engine {
	return &Engine{
		st:        st,
		points:    points,
		emitter:   events.NoopEmitter{},
		verifiers: make(map[string]ActionVerifier),
		owner:     owner,
		vault:     vault,
		nowFn:     func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() uint64) {
	if now == nil {
		e.nowFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.nowFn = now
}

// Vault returns the module address holding locked token incentives.
func (e *Engine) Vault() [20]byte { return e.vault }

// RegisterVerifier makes a verification policy available under the given
// name. Campaigns reference verifiers only by this opaque name.
func (e *Engine) RegisterVerifier(name string, v ActionVerifier) error {
	if name == "" || v == nil {
		return fmt.Errorf("campaign: verifier name and implementation required")
	}
	if _, exists := e.verifiers[name]; exists {
		return fmt.Errorf("campaign: verifier %q already registered", name)
	}
	e.verifiers[name] = v
	return nil
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.nowFn()
}

func campaignKey(id CampaignID) []byte {
	return append([]byte("campaign/record/"), id[:]...)
}

func feeLedgerKey(claimant [20]byte, incentive IncentiveID) []byte {
	key := append([]byte("campaign/fees/"), claimant[:]...)
	return append(key, incentive[:]...)
}

var (
	campaignCounterKey = []byte("campaign/counter")
	feeConfigKey       = []byte("campaign/feeconfig")
)

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// --- Fee policy administration ---

// SetDefaultFeeRate updates the global fee rate. Owner only.
func (e *Engine) SetDefaultFeeRate(caller [20]byte, rate *big.Int) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	if rate == nil || rate.Sign() < 0 || rate.Cmp(FeeScale) > 0 {
		return ErrInvalidFeeRate
	}
	cfg, err := e.loadFeeConfig()
	if err != nil {
		return err
	}
	cfg.Rate = cloneBigInt(rate)
	return e.st.KVPut(feeConfigKey, cfg)
}

// SetDefaultFeeClaimant updates the global fee claimant. Owner only.
func (e *Engine) SetDefaultFeeClaimant(caller, claimant [20]byte) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	cfg, err := e.loadFeeConfig()
	if err != nil {
		return err
	}
	cfg.Claimant = claimant
	return e.st.KVPut(feeConfigKey, cfg)
}

// SetCampaignFeeRate sets a per-campaign fee rate override. Owner only.
func (e *Engine) SetCampaignFeeRate(caller [20]byte, id CampaignID, rate *big.Int) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	if rate == nil || rate.Sign() < 0 || rate.Cmp(FeeScale) > 0 {
		return ErrInvalidFeeRate
	}
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	record.HasFeeRateOverride = true
	record.FeeRateOverride = cloneBigInt(rate)
	return e.storeCampaign(record)
}

// SetCampaignFeeClaimant sets a per-campaign fee claimant override. Owner only.
func (e *Engine) SetCampaignFeeClaimant(caller [20]byte, id CampaignID, claimant [20]byte) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	record.HasFeeClaimantOverride = true
	record.FeeClaimantOverride = claimant
	return e.storeCampaign(record)
}

func (e *Engine) loadFeeConfig() (*FeeConfig, error) {
	cfg := new(FeeConfig)
	if _, err := e.st.KVGet(feeConfigKey, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (e *Engine) resolveFeePolicy(record *Campaign) (*big.Int, [20]byte, error) {
	cfg, err := e.loadFeeConfig()
	if err != nil {
		return nil, [20]byte{}, err
	}
	rate := cfg.Rate
	if record.HasFeeRateOverride {
		rate = record.FeeRateOverride
	}
	claimant := cfg.Claimant
	if record.HasFeeClaimantOverride {
		claimant = record.FeeClaimantOverride
	}
	return cloneBigInt(rate), claimant, nil
}

// --- Campaign lifecycle ---

// CreateCampaign validates the offer, pulls every incentive from the sponsor,
// persists the record and consults the verifier. Any failure after the pulls
// unwinds them completely: the operation is all-or-nothing.
func (e *Engine) CreateCampaign(sponsor [20]byte, verifierName string, params []byte, start, end uint64, incentives []IncentiveID, amounts []*big.Int) (CampaignID, error) {
	if e == nil || e.st == nil {
		return CampaignID{}, ErrNilState
	}
	if start > end {
		return CampaignID{}, ErrInvalidWindow
	}
	if len(incentives) == 0 {
		return CampaignID{}, ErrNoIncentives
	}
	if len(incentives) != len(amounts) {
		return CampaignID{}, ErrLengthMismatch
	}
	verifier, ok := e.verifiers[verifierName]
	if !ok {
		return CampaignID{}, fmt.Errorf("%w: %s", ErrUnknownVerifier, verifierName)
	}
	for _, amount := range amounts {
		if amount == nil || amount.Sign() <= 0 {
			return CampaignID{}, ErrInvalidAmount
		}
	}

	counter, err := e.nextCounter()
	if err != nil {
		return CampaignID{}, err
	}
	id := deriveCampaignID(counter, sponsor, verifierName, params, start, end)
	if exists, err := e.st.KVGet(campaignKey(id), nil); err != nil {
		return CampaignID{}, err
	} else if exists {
		return CampaignID{}, ErrCampaignExists
	}

	pulls, err := e.pullIncentives(sponsor, incentives, amounts)
	if err != nil {
		return CampaignID{}, err
	}

	record := &Campaign{
		ID:        id,
		Sponsor:   sponsor,
		Verifier:  verifierName,
		Params:    append([]byte(nil), params...),
		StartTime: start,
		EndTime:   end,
	}
	set := newIncentiveSet(nil)
	for i, incentive := range incentives {
		entry := set.upsert(incentive)
		entry.TotalOffered.Add(entry.TotalOffered, amounts[i])
		entry.Remaining.Add(entry.Remaining, amounts[i])
	}
	record.Incentives = set.list()
	if err := e.storeCampaign(record); err != nil {
		e.unwindPulls(sponsor, pulls)
		return CampaignID{}, err
	}

	if err := verifier.OnCampaignCreated(e.vault, id, incentives, cloneAmounts(amounts), params, sponsor); err != nil {
		e.unwindPulls(sponsor, pulls)
		if delErr := e.st.KVDelete(campaignKey(id)); delErr != nil {
			return CampaignID{}, delErr
		}
		return CampaignID{}, fmt.Errorf("%w: %v", ErrVerifierRejected, err)
	}

	e.emit(events.CampaignCreated{ID: id, Sponsor: sponsor, Verifier: verifierName, StartTime: start, EndTime: end})
	return id, nil
}

// AddCoSponsors whitelists addresses allowed to add incentives. Sponsor only.
func (e *Engine) AddCoSponsors(caller [20]byte, id CampaignID, addrs [][20]byte) error {
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if caller != record.Sponsor {
		return ErrUnauthorized
	}
	for _, addr := range addrs {
		record.CoSponsors = addCoSponsor(record.CoSponsors, addr)
	}
	if err := e.storeCampaign(record); err != nil {
		return err
	}
	e.emit(events.CampaignCoSponsorsUpdated{ID: id, Sponsor: caller, Added: uint64(len(addrs))})
	return nil
}

// RemoveCoSponsors removes addresses from the whitelist. Sponsor only.
func (e *Engine) RemoveCoSponsors(caller [20]byte, id CampaignID, addrs [][20]byte) error {
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if caller != record.Sponsor {
		return ErrUnauthorized
	}
	for _, addr := range addrs {
		record.CoSponsors = removeCoSponsor(record.CoSponsors, addr)
	}
	if err := e.storeCampaign(record); err != nil {
		return err
	}
	e.emit(events.CampaignCoSponsorsUpdated{ID: id, Sponsor: caller, Removed: uint64(len(addrs))})
	return nil
}

// AddIncentives tops up a live campaign. The caller must be the sponsor or a
// whitelisted co-sponsor; a verifier rejection unwinds the pulls and restores
// the previous record.
func (e *Engine) AddIncentives(caller [20]byte, id CampaignID, incentives []IncentiveID, amounts []*big.Int, params []byte) error {
	if len(incentives) == 0 {
		return ErrNoIncentives
	}
	if len(incentives) != len(amounts) {
		return ErrLengthMismatch
	}
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if caller != record.Sponsor && !record.IsCoSponsor(caller) {
		return ErrUnauthorized
	}
	verifier, ok := e.verifiers[record.Verifier]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVerifier, record.Verifier)
	}
	for _, amount := range amounts {
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
	}

	pulls, err := e.pullIncentives(caller, incentives, amounts)
	if err != nil {
		return err
	}

	previous := record.clone()
	set := newIncentiveSet(record.Incentives)
	for i, incentive := range incentives {
		entry := set.upsert(incentive)
		entry.TotalOffered.Add(entry.TotalOffered, amounts[i])
		entry.Remaining.Add(entry.Remaining, amounts[i])
	}
	record.Incentives = set.list()
	if err := e.storeCampaign(record); err != nil {
		e.unwindPulls(caller, pulls)
		return err
	}

	if err := verifier.OnIncentivesAdded(e.vault, id, incentives, cloneAmounts(amounts), params, record.Sponsor); err != nil {
		e.unwindPulls(caller, pulls)
		if restoreErr := e.storeCampaign(previous); restoreErr != nil {
			return restoreErr
		}
		return fmt.Errorf("%w: %v", ErrVerifierRejected, err)
	}

	e.emit(events.CampaignIncentivesAdded{ID: id, Caller: caller, Count: uint64(len(incentives))})
	return nil
}

// RemoveIncentives returns unclaimed incentives to the recipient. Sponsor
// only. When the requested amount exceeds what is left, the removal clamps to
// the remaining balance: a concurrent claim may already have reduced it, and
// the sponsor's intent of "take back everything left" is honoured instead of
// failing. The verifier may still reject the whole operation.
func (e *Engine) RemoveIncentives(caller [20]byte, id CampaignID, incentives []IncentiveID, amounts []*big.Int, recipient [20]byte) error {
	if len(incentives) == 0 {
		return ErrNoIncentives
	}
	if len(incentives) != len(amounts) {
		return ErrLengthMismatch
	}
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	if caller != record.Sponsor {
		return ErrUnauthorized
	}
	verifier, ok := e.verifiers[record.Verifier]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVerifier, record.Verifier)
	}

	set := newIncentiveSet(record.Incentives)
	clamped := make([]*big.Int, len(incentives))
	seen := make(map[IncentiveID]struct{}, len(incentives))
	for i, incentive := range incentives {
		if amounts[i] == nil || amounts[i].Sign() <= 0 {
			return ErrInvalidAmount
		}
		// Each amount is clamped against the same un-decremented Remaining,
		// so a repeated incentive could drive the balance negative.
		if _, dup := seen[incentive]; dup {
			return ErrDuplicateIncentive
		}
		seen[incentive] = struct{}{}
		entry := set.get(incentive)
		if entry == nil {
			return fmt.Errorf("%w: unknown incentive", ErrInvalidAmount)
		}
		clamped[i] = cloneBigInt(amounts[i])
		if clamped[i].Cmp(entry.Remaining) > 0 {
			clamped[i] = cloneBigInt(entry.Remaining)
		}
	}

	// The verifier sees the clamped amounts and may veto (e.g. a streaming
	// policy refusing to give back already-streamed value). Nothing has been
	// debited yet at this point.
	if err := verifier.OnIncentivesRemoved(e.vault, id, incentives, cloneAmounts(clamped), record.Sponsor); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierRejected, err)
	}

	for i, incentive := range incentives {
		entry := set.get(incentive)
		entry.Remaining.Sub(entry.Remaining, clamped[i])
		entry.Refunded.Add(entry.Refunded, clamped[i])
	}
	record.Incentives = set.list()
	if err := e.storeCampaign(record); err != nil {
		return err
	}

	for i, incentive := range incentives {
		if clamped[i].Sign() == 0 {
			continue
		}
		if e.points != nil && e.points.IsProgram(incentive) {
			if err := e.points.Refund(incentive, record.Sponsor, clamped[i]); err != nil {
				return err
			}
			continue
		}
		symbol, ok := e.st.TokenByID(incentive)
		if !ok {
			return fmt.Errorf("%w", ErrUnknownIncentive)
		}
		if err := e.transferToken(e.vault, recipient, symbol, clamped[i]); err != nil {
			return err
		}
	}

	e.emit(events.CampaignIncentivesRemoved{ID: id, Recipient: recipient, Count: uint64(len(incentives))})
	return nil
}

// Claim settles an action provider's entitlement as reported by the
// campaign's verifier. The verifier first quotes the amounts owed, the
// registry validates them against the remaining budget, and only then is the
// quote committed via OnClaimSettled. Ledger state (remaining balances and
// the fee ledger) is fully updated before any outbound transfer.
func (e *Engine) Claim(ap [20]byte, id CampaignID, claimParams []byte) error {
	record, err := e.loadCampaign(id)
	if err != nil {
		return err
	}
	verifier, ok := e.verifiers[record.Verifier]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVerifier, record.Verifier)
	}
	result, err := verifier.OnClaim(e.vault, ap, id, claimParams)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierRejected, err)
	}
	if result == nil || len(result.Incentives) == 0 {
		return nil
	}
	if len(result.Incentives) != len(result.Amounts) {
		return ErrLengthMismatch
	}

	rate, claimant, err := e.resolveFeePolicy(record)
	if err != nil {
		return err
	}

	// Validate everything before mutating: paying more than is accounted for
	// is never acceptable, so a claim over the remaining balance hard-fails.
	// The quote has not consumed any entitlement yet, so a hard-fail here
	// leaves the claim retryable once the budget is restored.
	set := newIncentiveSet(record.Incentives)
	seen := make(map[IncentiveID]struct{}, len(result.Incentives))
	for i, incentive := range result.Incentives {
		owed := result.Amounts[i]
		if owed == nil || owed.Sign() < 0 {
			return ErrInvalidAmount
		}
		if owed.Sign() == 0 {
			continue
		}
		if _, dup := seen[incentive]; dup {
			return ErrDuplicateIncentive
		}
		seen[incentive] = struct{}{}
		entry := set.get(incentive)
		if entry == nil {
			return fmt.Errorf("%w", ErrUnknownIncentive)
		}
		if owed.Cmp(entry.Remaining) > 0 {
			return fmt.Errorf("%w: owed %s, remaining %s", ErrInsufficientRemaining, owed, entry.Remaining)
		}
	}

	type payout struct {
		incentive IncentiveID
		gross     *big.Int
		fee       *big.Int
		net       *big.Int
	}
	payouts := make([]payout, 0, len(result.Incentives))
	for i, incentive := range result.Incentives {
		owed := result.Amounts[i]
		if owed.Sign() == 0 {
			continue
		}
		entry := set.get(incentive)
		entry.Remaining.Sub(entry.Remaining, owed)
		entry.Claimed.Add(entry.Claimed, owed)
		fee, net := SplitFee(owed, rate)
		payouts = append(payouts, payout{incentive: incentive, gross: cloneBigInt(owed), fee: fee, net: net})
	}
	record.Incentives = set.list()

	// All checks passed: tell the verifier to consume the quoted entitlement.
	// The record mutation above is in-memory only, so an error here leaves
	// both sides untouched.
	if err := verifier.OnClaimSettled(e.vault, ap, id, result); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierRejected, err)
	}

	if err := e.storeCampaign(record); err != nil {
		return err
	}
	for _, p := range payouts {
		if p.fee.Sign() > 0 {
			if err := e.creditFee(claimant, p.incentive, p.fee); err != nil {
				return err
			}
		}
	}

	for _, p := range payouts {
		if p.net.Sign() == 0 {
			continue
		}
		if e.points != nil && e.points.IsProgram(p.incentive) {
			if err := e.points.Award(p.incentive, ap, p.net); err != nil {
				return err
			}
		} else {
			symbol, ok := e.st.TokenByID(p.incentive)
			if !ok {
				return fmt.Errorf("%w", ErrUnknownIncentive)
			}
			if err := e.transferToken(e.vault, ap, symbol, p.net); err != nil {
				return err
			}
		}
		e.emit(events.CampaignClaimed{ID: id, Claimant: ap, Incentive: p.incentive, Gross: p.gross, Fee: p.fee, Net: p.net})
	}
	return nil
}

// ClaimFees withdraws the caller's accrued fee balance for one incentive.
// The balance is zeroed before any transfer so a re-entrant call cannot
// withdraw the same value twice.
func (e *Engine) ClaimFees(caller [20]byte, incentive IncentiveID, to [20]byte) error {
	if e == nil || e.st == nil {
		return ErrNilState
	}
	balance, err := e.accruedFees(caller, incentive)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return ErrNoAccruedFees
	}
	if err := e.st.KVPut(feeLedgerKey(caller, incentive), big.NewInt(0)); err != nil {
		return err
	}
	if e.points != nil && e.points.IsProgram(incentive) {
		if err := e.points.Award(incentive, to, balance); err != nil {
			return err
		}
	} else {
		symbol, ok := e.st.TokenByID(incentive)
		if !ok {
			return fmt.Errorf("%w", ErrUnknownIncentive)
		}
		if err := e.transferToken(e.vault, to, symbol, balance); err != nil {
			return err
		}
	}
	e.emit(events.CampaignFeesClaimed{Claimant: caller, Recipient: to, Incentive: incentive, Amount: balance})
	return nil
}

// AccruedFees returns the caller's claimable fee balance for an incentive.
func (e *Engine) AccruedFees(claimant [20]byte, incentive IncentiveID) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	return e.accruedFees(claimant, incentive)
}

func (e *Engine) accruedFees(claimant [20]byte, incentive IncentiveID) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := e.st.KVGet(feeLedgerKey(claimant, incentive), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

func (e *Engine) creditFee(claimant [20]byte, incentive IncentiveID, amount *big.Int) error {
	balance, err := e.accruedFees(claimant, incentive)
	if err != nil {
		return err
	}
	return e.st.KVPut(feeLedgerKey(claimant, incentive), new(big.Int).Add(balance, amount))
}

// --- Asset plumbing ---

type pull struct {
	incentive IncentiveID
	symbol    string
	isPoints  bool
	amount    *big.Int
}

func (e *Engine) pullIncentives(payer [20]byte, incentives []IncentiveID, amounts []*big.Int) ([]pull, error) {
	pulls := make([]pull, 0, len(incentives))
	for i, incentive := range incentives {
		amount := cloneBigInt(amounts[i])
		if e.points != nil && e.points.IsProgram(incentive) {
			if err := e.points.Spend(incentive, payer, amount); err != nil {
				e.unwindPulls(payer, pulls)
				return nil, err
			}
			pulls = append(pulls, pull{incentive: incentive, isPoints: true, amount: amount})
			continue
		}
		symbol, ok := e.st.TokenByID(incentive)
		if !ok {
			e.unwindPulls(payer, pulls)
			return nil, fmt.Errorf("%w", ErrUnknownIncentive)
		}
		if err := e.transferToken(payer, e.vault, symbol, amount); err != nil {
			e.unwindPulls(payer, pulls)
			return nil, err
		}
		pulls = append(pulls, pull{incentive: incentive, symbol: symbol, amount: amount})
	}
	return pulls, nil
}

func (e *Engine) unwindPulls(payer [20]byte, pulls []pull) {
	for i := len(pulls) - 1; i >= 0; i-- {
		p := pulls[i]
		if p.isPoints {
			// Best effort: the cap was debited moments ago in this same
			// serialized operation, so the refund cannot fail for balance
			// reasons.
			_ = e.points.Refund(p.incentive, payer, p.amount)
			continue
		}
		_ = e.transferToken(e.vault, payer, p.symbol, p.amount)
	}
}

func (e *Engine) transferToken(from, to [20]byte, token string, amount *big.Int) error {
	if e == nil || e.st == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("campaign: negative transfer amount")
	}
	fromAcc, err := e.st.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.st.GetAccount(to[:])
	if err != nil {
		return err
	}
	if !fromAcc.Debit(token, amt) {
		return fmt.Errorf("campaign: insufficient %s balance", token)
	}
	toAcc.Credit(token, amt)
	if err := e.st.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.st.PutAccount(to[:], toAcc)
}

// --- Record plumbing ---

func (e *Engine) loadCampaign(id CampaignID) (*Campaign, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	record := new(Campaign)
	ok, err := e.st.KVGet(campaignKey(id), record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCampaignNotFound
	}
	record.normalize()
	return record, nil
}

func (e *Engine) storeCampaign(record *Campaign) error {
	record.normalize()
	return e.st.KVPut(campaignKey(record.ID), record)
}

func (e *Engine) nextCounter() (uint64, error) {
	var counter uint64
	if _, err := e.st.KVGet(campaignCounterKey, &counter); err != nil {
		return 0, err
	}
	counter++
	if err := e.st.KVPut(campaignCounterKey, counter); err != nil {
		return 0, err
	}
	return counter, nil
}

func deriveCampaignID(counter uint64, sponsor [20]byte, verifier string, params []byte, start, end uint64) CampaignID {
	var buf [8]byte
	hash := ethcrypto.NewKeccakState()
	binary.BigEndian.PutUint64(buf[:], counter)
	hash.Write(buf[:])
	hash.Write(sponsor[:])
	hash.Write([]byte(verifier))
	hash.Write(params)
	binary.BigEndian.PutUint64(buf[:], start)
	hash.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], end)
	hash.Write(buf[:])
	var id CampaignID
	hash.Read(id[:])
	return id
}

func cloneAmounts(amounts []*big.Int) []*big.Int {
	out := make([]*big.Int, len(amounts))
	for i, amount := range amounts {
		out[i] = cloneBigInt(amount)
	}
	return out
}

func (c *Campaign) clone() *Campaign {
	clone := *c
	clone.Params = append([]byte(nil), c.Params...)
	clone.FeeRateOverride = cloneBigInt(c.FeeRateOverride)
	clone.Incentives = make([]IncentiveEntry, len(c.Incentives))
	for i, entry := range c.Incentives {
		clone.Incentives[i] = IncentiveEntry{
			ID:           entry.ID,
			TotalOffered: cloneBigInt(entry.TotalOffered),
			Remaining:    cloneBigInt(entry.Remaining),
			Claimed:      cloneBigInt(entry.Claimed),
			Refunded:     cloneBigInt(entry.Refunded),
		}
	}
	clone.CoSponsors = make([][20]byte, len(c.CoSponsors))
	copy(clone.CoSponsors, c.CoSponsors)
	return &clone
}

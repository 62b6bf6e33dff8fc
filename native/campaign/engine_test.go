package campaign_test

import (
	"errors"
	"math/big"
	"testing"

	"lockstream/core/state"
	"lockstream/native/campaign"
	"lockstream/native/points"
	"lockstream/storage"
)

var (
	owner   = addr(0x01)
	vault   = addr(0x02)
	sponsor = addr(0x03)
)

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

// stubVerifier accepts everything unless told otherwise and replays a canned
// claim result.
type stubVerifier struct {
	rejectCreate bool
	rejectAdd    bool
	rejectRemove bool
	claimErr     error
	settleErr    error
	result       *campaign.ClaimResult
	removedSeen  []*big.Int
	settledSeen  *campaign.ClaimResult
}

func (s *stubVerifier) OnCampaignCreated(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error {
	if s.rejectCreate {
		return errors.New("stub: create rejected")
	}
	return nil
}

func (s *stubVerifier) OnIncentivesAdded(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error {
	if s.rejectAdd {
		return errors.New("stub: add rejected")
	}
	return nil
}

func (s *stubVerifier) OnIncentivesRemoved(caller [20]byte, id campaign.CampaignID, incentives []campaign.IncentiveID, amounts []*big.Int, sponsor [20]byte) error {
	s.removedSeen = amounts
	if s.rejectRemove {
		return errors.New("stub: remove rejected")
	}
	return nil
}

func (s *stubVerifier) OnClaim(caller [20]byte, ap [20]byte, id campaign.CampaignID, claimParams []byte) (*campaign.ClaimResult, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	return s.result, nil
}

func (s *stubVerifier) OnClaimSettled(caller [20]byte, ap [20]byte, id campaign.CampaignID, result *campaign.ClaimResult) error {
	if s.settleErr != nil {
		return s.settleErr
	}
	s.settledSeen = result
	return nil
}

func newTestEngine(t *testing.T) (*campaign.Engine, *state.Manager, *points.Ledger, *stubVerifier) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	manager := state.NewManager(db)
	if err := manager.RegisterToken("ZNHB", "ZapNHB", 18); err != nil {
		t.Fatalf("register token: %v", err)
	}
	fund(t, manager, sponsor, "ZNHB", 1_000_000)

	ledger := points.NewLedger(manager)
	engine := campaign.NewEngine(manager, ledger, owner, vault)
	engine.SetNowFunc(func() uint64 { return 1000 })
	stub := &stubVerifier{}
	if err := engine.RegisterVerifier("stub", stub); err != nil {
		t.Fatalf("register verifier: %v", err)
	}
	return engine, manager, ledger, stub
}

func fund(t *testing.T, manager *state.Manager, who [20]byte, token string, amount int64) {
	t.Helper()
	account, err := manager.GetAccount(who[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	account.Credit(token, big.NewInt(amount))
	if err := manager.PutAccount(who[:], account); err != nil {
		t.Fatalf("put account: %v", err)
	}
}

func balanceOf(t *testing.T, manager *state.Manager, who [20]byte, token string) *big.Int {
	t.Helper()
	account, err := manager.GetAccount(who[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return account.BalanceOf(token)
}

func tokenIncentive() campaign.IncentiveID {
	return campaign.IncentiveID(state.TokenID("ZNHB"))
}

func createTokenCampaign(t *testing.T, engine *campaign.Engine, amount int64) campaign.CampaignID {
	t.Helper()
	id, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, []campaign.IncentiveID{tokenIncentive()}, []*big.Int{big.NewInt(amount)})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return id
}

func TestCreateCampaignLocksIncentives(t *testing.T) {
	engine, manager, _, _ := newTestEngine(t)

	id := createTokenCampaign(t, engine, 1000)

	if got := balanceOf(t, manager, sponsor, "ZNHB"); got.Cmp(big.NewInt(999_000)) != 0 {
		t.Fatalf("sponsor balance: got %s, want 999000", got)
	}
	if got := balanceOf(t, manager, vault, "ZNHB"); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("vault balance: got %s, want 1000", got)
	}

	cs := engine.GetCampaignState(id)
	if !cs.Exists || cs.Sponsor != sponsor || cs.Verifier != "stub" {
		t.Fatalf("unexpected campaign state: %+v", cs)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if !info.Exists || info.TotalOffered.Cmp(big.NewInt(1000)) != 0 || info.Remaining.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected incentive info: %+v", info)
	}
	if dur, ok := engine.GetDuration(id); !ok || dur != 1000 {
		t.Fatalf("duration: got %d, %v", dur, ok)
	}
}

func TestCreateCampaignIdentifiersAreUnique(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	first := createTokenCampaign(t, engine, 100)
	second := createTokenCampaign(t, engine, 100)
	if first == second {
		t.Fatalf("identical offers produced the same identifier")
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	inc := tokenIncentive()
	one := []*big.Int{big.NewInt(1)}

	if _, err := engine.CreateCampaign(sponsor, "stub", nil, 2000, 1000, []campaign.IncentiveID{inc}, one); !errors.Is(err, campaign.ErrInvalidWindow) {
		t.Fatalf("inverted window: got %v", err)
	}
	if _, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, nil, nil); !errors.Is(err, campaign.ErrNoIncentives) {
		t.Fatalf("no incentives: got %v", err)
	}
	if _, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, []campaign.IncentiveID{inc}, nil); !errors.Is(err, campaign.ErrLengthMismatch) {
		t.Fatalf("length mismatch: got %v", err)
	}
	if _, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, []campaign.IncentiveID{inc}, []*big.Int{big.NewInt(0)}); !errors.Is(err, campaign.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := engine.CreateCampaign(sponsor, "missing", nil, 1000, 2000, []campaign.IncentiveID{inc}, one); !errors.Is(err, campaign.ErrUnknownVerifier) {
		t.Fatalf("unknown verifier: got %v", err)
	}
	var bogus campaign.IncentiveID
	bogus[0] = 0xFF
	if _, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, []campaign.IncentiveID{bogus}, one); !errors.Is(err, campaign.ErrUnknownIncentive) {
		t.Fatalf("unregistered incentive: got %v", err)
	}
}

func TestVerifierRejectionUnwindsCreation(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	stub.rejectCreate = true

	_, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, []campaign.IncentiveID{tokenIncentive()}, []*big.Int{big.NewInt(1000)})
	if !errors.Is(err, campaign.ErrVerifierRejected) {
		t.Fatalf("expected ErrVerifierRejected, got %v", err)
	}
	if got := balanceOf(t, manager, sponsor, "ZNHB"); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("sponsor balance after unwind: got %s", got)
	}
	if got := balanceOf(t, manager, vault, "ZNHB"); got.Sign() != 0 {
		t.Fatalf("vault balance after unwind: got %s", got)
	}
}

func TestAddIncentivesAuthorization(t *testing.T) {
	engine, manager, _, _ := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	coSponsor := addr(0x04)
	fund(t, manager, coSponsor, "ZNHB", 10_000)
	top := []*big.Int{big.NewInt(500)}

	err := engine.AddIncentives(coSponsor, id, []campaign.IncentiveID{tokenIncentive()}, top, nil)
	if !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("unwhitelisted co-sponsor: got %v", err)
	}

	if err := engine.AddCoSponsors(sponsor, id, [][20]byte{coSponsor}); err != nil {
		t.Fatalf("add co-sponsor: %v", err)
	}
	if err := engine.AddIncentives(coSponsor, id, []campaign.IncentiveID{tokenIncentive()}, top, nil); err != nil {
		t.Fatalf("co-sponsor top-up: %v", err)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.TotalOffered.Cmp(big.NewInt(1500)) != 0 {
		t.Fatalf("total offered after top-up: got %s", info.TotalOffered)
	}

	if err := engine.RemoveCoSponsors(sponsor, id, [][20]byte{coSponsor}); err != nil {
		t.Fatalf("remove co-sponsor: %v", err)
	}
	err = engine.AddIncentives(coSponsor, id, []campaign.IncentiveID{tokenIncentive()}, top, nil)
	if !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("removed co-sponsor: got %v", err)
	}

	// Only the sponsor manages the whitelist.
	if err := engine.AddCoSponsors(coSponsor, id, [][20]byte{coSponsor}); !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("co-sponsor managing whitelist: got %v", err)
	}
}

func TestAddIncentivesRejectionRestoresRecord(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)
	stub.rejectAdd = true

	err := engine.AddIncentives(sponsor, id, []campaign.IncentiveID{tokenIncentive()}, []*big.Int{big.NewInt(500)}, nil)
	if !errors.Is(err, campaign.ErrVerifierRejected) {
		t.Fatalf("expected ErrVerifierRejected, got %v", err)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.TotalOffered.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("total offered after rejected top-up: got %s", info.TotalOffered)
	}
	if got := balanceOf(t, manager, sponsor, "ZNHB"); got.Cmp(big.NewInt(999_000)) != 0 {
		t.Fatalf("sponsor balance after rejected top-up: got %s", got)
	}
}

func TestRemoveIncentivesClampsToRemaining(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	recipient := addr(0x05)
	err := engine.RemoveIncentives(sponsor, id, []campaign.IncentiveID{tokenIncentive()}, []*big.Int{big.NewInt(1500)}, recipient)
	if err != nil {
		t.Fatalf("clamped removal: %v", err)
	}
	if got := balanceOf(t, manager, recipient, "ZNHB"); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("recipient balance: got %s, want 1000", got)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Sign() != 0 || info.Refunded.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("incentive info after clamp: %+v", info)
	}
	// The verifier saw the clamped amount, not the requested one.
	if len(stub.removedSeen) != 1 || stub.removedSeen[0].Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("verifier saw %v, want [1000]", stub.removedSeen)
	}
}

func TestRemoveIncentivesVerifierVeto(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)
	stub.rejectRemove = true

	err := engine.RemoveIncentives(sponsor, id, []campaign.IncentiveID{tokenIncentive()}, []*big.Int{big.NewInt(500)}, sponsor)
	if !errors.Is(err, campaign.ErrVerifierRejected) {
		t.Fatalf("expected ErrVerifierRejected, got %v", err)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Cmp(big.NewInt(1000)) != 0 || info.Refunded.Sign() != 0 {
		t.Fatalf("record mutated despite veto: %+v", info)
	}
	if got := balanceOf(t, manager, vault, "ZNHB"); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("vault balance after veto: got %s", got)
	}
}

func TestRemoveIncentivesSponsorOnly(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)
	err := engine.RemoveIncentives(addr(0x66), id, []campaign.IncentiveID{tokenIncentive()}, []*big.Int{big.NewInt(1)}, sponsor)
	if !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClaimPaysNetAndAccruesFee(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	feeCollector := addr(0x06)
	tenPercent := new(big.Int).Div(campaign.FeeScale, big.NewInt(10))
	if err := engine.SetDefaultFeeRate(owner, tenPercent); err != nil {
		t.Fatalf("set fee rate: %v", err)
	}
	if err := engine.SetDefaultFeeClaimant(owner, feeCollector); err != nil {
		t.Fatalf("set fee claimant: %v", err)
	}

	ap := addr(0x07)
	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive()},
		Amounts:    []*big.Int{big.NewInt(100)},
	}
	if err := engine.Claim(ap, id, nil); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if got := balanceOf(t, manager, ap, "ZNHB"); got.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("claimant net: got %s, want 90", got)
	}
	accrued, err := engine.AccruedFees(feeCollector, tokenIncentive())
	if err != nil {
		t.Fatalf("accrued fees: %v", err)
	}
	if accrued.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("accrued fees: got %s, want 10", accrued)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Cmp(big.NewInt(900)) != 0 || info.Claimed.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("incentive info after claim: %+v", info)
	}

	feeSink := addr(0x08)
	if err := engine.ClaimFees(feeCollector, tokenIncentive(), feeSink); err != nil {
		t.Fatalf("claim fees: %v", err)
	}
	if got := balanceOf(t, manager, feeSink, "ZNHB"); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("fee sink balance: got %s, want 10", got)
	}
	if err := engine.ClaimFees(feeCollector, tokenIncentive(), feeSink); !errors.Is(err, campaign.ErrNoAccruedFees) {
		t.Fatalf("double fee withdrawal: got %v", err)
	}
}

func TestClaimExceedingRemainingFails(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	ap := addr(0x07)
	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive()},
		Amounts:    []*big.Int{big.NewInt(2000)},
	}
	if err := engine.Claim(ap, id, nil); !errors.Is(err, campaign.ErrInsufficientRemaining) {
		t.Fatalf("expected ErrInsufficientRemaining, got %v", err)
	}
	if got := balanceOf(t, manager, ap, "ZNHB"); got.Sign() != 0 {
		t.Fatalf("claimant was paid on a failed claim: %s", got)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("remaining mutated on failed claim: %s", info.Remaining)
	}
}

func TestFailedClaimDoesNotSettleQuote(t *testing.T) {
	engine, _, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive()},
		Amounts:    []*big.Int{big.NewInt(2000)},
	}
	if err := engine.Claim(addr(0x07), id, nil); !errors.Is(err, campaign.ErrInsufficientRemaining) {
		t.Fatalf("expected ErrInsufficientRemaining, got %v", err)
	}
	// The quote was never committed, so the verifier keeps the entitlement.
	if stub.settledSeen != nil {
		t.Fatalf("failed claim settled the quote: %+v", stub.settledSeen)
	}
}

func TestClaimSettleFailureLeavesRecordUntouched(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	ap := addr(0x07)
	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive()},
		Amounts:    []*big.Int{big.NewInt(100)},
	}
	stub.settleErr = errors.New("stub: settle rejected")
	if err := engine.Claim(ap, id, nil); !errors.Is(err, campaign.ErrVerifierRejected) {
		t.Fatalf("expected ErrVerifierRejected, got %v", err)
	}
	if got := balanceOf(t, manager, ap, "ZNHB"); got.Sign() != 0 {
		t.Fatalf("claimant was paid on a failed settle: %s", got)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Cmp(big.NewInt(1000)) != 0 || info.Claimed.Sign() != 0 {
		t.Fatalf("record mutated on failed settle: %+v", info)
	}
}

func TestRemoveIncentivesRejectsDuplicates(t *testing.T) {
	engine, manager, _, _ := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	// Repeating the incentive would clamp each amount against the same
	// un-decremented balance and overdraw it.
	incs := []campaign.IncentiveID{tokenIncentive(), tokenIncentive()}
	amounts := []*big.Int{big.NewInt(1000), big.NewInt(1000)}
	err := engine.RemoveIncentives(sponsor, id, incs, amounts, sponsor)
	if !errors.Is(err, campaign.ErrDuplicateIncentive) {
		t.Fatalf("expected ErrDuplicateIncentive, got %v", err)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Cmp(big.NewInt(1000)) != 0 || info.Refunded.Sign() != 0 {
		t.Fatalf("record mutated on rejected removal: %+v", info)
	}
	if got := balanceOf(t, manager, vault, "ZNHB"); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("vault balance: got %s, want 1000", got)
	}
}

func TestClaimRejectsDuplicateQuote(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	ap := addr(0x07)
	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive(), tokenIncentive()},
		Amounts:    []*big.Int{big.NewInt(600), big.NewInt(600)},
	}
	if err := engine.Claim(ap, id, nil); !errors.Is(err, campaign.ErrDuplicateIncentive) {
		t.Fatalf("expected ErrDuplicateIncentive, got %v", err)
	}
	if got := balanceOf(t, manager, ap, "ZNHB"); got.Sign() != 0 {
		t.Fatalf("claimant was paid on a rejected quote: %s", got)
	}
	info := engine.GetIncentiveInfo(id, tokenIncentive())
	if info.Remaining.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("remaining mutated on rejected quote: %s", info.Remaining)
	}
}

func TestCampaignFeeOverrides(t *testing.T) {
	engine, manager, _, stub := newTestEngine(t)
	id := createTokenCampaign(t, engine, 1000)

	defaultCollector := addr(0x06)
	overrideCollector := addr(0x09)
	if err := engine.SetDefaultFeeRate(owner, new(big.Int).Div(campaign.FeeScale, big.NewInt(10))); err != nil {
		t.Fatalf("set default rate: %v", err)
	}
	if err := engine.SetDefaultFeeClaimant(owner, defaultCollector); err != nil {
		t.Fatalf("set default claimant: %v", err)
	}
	// Override: 50% to a different collector for this campaign only.
	if err := engine.SetCampaignFeeRate(owner, id, new(big.Int).Div(campaign.FeeScale, big.NewInt(2))); err != nil {
		t.Fatalf("set campaign rate: %v", err)
	}
	if err := engine.SetCampaignFeeClaimant(owner, id, overrideCollector); err != nil {
		t.Fatalf("set campaign claimant: %v", err)
	}

	ap := addr(0x07)
	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive()},
		Amounts:    []*big.Int{big.NewInt(100)},
	}
	if err := engine.Claim(ap, id, nil); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := balanceOf(t, manager, ap, "ZNHB"); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("claimant net under override: got %s, want 50", got)
	}
	accrued, _ := engine.AccruedFees(overrideCollector, tokenIncentive())
	if accrued.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("override collector fees: got %s, want 50", accrued)
	}
	defaulted, _ := engine.AccruedFees(defaultCollector, tokenIncentive())
	if defaulted.Sign() != 0 {
		t.Fatalf("default collector accrued despite override: %s", defaulted)
	}

	if err := engine.SetCampaignFeeRate(sponsor, id, big.NewInt(0)); !errors.Is(err, campaign.ErrUnauthorized) {
		t.Fatalf("non-owner setting campaign rate: got %v", err)
	}
	if err := engine.SetDefaultFeeRate(owner, new(big.Int).Add(campaign.FeeScale, big.NewInt(1))); !errors.Is(err, campaign.ErrInvalidFeeRate) {
		t.Fatalf("rate above scale: got %v", err)
	}
}

func TestMixedTokenAndPointsClaim(t *testing.T) {
	engine, manager, ledger, stub := newTestEngine(t)

	programID, err := ledger.CreateProgram(sponsor, "Loyalty", "LOY")
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	pointsInc := campaign.IncentiveID(programID)

	id, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000,
		[]campaign.IncentiveID{tokenIncentive(), pointsInc},
		[]*big.Int{big.NewInt(1000), big.NewInt(500)})
	if err != nil {
		t.Fatalf("create mixed campaign: %v", err)
	}

	ap := addr(0x07)
	stub.result = &campaign.ClaimResult{
		Incentives: []campaign.IncentiveID{tokenIncentive(), pointsInc},
		Amounts:    []*big.Int{big.NewInt(100), big.NewInt(50)},
	}
	if err := engine.Claim(ap, id, nil); err != nil {
		t.Fatalf("mixed claim: %v", err)
	}

	// Token leg settles through account balances, points leg through the
	// ledger; neither table bleeds into the other.
	if got := balanceOf(t, manager, ap, "ZNHB"); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("token payout: got %s, want 100", got)
	}
	pts, err := ledger.Balance(programID, ap)
	if err != nil {
		t.Fatalf("points balance: %v", err)
	}
	if pts.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("points payout: got %s, want 50", pts)
	}

	tokenInfo := engine.GetIncentiveInfo(id, tokenIncentive())
	if tokenInfo.Remaining.Cmp(big.NewInt(900)) != 0 || tokenInfo.Claimed.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("token incentive info: %+v", tokenInfo)
	}
	pointsInfo := engine.GetIncentiveInfo(id, pointsInc)
	if pointsInfo.Remaining.Cmp(big.NewInt(450)) != 0 || pointsInfo.Claimed.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("points incentive info: %+v", pointsInfo)
	}
}

func TestPointsCapUnwindOnRejection(t *testing.T) {
	engine, _, ledger, stub := newTestEngine(t)

	programID, err := ledger.CreateProgram(sponsor, "Loyalty", "LOY")
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	pointsInc := campaign.IncentiveID(programID)

	id, err := engine.CreateCampaign(sponsor, "stub", nil, 1000, 2000, []campaign.IncentiveID{pointsInc}, []*big.Int{big.NewInt(100)})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	coSponsor := addr(0x04)
	if err := engine.AddCoSponsors(sponsor, id, [][20]byte{coSponsor}); err != nil {
		t.Fatalf("add co-sponsor: %v", err)
	}
	if err := ledger.SetSpendCap(sponsor, programID, coSponsor, big.NewInt(500)); err != nil {
		t.Fatalf("set spend cap: %v", err)
	}

	stub.rejectAdd = true
	err = engine.AddIncentives(coSponsor, id, []campaign.IncentiveID{pointsInc}, []*big.Int{big.NewInt(300)}, nil)
	if !errors.Is(err, campaign.ErrVerifierRejected) {
		t.Fatalf("expected ErrVerifierRejected, got %v", err)
	}
	cap, err := ledger.SpendCap(programID, coSponsor)
	if err != nil {
		t.Fatalf("spend cap: %v", err)
	}
	if cap.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("cap after unwind: got %s, want 500", cap)
	}
}

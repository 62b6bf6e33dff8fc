package points_test

import (
	"errors"
	"math/big"
	"testing"

	"lockstream/core/state"
	"lockstream/native/points"
	"lockstream/storage"
)

var (
	owner = addr(0x01)
	payer = addr(0x02)
)

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestLedger(t *testing.T) *points.Ledger {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	return points.NewLedger(state.NewManager(db))
}

func createProgram(t *testing.T, ledger *points.Ledger) points.ProgramID {
	t.Helper()
	id, err := ledger.CreateProgram(owner, "Loyalty", "loy")
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	return id
}

func TestCreateProgramNormalizesAndIndexes(t *testing.T) {
	ledger := newTestLedger(t)
	id := createProgram(t, ledger)

	program, ok := ledger.GetProgram(id)
	if !ok {
		t.Fatalf("expected program to exist")
	}
	if program.Symbol != "LOY" {
		t.Fatalf("symbol not uppercased: %q", program.Symbol)
	}
	if program.Owner != owner {
		t.Fatalf("unexpected owner: %x", program.Owner)
	}
	if !ledger.IsProgram([32]byte(id)) {
		t.Fatalf("IsProgram is false for a created program")
	}

	// Identical inputs still produce a distinct identifier.
	second, err := ledger.CreateProgram(owner, "Loyalty", "LOY")
	if err != nil {
		t.Fatalf("create second program: %v", err)
	}
	if second == id {
		t.Fatalf("program identifiers collided")
	}
}

func TestCreateProgramValidation(t *testing.T) {
	ledger := newTestLedger(t)
	if _, err := ledger.CreateProgram(owner, "", "LOY"); !errors.Is(err, points.ErrInvalidProgram) {
		t.Fatalf("empty name: got %v", err)
	}
	if _, err := ledger.CreateProgram(owner, "Loyalty", "  "); !errors.Is(err, points.ErrInvalidProgram) {
		t.Fatalf("blank symbol: got %v", err)
	}
}

func TestSpendCapEnforcement(t *testing.T) {
	ledger := newTestLedger(t)
	id := createProgram(t, ledger)

	// Without a cap the payer cannot spend at all.
	if err := ledger.Spend([32]byte(id), payer, big.NewInt(1)); !errors.Is(err, points.ErrCapExceeded) {
		t.Fatalf("spend without cap: got %v", err)
	}

	if err := ledger.SetSpendCap(payer, id, payer, big.NewInt(100)); !errors.Is(err, points.ErrUnauthorized) {
		t.Fatalf("non-owner setting cap: got %v", err)
	}
	if err := ledger.SetSpendCap(owner, id, payer, big.NewInt(100)); err != nil {
		t.Fatalf("set cap: %v", err)
	}

	if err := ledger.Spend([32]byte(id), payer, big.NewInt(60)); err != nil {
		t.Fatalf("spend within cap: %v", err)
	}
	remaining, err := ledger.SpendCap(id, payer)
	if err != nil {
		t.Fatalf("read cap: %v", err)
	}
	if remaining.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("remaining cap: got %s, want 40", remaining)
	}
	if err := ledger.Spend([32]byte(id), payer, big.NewInt(41)); !errors.Is(err, points.ErrCapExceeded) {
		t.Fatalf("overspend: got %v", err)
	}
}

func TestOwnerIsCapExempt(t *testing.T) {
	ledger := newTestLedger(t)
	id := createProgram(t, ledger)
	if err := ledger.Spend([32]byte(id), owner, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("owner spend: %v", err)
	}
}

func TestRefundRestoresCap(t *testing.T) {
	ledger := newTestLedger(t)
	id := createProgram(t, ledger)
	if err := ledger.SetSpendCap(owner, id, payer, big.NewInt(100)); err != nil {
		t.Fatalf("set cap: %v", err)
	}
	if err := ledger.Spend([32]byte(id), payer, big.NewInt(100)); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if err := ledger.Refund([32]byte(id), payer, big.NewInt(100)); err != nil {
		t.Fatalf("refund: %v", err)
	}
	remaining, _ := ledger.SpendCap(id, payer)
	if remaining.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("cap after refund: got %s, want 100", remaining)
	}

	// Refunding the owner is a no-op since the owner never consumed cap.
	if err := ledger.Refund([32]byte(id), owner, big.NewInt(5)); err != nil {
		t.Fatalf("owner refund: %v", err)
	}
}

func TestAwardAccumulatesBalance(t *testing.T) {
	ledger := newTestLedger(t)
	id := createProgram(t, ledger)
	holder := addr(0x03)

	if err := ledger.Award([32]byte(id), holder, big.NewInt(25)); err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := ledger.Award([32]byte(id), holder, big.NewInt(15)); err != nil {
		t.Fatalf("second award: %v", err)
	}
	balance, err := ledger.Balance(id, holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("balance: got %s, want 40", balance)
	}
}

func TestOperationsRejectUnknownProgram(t *testing.T) {
	ledger := newTestLedger(t)
	var bogus [32]byte
	bogus[0] = 0xFF
	if err := ledger.Spend(bogus, payer, big.NewInt(1)); !errors.Is(err, points.ErrProgramNotFound) {
		t.Fatalf("spend on unknown program: got %v", err)
	}
	if err := ledger.Award(bogus, payer, big.NewInt(1)); !errors.Is(err, points.ErrProgramNotFound) {
		t.Fatalf("award on unknown program: got %v", err)
	}
	if ledger.IsProgram(bogus) {
		t.Fatalf("IsProgram true for unknown identifier")
	}
}

func TestAmountValidation(t *testing.T) {
	ledger := newTestLedger(t)
	id := createProgram(t, ledger)
	if err := ledger.Spend([32]byte(id), owner, big.NewInt(0)); !errors.Is(err, points.ErrInvalidAmount) {
		t.Fatalf("zero spend: got %v", err)
	}
	if err := ledger.Award([32]byte(id), payer, big.NewInt(-5)); !errors.Is(err, points.ErrInvalidAmount) {
		t.Fatalf("negative award: got %v", err)
	}
}

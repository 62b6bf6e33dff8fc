package types

import (
	"math/big"
	"testing"
)

func TestBalanceLifecycle(t *testing.T) {
	account := &Account{}

	if account.BalanceOf("ZNHB").Sign() != 0 {
		t.Fatalf("fresh account has non-zero balance")
	}

	account.Credit("znhb", big.NewInt(100))
	if account.BalanceOf("ZNHB").Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("credit not reflected under normalized symbol")
	}

	if !account.Debit("ZNHB", big.NewInt(40)) {
		t.Fatalf("debit within balance failed")
	}
	if account.BalanceOf("ZNHB").Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("balance after debit: got %s, want 60", account.BalanceOf("ZNHB"))
	}

	if account.Debit("ZNHB", big.NewInt(61)) {
		t.Fatalf("overdraft succeeded")
	}
	if account.BalanceOf("ZNHB").Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("failed debit mutated the balance")
	}
}

func TestBalancesStaySorted(t *testing.T) {
	account := &Account{}
	for _, token := range []string{"ccc", "AAA", "bbb"} {
		account.SetBalance(token, big.NewInt(1))
	}
	if len(account.Balances) != 3 {
		t.Fatalf("expected three balances, got %d", len(account.Balances))
	}
	for i := 1; i < len(account.Balances); i++ {
		if account.Balances[i-1].Token >= account.Balances[i].Token {
			t.Fatalf("balances not sorted: %v", account.Balances)
		}
	}
}

func TestCreditIgnoresNonPositiveAmounts(t *testing.T) {
	account := &Account{}
	account.Credit("ZNHB", nil)
	account.Credit("ZNHB", big.NewInt(0))
	account.Credit("ZNHB", big.NewInt(-5))
	if len(account.Balances) != 0 {
		t.Fatalf("non-positive credit created an entry: %v", account.Balances)
	}
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	account := &Account{}
	account.SetBalance("ZNHB", big.NewInt(10))
	balance := account.BalanceOf("ZNHB")
	balance.SetInt64(999)
	if account.BalanceOf("ZNHB").Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("caller mutated the stored balance")
	}
}

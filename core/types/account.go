package types

import (
	"math/big"
	"sort"
	"strings"
)

// TokenBalance holds the balance of a single registered token. Balances are
// kept as a sorted slice rather than a map so accounts stay RLP-encodable and
// deterministic.
type TokenBalance struct {
	Token  string
	Amount *big.Int
}

// Account is the ledger record stored per address.
type Account struct {
	Nonce    uint64
	Balances []TokenBalance
}

// BalanceOf returns the account's balance for the given token symbol. Missing
// entries read as zero.
func (a *Account) BalanceOf(token string) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	normalized := normalizeToken(token)
	for i := range a.Balances {
		if a.Balances[i].Token == normalized {
			if a.Balances[i].Amount == nil {
				return big.NewInt(0)
			}
			return new(big.Int).Set(a.Balances[i].Amount)
		}
	}
	return big.NewInt(0)
}

// SetBalance stores the balance for the given token, keeping the slice sorted
// by symbol.
func (a *Account) SetBalance(token string, amount *big.Int) {
	if a == nil {
		return
	}
	normalized := normalizeToken(token)
	value := big.NewInt(0)
	if amount != nil {
		value = new(big.Int).Set(amount)
	}
	for i := range a.Balances {
		if a.Balances[i].Token == normalized {
			a.Balances[i].Amount = value
			return
		}
	}
	a.Balances = append(a.Balances, TokenBalance{Token: normalized, Amount: value})
	sort.Slice(a.Balances, func(i, j int) bool {
		return a.Balances[i].Token < a.Balances[j].Token
	})
}

// Credit adds amount to the token balance.
func (a *Account) Credit(token string, amount *big.Int) {
	if a == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	a.SetBalance(token, new(big.Int).Add(a.BalanceOf(token), amount))
}

// Debit subtracts amount from the token balance. It reports whether the
// account held enough funds; on false the account is left untouched.
func (a *Account) Debit(token string, amount *big.Int) bool {
	if a == nil || amount == nil || amount.Sign() < 0 {
		return false
	}
	current := a.BalanceOf(token)
	if current.Cmp(amount) < 0 {
		return false
	}
	a.SetBalance(token, new(big.Int).Sub(current, amount))
	return true
}

func normalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

package campaign

import "math/big"

// FeeScale is the fixed-point denominator for fee rates: a rate of FeeScale
// means 100%.
var FeeScale = big.NewInt(1_000_000_000_000_000_000)

// FeeConfig is the persisted global fee policy.
type FeeConfig struct {
	Rate     *big.Int
	Claimant [20]byte
}

func (c *FeeConfig) normalize() {
	if c.Rate == nil {
		c.Rate = big.NewInt(0)
	}
}

// SplitFee computes fee = floor(gross * rate / FeeScale) and net = gross-fee.
// The net side absorbs the rounding remainder, so net + fee always equals
// gross exactly and neither side can go negative.
func SplitFee(gross, rate *big.Int) (fee, net *big.Int) {
	if gross == nil || gross.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	if rate == nil || rate.Sign() <= 0 {
		return big.NewInt(0), new(big.Int).Set(gross)
	}
	fee = new(big.Int).Mul(gross, rate)
	fee.Div(fee, FeeScale)
	if fee.Cmp(gross) > 0 {
		fee = new(big.Int).Set(gross)
	}
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}

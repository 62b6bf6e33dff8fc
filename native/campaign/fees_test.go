package campaign

import (
	"math/big"
	"testing"
)

func TestSplitFeeConservesGross(t *testing.T) {
	rates := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		new(big.Int).Div(FeeScale, big.NewInt(3)),
		new(big.Int).Div(FeeScale, big.NewInt(10)),
		new(big.Int).Set(FeeScale),
	}
	grosses := []*big.Int{
		big.NewInt(1),
		big.NewInt(333),
		big.NewInt(1000),
		new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil),
	}
	for _, rate := range rates {
		for _, gross := range grosses {
			fee, net := SplitFee(gross, rate)
			sum := new(big.Int).Add(fee, net)
			if sum.Cmp(gross) != 0 {
				t.Fatalf("rate %s gross %s: fee %s + net %s != gross", rate, gross, fee, net)
			}
			if fee.Sign() < 0 || net.Sign() < 0 {
				t.Fatalf("rate %s gross %s: negative side fee=%s net=%s", rate, gross, fee, net)
			}
			want := new(big.Int).Mul(gross, rate)
			want.Div(want, FeeScale)
			if fee.Cmp(want) != 0 {
				t.Fatalf("rate %s gross %s: fee %s, want floor %s", rate, gross, fee, want)
			}
		}
	}
}

func TestSplitFeeFullRateTakesEverything(t *testing.T) {
	fee, net := SplitFee(big.NewInt(777), FeeScale)
	if fee.Cmp(big.NewInt(777)) != 0 || net.Sign() != 0 {
		t.Fatalf("full rate: fee %s net %s", fee, net)
	}
}

func TestSplitFeeRoundsDown(t *testing.T) {
	// 1% of 99 is 0.99, which floors to zero: the claimant keeps it all.
	onePercent := new(big.Int).Div(FeeScale, big.NewInt(100))
	fee, net := SplitFee(big.NewInt(99), onePercent)
	if fee.Sign() != 0 || net.Cmp(big.NewInt(99)) != 0 {
		t.Fatalf("sub-unit fee: fee %s net %s", fee, net)
	}
}

func TestSplitFeeDegenerateInputs(t *testing.T) {
	if fee, net := SplitFee(nil, FeeScale); fee.Sign() != 0 || net.Sign() != 0 {
		t.Fatalf("nil gross: fee %s net %s", fee, net)
	}
	if fee, net := SplitFee(big.NewInt(100), nil); fee.Sign() != 0 || net.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("nil rate: fee %s net %s", fee, net)
	}
}

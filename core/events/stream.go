package events

import (
	"encoding/hex"
	"math/big"

	"lockstream/core/types"
	"lockstream/crypto"
)

const (
	TypeStreamRateAdjusted  = "stream.rate_adjusted"
	TypeStreamWeightUpdated = "stream.weight_updated"
)

type StreamRateAdjusted struct {
	Campaign  [32]byte
	Incentive [32]byte
	OldRate   *big.Int
	NewRate   *big.Int
}

func (StreamRateAdjusted) EventType() string { return TypeStreamRateAdjusted }

func (e StreamRateAdjusted) Event() *types.Event {
	return &types.Event{
		Type: TypeStreamRateAdjusted,
		Attributes: map[string]string{
			"campaign":  hex.EncodeToString(e.Campaign[:]),
			"incentive": hex.EncodeToString(e.Incentive[:]),
			"oldRate":   formatAmount(e.OldRate),
			"newRate":   formatAmount(e.NewRate),
		},
	}
}

type StreamWeightUpdated struct {
	Campaign    [32]byte
	Participant [20]byte
	Weight      *big.Int
	TotalWeight *big.Int
}

func (StreamWeightUpdated) EventType() string { return TypeStreamWeightUpdated }

func (e StreamWeightUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeStreamWeightUpdated,
		Attributes: map[string]string{
			"campaign":    hex.EncodeToString(e.Campaign[:]),
			"participant": crypto.NewAddress(crypto.LockerPrefix, e.Participant[:]).String(),
			"weight":      formatAmount(e.Weight),
			"totalWeight": formatAmount(e.TotalWeight),
		},
	}
}

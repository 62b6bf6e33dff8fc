package events

import (
	"encoding/hex"
	"math/big"

	"lockstream/core/types"
	"lockstream/crypto"
)

const (
	TypePointsProgramCreated = "points.program_created"
	TypePointsSpent          = "points.spent"
	TypePointsAwarded        = "points.awarded"
	TypePointsCapUpdated     = "points.cap_updated"
)

type PointsProgramCreated struct {
	ID     [32]byte
	Owner  [20]byte
	Name   string
	Symbol string
}

func (PointsProgramCreated) EventType() string { return TypePointsProgramCreated }

func (e PointsProgramCreated) Event() *types.Event {
	return &types.Event{
		Type: TypePointsProgramCreated,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(e.ID[:]),
			"owner":  crypto.NewAddress(crypto.LockerPrefix, e.Owner[:]).String(),
			"name":   e.Name,
			"symbol": e.Symbol,
		},
	}
}

type PointsSpent struct {
	ID     [32]byte
	Payer  [20]byte
	Amount *big.Int
}

func (PointsSpent) EventType() string { return TypePointsSpent }

func (e PointsSpent) Event() *types.Event {
	return &types.Event{
		Type: TypePointsSpent,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(e.ID[:]),
			"payer":  crypto.NewAddress(crypto.LockerPrefix, e.Payer[:]).String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

type PointsAwarded struct {
	ID        [32]byte
	Recipient [20]byte
	Amount    *big.Int
}

func (PointsAwarded) EventType() string { return TypePointsAwarded }

func (e PointsAwarded) Event() *types.Event {
	return &types.Event{
		Type: TypePointsAwarded,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"recipient": crypto.NewAddress(crypto.LockerPrefix, e.Recipient[:]).String(),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type PointsCapUpdated struct {
	ID    [32]byte
	Payer [20]byte
	Cap   *big.Int
}

func (PointsCapUpdated) EventType() string { return TypePointsCapUpdated }

func (e PointsCapUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypePointsCapUpdated,
		Attributes: map[string]string{
			"id":    hex.EncodeToString(e.ID[:]),
			"payer": crypto.NewAddress(crypto.LockerPrefix, e.Payer[:]).String(),
			"cap":   formatAmount(e.Cap),
		},
	}
}

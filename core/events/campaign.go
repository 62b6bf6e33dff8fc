package events

import (
	"encoding/hex"
	"math/big"

	"lockstream/core/types"
	"lockstream/crypto"
)

const (
	TypeCampaignCreated           = "campaign.created"
	TypeCampaignIncentivesAdded   = "campaign.incentives_added"
	TypeCampaignIncentivesRemoved = "campaign.incentives_removed"
	TypeCampaignClaimed           = "campaign.claimed"
	TypeCampaignFeesClaimed       = "campaign.fees_claimed"
	TypeCampaignCoSponsorsUpdated = "campaign.cosponsors_updated"
)

type CampaignCreated struct {
	ID        [32]byte
	Sponsor   [20]byte
	Verifier  string
	StartTime uint64
	EndTime   uint64
}

func (CampaignCreated) EventType() string { return TypeCampaignCreated }

func (e CampaignCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeCampaignCreated,
		Attributes: map[string]string{
			"id":       hex.EncodeToString(e.ID[:]),
			"sponsor":  crypto.NewAddress(crypto.LockerPrefix, e.Sponsor[:]).String(),
			"verifier": e.Verifier,
			"start":    uintToString(e.StartTime),
			"end":      uintToString(e.EndTime),
		},
	}
}

type CampaignIncentivesAdded struct {
	ID     [32]byte
	Caller [20]byte
	Count  uint64
}

func (CampaignIncentivesAdded) EventType() string { return TypeCampaignIncentivesAdded }

func (e CampaignIncentivesAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeCampaignIncentivesAdded,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(e.ID[:]),
			"caller": crypto.NewAddress(crypto.LockerPrefix, e.Caller[:]).String(),
			"count":  uintToString(e.Count),
		},
	}
}

type CampaignIncentivesRemoved struct {
	ID        [32]byte
	Recipient [20]byte
	Count     uint64
}

func (CampaignIncentivesRemoved) EventType() string { return TypeCampaignIncentivesRemoved }

func (e CampaignIncentivesRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeCampaignIncentivesRemoved,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"recipient": crypto.NewAddress(crypto.LockerPrefix, e.Recipient[:]).String(),
			"count":     uintToString(e.Count),
		},
	}
}

type CampaignClaimed struct {
	ID        [32]byte
	Claimant  [20]byte
	Incentive [32]byte
	Gross     *big.Int
	Fee       *big.Int
	Net       *big.Int
}

func (CampaignClaimed) EventType() string { return TypeCampaignClaimed }

func (e CampaignClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeCampaignClaimed,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"claimant":  crypto.NewAddress(crypto.LockerPrefix, e.Claimant[:]).String(),
			"incentive": hex.EncodeToString(e.Incentive[:]),
			"gross":     formatAmount(e.Gross),
			"fee":       formatAmount(e.Fee),
			"net":       formatAmount(e.Net),
		},
	}
}

type CampaignFeesClaimed struct {
	Claimant  [20]byte
	Recipient [20]byte
	Incentive [32]byte
	Amount    *big.Int
}

func (CampaignFeesClaimed) EventType() string { return TypeCampaignFeesClaimed }

func (e CampaignFeesClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeCampaignFeesClaimed,
		Attributes: map[string]string{
			"claimant":  crypto.NewAddress(crypto.LockerPrefix, e.Claimant[:]).String(),
			"recipient": crypto.NewAddress(crypto.LockerPrefix, e.Recipient[:]).String(),
			"incentive": hex.EncodeToString(e.Incentive[:]),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type CampaignCoSponsorsUpdated struct {
	ID      [32]byte
	Sponsor [20]byte
	Added   uint64
	Removed uint64
}

func (CampaignCoSponsorsUpdated) EventType() string { return TypeCampaignCoSponsorsUpdated }

func (e CampaignCoSponsorsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeCampaignCoSponsorsUpdated,
		Attributes: map[string]string{
			"id":      hex.EncodeToString(e.ID[:]),
			"sponsor": crypto.NewAddress(crypto.LockerPrefix, e.Sponsor[:]).String(),
			"added":   uintToString(e.Added),
			"removed": uintToString(e.Removed),
		},
	}
}

package campaign

import "math/big"

// CampaignState is the full projection of a campaign record. Exists is false
// for unknown identifiers; all other fields are then zero.
type CampaignState struct {
	Exists     bool
	Sponsor    [20]byte
	Verifier   string
	StartTime  uint64
	EndTime    uint64
	Incentives []IncentiveEntry
	CoSponsors [][20]byte
}

// IncentiveInfo is the per-incentive accounting projection.
type IncentiveInfo struct {
	Exists       bool
	TotalOffered *big.Int
	Remaining    *big.Int
	Claimed      *big.Int
	Refunded     *big.Int
}

// Exists reports whether a campaign has been created under the identifier.
func (e *Engine) Exists(id CampaignID) bool {
	if e == nil || e.st == nil {
		return false
	}
	ok, err := e.st.KVGet(campaignKey(id), nil)
	return err == nil && ok
}

// GetCampaignState returns the campaign projection. It never fails: a
// missing campaign yields Exists=false with zeroed fields.
func (e *Engine) GetCampaignState(id CampaignID) CampaignState {
	record, err := e.loadCampaign(id)
	if err != nil {
		return CampaignState{}
	}
	state := CampaignState{
		Exists:     true,
		Sponsor:    record.Sponsor,
		Verifier:   record.Verifier,
		StartTime:  record.StartTime,
		EndTime:    record.EndTime,
		CoSponsors: make([][20]byte, len(record.CoSponsors)),
	}
	copy(state.CoSponsors, record.CoSponsors)
	state.Incentives = make([]IncentiveEntry, len(record.Incentives))
	for i, entry := range record.Incentives {
		state.Incentives[i] = IncentiveEntry{
			ID:           entry.ID,
			TotalOffered: cloneBigInt(entry.TotalOffered),
			Remaining:    cloneBigInt(entry.Remaining),
			Claimed:      cloneBigInt(entry.Claimed),
			Refunded:     cloneBigInt(entry.Refunded),
		}
	}
	return state
}

// GetDuration returns the campaign window length in seconds.
func (e *Engine) GetDuration(id CampaignID) (uint64, bool) {
	record, err := e.loadCampaign(id)
	if err != nil {
		return 0, false
	}
	return record.EndTime - record.StartTime, true
}

// GetVerifierAndParams returns the verifier name and opaque parameter blob.
func (e *Engine) GetVerifierAndParams(id CampaignID) (string, []byte, bool) {
	record, err := e.loadCampaign(id)
	if err != nil {
		return "", nil, false
	}
	return record.Verifier, append([]byte(nil), record.Params...), true
}

// GetIncentiveInfo returns the accounting row for one incentive of a
// campaign. Missing campaign or incentive yields Exists=false with zero
// amounts.
func (e *Engine) GetIncentiveInfo(id CampaignID, incentive IncentiveID) IncentiveInfo {
	zero := IncentiveInfo{
		TotalOffered: big.NewInt(0),
		Remaining:    big.NewInt(0),
		Claimed:      big.NewInt(0),
		Refunded:     big.NewInt(0),
	}
	record, err := e.loadCampaign(id)
	if err != nil {
		return zero
	}
	entry := newIncentiveSet(record.Incentives).get(incentive)
	if entry == nil {
		return zero
	}
	return IncentiveInfo{
		Exists:       true,
		TotalOffered: cloneBigInt(entry.TotalOffered),
		Remaining:    cloneBigInt(entry.Remaining),
		Claimed:      cloneBigInt(entry.Claimed),
		Refunded:     cloneBigInt(entry.Refunded),
	}
}

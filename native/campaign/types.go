package campaign

import "math/big"

// CampaignID uniquely identifies a campaign. It is derived from a monotonic
// counter plus the immutable identity fields, so identifiers never collide or
// get reused.
type CampaignID [32]byte

// IncentiveID identifies a reward asset: either a registered token
// (state.TokenID) or a points program.
type IncentiveID [32]byte

// IncentiveEntry is the per-incentive accounting row of a campaign. The four
// amounts reconcile at all times: Claimed + Refunded + Remaining equals
// TotalOffered.
type IncentiveEntry struct {
	ID           IncentiveID
	TotalOffered *big.Int
	Remaining    *big.Int
	Claimed      *big.Int
	Refunded     *big.Int
}

func (e *IncentiveEntry) normalize() {
	if e.TotalOffered == nil {
		e.TotalOffered = big.NewInt(0)
	}
	if e.Remaining == nil {
		e.Remaining = big.NewInt(0)
	}
	if e.Claimed == nil {
		e.Claimed = big.NewInt(0)
	}
	if e.Refunded == nil {
		e.Refunded = big.NewInt(0)
	}
}

// Campaign is the stored record of a time-bounded incentive offer. Identity
// fields (sponsor, verifier, params, window) are immutable after creation;
// the incentive table and co-sponsor set mutate over the campaign's life. A
// campaign is never deleted: exhaustion shows up as all Remaining at zero.
type Campaign struct {
	ID                     CampaignID
	Sponsor                [20]byte
	Verifier               string
	Params                 []byte
	StartTime              uint64
	EndTime                uint64
	HasFeeRateOverride     bool
	FeeRateOverride        *big.Int
	HasFeeClaimantOverride bool
	FeeClaimantOverride    [20]byte
	Incentives             []IncentiveEntry
	CoSponsors             [][20]byte
}

func (c *Campaign) normalize() {
	for i := range c.Incentives {
		c.Incentives[i].normalize()
	}
	if c.FeeRateOverride == nil {
		c.FeeRateOverride = big.NewInt(0)
	}
}

// IsCoSponsor reports whether the address is whitelisted to add incentives.
func (c *Campaign) IsCoSponsor(addr [20]byte) bool {
	for _, member := range c.CoSponsors {
		if member == addr {
			return true
		}
	}
	return false
}

// incentiveSet wraps a campaign's incentive entries with an index map for
// O(1) lookup and swap-removal while keeping the backing array compact. Slot
// values store index+1 so the zero value means absent.
type incentiveSet struct {
	entries []IncentiveEntry
	slots   map[IncentiveID]int
}

func newIncentiveSet(entries []IncentiveEntry) *incentiveSet {
	set := &incentiveSet{
		entries: entries,
		slots:   make(map[IncentiveID]int, len(entries)),
	}
	for i := range entries {
		set.slots[entries[i].ID] = i + 1
	}
	return set
}

func (s *incentiveSet) get(id IncentiveID) *IncentiveEntry {
	slot := s.slots[id]
	if slot == 0 {
		return nil
	}
	return &s.entries[slot-1]
}

// upsert returns the entry for id, creating a zeroed row when absent.
func (s *incentiveSet) upsert(id IncentiveID) *IncentiveEntry {
	if entry := s.get(id); entry != nil {
		return entry
	}
	entry := IncentiveEntry{
		ID:           id,
		TotalOffered: big.NewInt(0),
		Remaining:    big.NewInt(0),
		Claimed:      big.NewInt(0),
		Refunded:     big.NewInt(0),
	}
	s.entries = append(s.entries, entry)
	s.slots[id] = len(s.entries)
	return &s.entries[len(s.entries)-1]
}

// remove drops the entry by swapping the last row into its slot.
func (s *incentiveSet) remove(id IncentiveID) bool {
	slot := s.slots[id]
	if slot == 0 {
		return false
	}
	idx := slot - 1
	last := len(s.entries) - 1
	if idx != last {
		s.entries[idx] = s.entries[last]
		s.slots[s.entries[idx].ID] = idx + 1
	}
	s.entries = s.entries[:last]
	delete(s.slots, id)
	return true
}

func (s *incentiveSet) list() []IncentiveEntry {
	return s.entries
}

// addCoSponsor and removeCoSponsor manage the whitelist with the same
// swap-remove discipline as the incentive set.
func addCoSponsor(members [][20]byte, addr [20]byte) [][20]byte {
	for _, member := range members {
		if member == addr {
			return members
		}
	}
	return append(members, addr)
}

func removeCoSponsor(members [][20]byte, addr [20]byte) [][20]byte {
	for i, member := range members {
		if member == addr {
			last := len(members) - 1
			members[i] = members[last]
			return members[:last]
		}
	}
	return members
}

package campaign

import "math/big"

// ClaimResult carries the verifier's answer to a claim: the incentives owed
// and the gross amounts, in matching order.
type ClaimResult struct {
	Incentives []IncentiveID
	Amounts    []*big.Int
}

// ActionVerifier is the pluggable policy consulted by the registry on every
// lifecycle transition. The registry passes its own module address as caller;
// implementations must validate it rather than trust the call site. A non-nil
// error from any callback rejects the enclosing operation, which the registry
// then unwinds completely.
//
// Claims are two-phase: OnClaim quotes the amounts owed without consuming
// the entitlement, and OnClaimSettled marks the quoted amounts as paid once
// the registry's own checks have passed. If the registry rejects a quote
// (e.g. the remaining budget no longer covers it), OnClaimSettled is never
// called and the entitlement stays claimable.
type ActionVerifier interface {
	OnCampaignCreated(caller [20]byte, id CampaignID, incentives []IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error
	OnIncentivesAdded(caller [20]byte, id CampaignID, incentives []IncentiveID, amounts []*big.Int, params []byte, sponsor [20]byte) error
	OnIncentivesRemoved(caller [20]byte, id CampaignID, incentives []IncentiveID, amounts []*big.Int, sponsor [20]byte) error
	OnClaim(caller [20]byte, ap [20]byte, id CampaignID, claimParams []byte) (*ClaimResult, error)
	OnClaimSettled(caller [20]byte, ap [20]byte, id CampaignID, result *ClaimResult) error
}

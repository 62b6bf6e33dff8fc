package snapshot

import "errors"

var (
	ErrNilState            = errors.New("snapshot: state not configured")
	ErrUnauthorized        = errors.New("snapshot: unauthorized caller")
	ErrCampaignNotTracked  = errors.New("snapshot: campaign not registered with this verifier")
	ErrAssertionNotFound   = errors.New("snapshot: assertion not found")
	ErrAssertionNotPending = errors.New("snapshot: assertion already settled")
	ErrLivenessNotElapsed  = errors.New("snapshot: liveness window still open")
	ErrNoResolvedRoot      = errors.New("snapshot: no resolved root for campaign")
	ErrInvalidClaimParams  = errors.New("snapshot: malformed claim parameters")
	ErrProofVerification   = errors.New("snapshot: merkle proof does not match resolved root")
)

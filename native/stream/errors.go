package stream

import "errors"

var (
	ErrNilState             = errors.New("stream: state not configured")
	ErrUnauthorized         = errors.New("stream: unauthorized caller")
	ErrCampaignNotTracked   = errors.New("stream: campaign not registered with this verifier")
	ErrZeroDuration         = errors.New("stream: campaign window has zero duration")
	ErrZeroRate             = errors.New("stream: emission rate would be zero")
	ErrUnknownIncentive     = errors.New("stream: incentive not streamed by campaign")
	ErrWindowElapsed        = errors.New("stream: campaign window already elapsed")
	ErrRemoveExceedsAccrued = errors.New("stream: removal exceeds unstreamed value")
	ErrNegativeWeight       = errors.New("stream: weight must be non-negative")
	ErrSettleExceedsOwed    = errors.New("stream: settlement exceeds owed balance")
)

package campaign

import "errors"

var (
	ErrNilState              = errors.New("campaign: state not configured")
	ErrUnauthorized          = errors.New("campaign: unauthorized")
	ErrCampaignNotFound      = errors.New("campaign: campaign not found")
	ErrCampaignExists        = errors.New("campaign: campaign already exists")
	ErrInvalidWindow         = errors.New("campaign: start time after end time")
	ErrInvalidAmount         = errors.New("campaign: amount must be positive")
	ErrLengthMismatch        = errors.New("campaign: incentive and amount lengths differ")
	ErrDuplicateIncentive    = errors.New("campaign: duplicate incentive in request")
	ErrNoIncentives          = errors.New("campaign: at least one incentive required")
	ErrUnknownVerifier       = errors.New("campaign: verifier not registered")
	ErrUnknownIncentive      = errors.New("campaign: incentive resolves to neither token nor points program")
	ErrVerifierRejected      = errors.New("campaign: verifier rejected operation")
	ErrInsufficientRemaining = errors.New("campaign: claim exceeds remaining incentive")
	ErrInvalidFeeRate        = errors.New("campaign: fee rate exceeds scale")
	ErrNoAccruedFees         = errors.New("campaign: no accrued fees")
)

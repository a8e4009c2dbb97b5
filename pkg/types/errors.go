package types

import "fmt"

// BetRejectionError is returned synchronously when a bet placement is refused.
type BetRejectionError struct {
	Code    string // one of the Reject* codes
	Message string
}

func (e *BetRejectionError) Error() string {
	return fmt.Sprintf("bet rejected: %s (%s)", e.Message, e.Code)
}

// Rejection codes for bet placement.
const (
	RejectInvalidParams = "INVALID_PARAMS"
	RejectBadStake      = "BAD_STAKE"
	RejectExpiredBox    = "EXPIRED_BOX"
	RejectNoPrice       = "NO_PRICE"
	RejectFeedPaused    = "FEED_PAUSED"
	RejectNoEdge        = "NO_EDGE"
	RejectRiskHalted    = "RISK_HALTED"
)

// NewBetRejection builds a rejection with a formatted message.
func NewBetRejection(code string, format string, args ...interface{}) *BetRejectionError {
	return &BetRejectionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

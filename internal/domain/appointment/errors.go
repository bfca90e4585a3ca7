package appointment

import "errors"

var (
	// ErrNoEligibleSlot means none of a day's offered times fell inside a
	// configured window. The caller keeps scanning.
	ErrNoEligibleSlot = errors.New("no eligible slot")

	// ErrVerificationTimeout means the operator did not answer a challenge
	// in time. The day's attempt is abandoned.
	ErrVerificationTimeout = errors.New("verification timed out")

	// ErrSessionBusy means a verification session was opened while another
	// one was still outstanding.
	ErrSessionBusy = errors.New("verification session already open")
)

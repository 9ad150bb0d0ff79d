// Package errors holds sentinel domain errors checked with errors.Is at the
// handler boundary.
package errors

import "errors"

var (
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrClaimNotFound        = errors.New("claim not found")

	// ErrAlreadyPaid signals the outcome router's "already processed"
	// variant: the order settled before this flow ran.
	ErrAlreadyPaid = errors.New("order already paid")

	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrInvalidPlan          = errors.New("invalid plan tier")

	ErrOTPInvalid = errors.New("verification code is invalid")
	ErrOTPExpired = errors.New("verification code has expired")

	ErrInvalidCredentials = errors.New("invalid username or password")
)

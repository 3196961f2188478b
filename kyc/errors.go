package kyc

import "errors"

var (
	// ErrNotFound means no KYC case exists for the user.
	ErrNotFound = errors.New("kyc case not found")
	// ErrCaseExists means the user already has a case; cases are 1:1.
	ErrCaseExists = errors.New("kyc case already exists for user")
	// ErrConcurrencyConflict means a concurrent write won the version
	// check; the caller should reload and re-inspect the case.
	ErrConcurrencyConflict = errors.New("kyc case was modified concurrently")
	// ErrUnauthorized means the acting role may not decide reviews.
	ErrUnauthorized = errors.New("role not permitted to review kyc cases")
)

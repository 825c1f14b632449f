package triage

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrSearchFailed wraps any provider error during listing or header fetch.
	ErrSearchFailed = errors.New("search failed")
	// ErrUnsupportedAction is a caller error; no provider call is made.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrActionPartialFailure means at least one mutation in a batch failed.
	ErrActionPartialFailure = errors.New("action partially failed")
)

// isAuthFailure reports whether the provider rejected the credential.
func isAuthFailure(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized
}

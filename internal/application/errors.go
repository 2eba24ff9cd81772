// Package application contains use-case orchestration services.
package application

import "errors"

var (
	// ErrFetchFailed indicates a limits fetch failed terminally for this
	// cycle. The next scheduled sweep retries naturally; there is no
	// in-sweep retry.
	ErrFetchFailed = errors.New("limits fetch failed")

	// ErrReconnectRequired indicates the one-shot token refresh failed or
	// the refreshed token was rejected. The organization's credentials are
	// no longer usable and the tenant must reconnect.
	ErrReconnectRequired = errors.New("token refresh failed, reconnect required")

	// ErrSweepInProgress is returned by TriggerNow while a sweep is
	// already running.
	ErrSweepInProgress = errors.New("sweep already in progress")
)

package driven

import (
	"context"
	"errors"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
)

// ErrAuthExpired indicates the remote API rejected the access token as
// expired or invalid. It triggers the one-shot refresh path and is never
// user-visible when the refresh succeeds.
var ErrAuthExpired = errors.New("access token expired or invalid")

// RefreshResult is the credential set issued by a successful token refresh.
// RefreshToken and InstanceURL may be empty, meaning the previous values are
// unchanged.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	InstanceURL  string
}

// LimitsClient defines the driven port for the remote metered API.
type LimitsClient interface {
	// FetchLimits retrieves the current limits payload for the org behind
	// instanceURL. Returns ErrAuthExpired when the token is rejected.
	FetchLimits(ctx context.Context, instanceURL, accessToken string) (*model.LimitsResult, error)

	// Refresh exchanges a refresh token for a new access token. env selects
	// the login host the exchange is performed against.
	Refresh(ctx context.Context, refreshToken string, env model.Environment) (*RefreshResult, error)
}

package application

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// LimitsFetcher retrieves one limits payload for an organization,
// transparently recovering from routine access token expiry.
//
// The refresh path is bounded to exactly one attempt per invocation: a
// permanently revoked credential must surface ErrReconnectRequired, never
// loop. Refreshes are additionally single-flight per organization id, because
// two concurrent refresh calls with the same refresh token can each
// invalidate the other's freshly issued access token.
type LimitsFetcher struct {
	client       driven.LimitsClient
	orgs         *OrganizationService
	refreshGroup singleflight.Group
}

// NewLimitsFetcher creates a new LimitsFetcher.
func NewLimitsFetcher(client driven.LimitsClient, orgs *OrganizationService) *LimitsFetcher {
	return &LimitsFetcher{client: client, orgs: orgs}
}

// Collect fetches the organization's current limits.
//
// On an auth-expired response it performs one token refresh, persists the new
// credential pair, and retries the fetch exactly once. Outcomes:
//   - success: the payload of the first or retried fetch.
//   - auth expired with no refresh token: ErrFetchFailed immediately.
//   - refresh rejected, or the retried fetch still auth-failing:
//     ErrReconnectRequired.
//   - any other failure (network, 5xx, timeout): ErrFetchFailed.
func (f *LimitsFetcher) Collect(ctx context.Context, org *model.Organization, secrets *model.OrganizationSecrets) (*model.LimitsResult, error) {
	result, err := f.client.FetchLimits(ctx, org.InstanceURL, secrets.AccessToken)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, driven.ErrAuthExpired) {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if secrets.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	refreshed, err := f.refresh(ctx, org, secrets.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReconnectRequired, err)
	}

	instanceURL := org.InstanceURL
	if refreshed.InstanceURL != "" {
		instanceURL = refreshed.InstanceURL
	}

	result, err = f.client.FetchLimits(ctx, instanceURL, refreshed.AccessToken)
	if err != nil {
		if errors.Is(err, driven.ErrAuthExpired) {
			// The freshly issued token was rejected too; retrying further
			// cannot help.
			return nil, fmt.Errorf("%w: %w", ErrReconnectRequired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return result, nil
}

// refresh exchanges the refresh token and persists the resulting pair.
// Single-flight per organization id; a concurrent caller shares the result
// of the in-flight exchange instead of racing it.
func (f *LimitsFetcher) refresh(ctx context.Context, org *model.Organization, refreshToken string) (*driven.RefreshResult, error) {
	v, err, _ := f.refreshGroup.Do(org.ID, func() (any, error) {
		refreshed, err := f.client.Refresh(ctx, refreshToken, org.Environment)
		if err != nil {
			return nil, err
		}

		if err := f.orgs.UpdateCredentials(ctx, org.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.InstanceURL); err != nil {
			return nil, fmt.Errorf("persist refreshed credentials: %w", err)
		}

		return refreshed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*driven.RefreshResult), nil
}

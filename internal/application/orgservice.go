package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
	"github.com/IsuruHerath/force-monitor/internal/vault"
)

// ConnectionCredentials is the plaintext token pair produced by the external
// OAuth connection flow.
type ConnectionCredentials struct {
	AccessToken  string
	RefreshToken string // Optional; empty when the flow issued none.
}

// ConnectionMeta is the non-secret connection metadata.
type ConnectionMeta struct {
	InstanceURL string
	Environment model.Environment
}

// OrganizationService is the registry of tenant connections. It owns
// credential custody: plaintext secrets cross its boundary only transiently,
// and everything below it sees vault envelopes.
type OrganizationService struct {
	orgs  driven.OrganizationStore
	vault *vault.Vault
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgs driven.OrganizationStore, v *vault.Vault) *OrganizationService {
	return &OrganizationService{orgs: orgs, vault: v}
}

// Connect registers a tenant's Salesforce org. Reconnecting an org that
// already exists for this owner overwrites its credentials and metadata in
// place and reactivates it if it had been deactivated. The returned record
// carries metadata only.
func (s *OrganizationService) Connect(ctx context.Context, ownerID, externalID string, creds ConnectionCredentials, meta ConnectionMeta) (*model.Organization, error) {
	accessEnc, err := s.vault.Encrypt(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}

	var refreshEnc string
	if creds.RefreshToken != "" {
		refreshEnc, err = s.vault.Encrypt(creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	env := meta.Environment
	if env == "" {
		env = model.EnvironmentProduction
	}

	org, err := s.orgs.Upsert(ctx, model.Organization{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		ExternalID:      externalID,
		InstanceURL:     meta.InstanceURL,
		Environment:     env,
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
		Active:          true,
	})
	if err != nil {
		return nil, err
	}

	return scrubSecrets(org), nil
}

// Get returns an organization's metadata, scoped to the owner. Credential
// envelopes are scrubbed from the result.
func (s *OrganizationService) Get(ctx context.Context, id, ownerID string) (*model.Organization, error) {
	org, err := s.orgs.GetByOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return scrubSecrets(org), nil
}

// GetWithSecrets returns an organization together with its decrypted
// credentials, scoped to the owner. The secrets are transient: callers must
// not persist, log, or cache them beyond the requesting operation.
// A tampered envelope surfaces vault.ErrDecryptionFailed untouched.
func (s *OrganizationService) GetWithSecrets(ctx context.Context, id, ownerID string) (*model.Organization, *model.OrganizationSecrets, error) {
	org, err := s.orgs.GetByOwner(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}

	secrets, err := s.DecryptSecrets(org)
	if err != nil {
		return nil, nil, err
	}

	return scrubSecrets(org), secrets, nil
}

// DecryptSecrets opens an organization's credential envelopes. Used by the
// sweep path, which enumerates organizations without an owner scope.
func (s *OrganizationService) DecryptSecrets(org *model.Organization) (*model.OrganizationSecrets, error) {
	accessToken, err := s.vault.Decrypt(org.AccessTokenEnc)
	if err != nil {
		return nil, fmt.Errorf("access token for organization %s: %w", org.ID, err)
	}

	var refreshToken string
	if org.HasRefreshToken() {
		refreshToken, err = s.vault.Decrypt(org.RefreshTokenEnc)
		if err != nil {
			return nil, fmt.Errorf("refresh token for organization %s: %w", org.ID, err)
		}
	}

	return &model.OrganizationSecrets{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// UpdateCredentials re-encrypts and overwrites an organization's tokens.
// Empty refreshToken or instanceURL keep the stored values. last_sync_at is
// bumped: new credentials imply a live exchange with the remote API.
func (s *OrganizationService) UpdateCredentials(ctx context.Context, id, accessToken, refreshToken, instanceURL string) error {
	accessEnc, err := s.vault.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var refreshEnc string
	if refreshToken != "" {
		refreshEnc, err = s.vault.Encrypt(refreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	return s.orgs.UpdateCredentials(ctx, id, accessEnc, refreshEnc, instanceURL)
}

// ListActive returns all active organizations with credential envelopes
// intact, for the sweep path.
func (s *OrganizationService) ListActive(ctx context.Context) ([]model.Organization, error) {
	return s.orgs.ListActive(ctx)
}

// MarkSynced records a successful collection time.
func (s *OrganizationService) MarkSynced(ctx context.Context, id string, at time.Time) error {
	return s.orgs.MarkSynced(ctx, id, at)
}

// Deactivate soft-deletes an organization, owner-scoped. Its history is kept.
func (s *OrganizationService) Deactivate(ctx context.Context, id, ownerID string) error {
	if _, err := s.orgs.GetByOwner(ctx, id, ownerID); err != nil {
		return err
	}
	return s.orgs.SetActive(ctx, id, false)
}

// Delete hard-deletes an organization and its snapshot history, owner-scoped.
func (s *OrganizationService) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := s.orgs.GetByOwner(ctx, id, ownerID); err != nil {
		return err
	}
	return s.orgs.Delete(ctx, id)
}

func scrubSecrets(org *model.Organization) *model.Organization {
	scrubbed := *org
	scrubbed.AccessTokenEnc = ""
	scrubbed.RefreshTokenEnc = ""
	return &scrubbed
}

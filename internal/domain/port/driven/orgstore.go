// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
)

// ErrOrgNotFound indicates the requested organization does not exist or does
// not belong to the requesting owner. The two cases are deliberately
// indistinguishable so a caller can never probe for another owner's records.
var ErrOrgNotFound = errors.New("organization not found")

// OrganizationStore defines the driven port for organization persistence.
// Token fields cross this boundary already encrypted; the store never sees
// plaintext secrets.
type OrganizationStore interface {
	// Upsert inserts the organization, or, when a record with the same
	// (OwnerID, ExternalID) already exists, overwrites that record's
	// credentials, metadata, and active flag in place. Returns the stored
	// record.
	Upsert(ctx context.Context, org model.Organization) (*model.Organization, error)

	// GetByID retrieves an organization regardless of owner. Returns
	// ErrOrgNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*model.Organization, error)

	// GetByOwner retrieves an organization scoped to the given owner.
	// Returns ErrOrgNotFound on a missing id or an owner mismatch.
	GetByOwner(ctx context.Context, id, ownerID string) (*model.Organization, error)

	// ListActive returns all active organizations ordered by creation time.
	ListActive(ctx context.Context) ([]model.Organization, error)

	// UpdateCredentials overwrites the encrypted token envelopes and, when
	// instanceURL is non-empty, the instance URL. Bumps updated_at and
	// last_sync_at. An empty refreshTokenEnc keeps the stored envelope.
	UpdateCredentials(ctx context.Context, id, accessTokenEnc, refreshTokenEnc, instanceURL string) error

	// MarkSynced records a successful collection time.
	MarkSynced(ctx context.Context, id string, at time.Time) error

	// SetActive toggles the active flag.
	SetActive(ctx context.Context, id string, active bool) error

	// Delete removes the organization and, via cascade, its snapshots.
	Delete(ctx context.Context, id string) error
}

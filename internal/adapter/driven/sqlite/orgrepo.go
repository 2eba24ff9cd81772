package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OrganizationStore = (*OrgRepo)(nil)

// OrgRepo is the SQLite implementation of the OrganizationStore port interface.
// Token columns hold vault envelopes; this repo never handles plaintext secrets.
type OrgRepo struct {
	db *DB
}

// NewOrgRepo creates a new OrgRepo backed by the given DB.
func NewOrgRepo(db *DB) *OrgRepo {
	return &OrgRepo{db: db}
}

// Upsert inserts the organization, or overwrites credentials and metadata in
// place when a record with the same (owner_id, external_id) already exists.
// The existing record keeps its id and created_at on conflict; the active
// flag follows the incoming record, so reconnecting a deactivated
// organization resumes collection.
func (r *OrgRepo) Upsert(ctx context.Context, org model.Organization) (*model.Organization, error) {
	const query = `
		INSERT INTO organizations
			(id, owner_id, external_id, instance_url, environment,
			 access_token_enc, refresh_token_enc, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, external_id) DO UPDATE SET
			instance_url      = excluded.instance_url,
			environment       = excluded.environment,
			access_token_enc  = excluded.access_token_enc,
			refresh_token_enc = excluded.refresh_token_enc,
			active            = excluded.active,
			updated_at        = excluded.updated_at`

	now := time.Now().UTC()
	createdAt := org.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		org.ID, org.OwnerID, org.ExternalID, org.InstanceURL, string(org.Environment),
		org.AccessTokenEnc, org.RefreshTokenEnc, org.Active,
		formatTime(createdAt), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert organization %s/%s: %w", org.OwnerID, org.ExternalID, err)
	}

	return r.getByOwnerAndExternal(ctx, org.OwnerID, org.ExternalID)
}

const orgColumns = `id, owner_id, external_id, instance_url, environment,
	access_token_enc, refresh_token_enc, active, last_sync_at, created_at, updated_at`

// GetByID retrieves an organization by id regardless of owner.
func (r *OrgRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = ?`

	org, err := scanOrganization(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get organization %s: %w", id, driven.ErrOrgNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}

	return org, nil
}

// GetByOwner retrieves an organization scoped to the given owner. A missing id
// and an owner mismatch are indistinguishable to the caller.
func (r *OrgRepo) GetByOwner(ctx context.Context, id, ownerID string) (*model.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = ? AND owner_id = ?`

	org, err := scanOrganization(r.db.Reader.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get organization %s: %w", id, driven.ErrOrgNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}

	return org, nil
}

func (r *OrgRepo) getByOwnerAndExternal(ctx context.Context, ownerID, externalID string) (*model.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE owner_id = ? AND external_id = ?`

	org, err := scanOrganization(r.db.Reader.QueryRowContext(ctx, query, ownerID, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get organization %s/%s: %w", ownerID, externalID, driven.ErrOrgNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s/%s: %w", ownerID, externalID, err)
	}

	return org, nil
}

// ListActive returns all active organizations ordered by creation time.
func (r *OrgRepo) ListActive(ctx context.Context) ([]model.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE active = 1 ORDER BY created_at, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active organizations: %w", err)
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, *org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}

	return orgs, nil
}

// UpdateCredentials overwrites the encrypted token envelopes. An empty
// refreshTokenEnc keeps the stored refresh envelope; an empty instanceURL
// keeps the stored instance URL. Bumps updated_at and last_sync_at.
func (r *OrgRepo) UpdateCredentials(ctx context.Context, id, accessTokenEnc, refreshTokenEnc, instanceURL string) error {
	const query = `
		UPDATE organizations SET
			access_token_enc  = ?,
			refresh_token_enc = CASE WHEN ? = '' THEN refresh_token_enc ELSE ? END,
			instance_url      = CASE WHEN ? = '' THEN instance_url ELSE ? END,
			last_sync_at      = ?,
			updated_at        = ?
		WHERE id = ?`

	now := formatTime(time.Now().UTC())
	result, err := r.db.Writer.ExecContext(ctx, query,
		accessTokenEnc, refreshTokenEnc, refreshTokenEnc, instanceURL, instanceURL, now, now, id)
	if err != nil {
		return fmt.Errorf("update credentials for organization %s: %w", id, err)
	}

	return requireRowAffected(result, id)
}

// MarkSynced records a successful collection time.
func (r *OrgRepo) MarkSynced(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE organizations SET last_sync_at = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		formatTime(at.UTC()), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("mark organization %s synced: %w", id, err)
	}

	return requireRowAffected(result, id)
}

// SetActive toggles the active flag.
func (r *OrgRepo) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE organizations SET active = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, active, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("set organization %s active=%v: %w", id, active, err)
	}

	return requireRowAffected(result, id)
}

// Delete removes the organization. Foreign key cascade removes its snapshots.
func (r *OrgRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM organizations WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete organization %s: %w", id, err)
	}

	return requireRowAffected(result, id)
}

func requireRowAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("organization %s: %w", id, driven.ErrOrgNotFound)
	}
	return nil
}

func scanOrganization(s scanner) (*model.Organization, error) {
	var org model.Organization
	var environment string
	var lastSyncAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&org.ID, &org.OwnerID, &org.ExternalID, &org.InstanceURL, &environment,
		&org.AccessTokenEnc, &org.RefreshTokenEnc, &org.Active, &lastSyncAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	org.Environment = model.Environment(environment)

	if lastSyncAt.Valid {
		t, err := parseTime(lastSyncAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_sync_at: %w", err)
		}
		org.LastSyncAt = &t
	}

	if org.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if org.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &org, nil
}

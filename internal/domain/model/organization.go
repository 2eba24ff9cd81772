// Package model defines the core domain types shared across the application.
package model

import "time"

// Environment identifies which Salesforce login host an organization
// authenticates against.
type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentSandbox    Environment = "sandbox"
)

// Organization is one tenant's connection to a Salesforce org. Token fields
// hold encrypted envelopes produced by the vault; plaintext secrets only ever
// exist transiently in OrganizationSecrets.
//
// At most one Organization exists per (OwnerID, ExternalID) pair; reconnecting
// the same Salesforce org overwrites credentials in place.
type Organization struct {
	ID              string
	OwnerID         string
	ExternalID      string // Salesforce org ID.
	InstanceURL     string
	Environment     Environment
	AccessTokenEnc  string
	RefreshTokenEnc string // Empty when the connection has no refresh token.
	Active          bool
	LastSyncAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasRefreshToken reports whether an encrypted refresh token is stored for
// this organization. Connections without one cannot recover from access token
// expiry and must be reconnected.
func (o *Organization) HasRefreshToken() bool {
	return o.RefreshTokenEnc != ""
}

// OrganizationSecrets holds the decrypted credentials for one organization.
// Values are transient: never persisted, never logged, never cached beyond
// the operation that requested them.
type OrganizationSecrets struct {
	AccessToken  string
	RefreshToken string // Empty when no refresh token is stored.
}

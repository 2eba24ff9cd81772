package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// --- Mock implementations of the driven ports ---

type mockOrgStore struct {
	mu    sync.Mutex
	orgs  map[string]model.Organization
	order []string

	updateCredCalls int
}

func newMockOrgStore() *mockOrgStore {
	return &mockOrgStore{orgs: make(map[string]model.Organization)}
}

func (m *mockOrgStore) Upsert(_ context.Context, org model.Organization) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range m.orgs {
		if existing.OwnerID == org.OwnerID && existing.ExternalID == org.ExternalID {
			existing.InstanceURL = org.InstanceURL
			existing.Environment = org.Environment
			existing.AccessTokenEnc = org.AccessTokenEnc
			existing.RefreshTokenEnc = org.RefreshTokenEnc
			existing.Active = org.Active
			existing.UpdatedAt = now
			m.orgs[id] = existing
			return &existing, nil
		}
	}

	org.CreatedAt = now
	org.UpdatedAt = now
	m.orgs[org.ID] = org
	m.order = append(m.order, org.ID)
	return &org, nil
}

func (m *mockOrgStore) GetByID(_ context.Context, id string) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	org, ok := m.orgs[id]
	if !ok {
		return nil, driven.ErrOrgNotFound
	}
	return &org, nil
}

func (m *mockOrgStore) GetByOwner(_ context.Context, id, ownerID string) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	org, ok := m.orgs[id]
	if !ok || org.OwnerID != ownerID {
		return nil, driven.ErrOrgNotFound
	}
	return &org, nil
}

func (m *mockOrgStore) ListActive(_ context.Context) ([]model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orgs []model.Organization
	for _, id := range m.order {
		if org, ok := m.orgs[id]; ok && org.Active {
			orgs = append(orgs, org)
		}
	}
	return orgs, nil
}

func (m *mockOrgStore) UpdateCredentials(_ context.Context, id, accessTokenEnc, refreshTokenEnc, instanceURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCredCalls++

	org, ok := m.orgs[id]
	if !ok {
		return driven.ErrOrgNotFound
	}

	org.AccessTokenEnc = accessTokenEnc
	if refreshTokenEnc != "" {
		org.RefreshTokenEnc = refreshTokenEnc
	}
	if instanceURL != "" {
		org.InstanceURL = instanceURL
	}
	now := time.Now().UTC()
	org.LastSyncAt = &now
	org.UpdatedAt = now
	m.orgs[id] = org
	return nil
}

func (m *mockOrgStore) MarkSynced(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	org, ok := m.orgs[id]
	if !ok {
		return driven.ErrOrgNotFound
	}
	org.LastSyncAt = &at
	m.orgs[id] = org
	return nil
}

func (m *mockOrgStore) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	org, ok := m.orgs[id]
	if !ok {
		return driven.ErrOrgNotFound
	}
	org.Active = active
	m.orgs[id] = org
	return nil
}

func (m *mockOrgStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orgs[id]; !ok {
		return driven.ErrOrgNotFound
	}
	delete(m.orgs, id)
	return nil
}

type mockSnapshotStore struct {
	mu        sync.Mutex
	snaps     []model.Snapshot
	appendErr error
}

func (m *mockSnapshotStore) Append(_ context.Context, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendErr != nil {
		return m.appendErr
	}
	snap.ID = int64(len(m.snaps) + 1)
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *mockSnapshotStore) Query(_ context.Context, orgID string, from, to time.Time) ([]model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []model.Snapshot
	for _, snap := range m.snaps {
		if snap.OrgID == orgID && !snap.CollectedAt.Before(from) && snap.CollectedAt.Before(to) {
			result = append(result, snap)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CollectedAt.Before(result[j].CollectedAt) })
	return result, nil
}

func (m *mockSnapshotStore) all() []model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Snapshot(nil), m.snaps...)
}

type mockLimitsClient struct {
	mu           sync.Mutex
	fetchFn      func(ctx context.Context, instanceURL, accessToken string) (*model.LimitsResult, error)
	refreshFn    func(ctx context.Context, refreshToken string, env model.Environment) (*driven.RefreshResult, error)
	fetchCalls   int
	refreshCalls int
}

func (m *mockLimitsClient) FetchLimits(ctx context.Context, instanceURL, accessToken string) (*model.LimitsResult, error) {
	m.mu.Lock()
	m.fetchCalls++
	fn := m.fetchFn
	m.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("fetchFn not set")
	}
	return fn(ctx, instanceURL, accessToken)
}

func (m *mockLimitsClient) Refresh(ctx context.Context, refreshToken string, env model.Environment) (*driven.RefreshResult, error) {
	m.mu.Lock()
	m.refreshCalls++
	fn := m.refreshFn
	m.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("refreshFn not set")
	}
	return fn(ctx, refreshToken, env)
}

func (m *mockLimitsClient) stats() (fetches, refreshes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls, m.refreshCalls
}

// Compile-time port satisfaction checks for the mocks.
var (
	_ driven.OrganizationStore = (*mockOrgStore)(nil)
	_ driven.SnapshotStore     = (*mockSnapshotStore)(nil)
	_ driven.LimitsClient      = (*mockLimitsClient)(nil)
)

// limitsResult builds a LimitsResult carrying one DailyApiRequests entry.
func limitsResult(maxValue, remaining float64) *model.LimitsResult {
	raw := fmt.Sprintf(`{"DailyApiRequests":{"Max":%g,"Remaining":%g}}`, maxValue, remaining)
	return &model.LimitsResult{
		Raw: []byte(raw),
		Limits: map[string]model.LimitEntry{
			"DailyApiRequests": {Max: maxValue, Remaining: remaining},
		},
	}
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sitebot/chatgate/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreRequesters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	r := &domain.Requester{
		PhoneNumber: "15550001111",
		SubjectID:   "U123",
		FirstName:   "Nadia",
		HubID:       "b.hub1",
	}
	if err := store.UpsertRequester(ctx, r); err != nil {
		t.Fatalf("UpsertRequester failed: %v", err)
	}

	got, err := store.GetRequesterByPhone(ctx, "15550001111")
	if err != nil {
		t.Fatalf("GetRequesterByPhone failed: %v", err)
	}
	if got == nil || got.SubjectID != "U123" || got.HubID != "b.hub1" {
		t.Fatalf("unexpected requester: %+v", got)
	}

	missing, err := store.GetRequesterByPhone(ctx, "15559999999")
	if err != nil {
		t.Fatalf("GetRequesterByPhone failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown phone, got %+v", missing)
	}
}

func TestSQLiteStoreTenantConfigs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	cfg := &domain.TenantConfig{HubID: "b.hub1", ClientID: "cid", ClientSecret: "secret"}
	if err := store.UpsertTenantConfig(ctx, cfg); err != nil {
		t.Fatalf("UpsertTenantConfig failed: %v", err)
	}

	got, err := store.GetTenantConfig(ctx, "b.hub1")
	if err != nil {
		t.Fatalf("GetTenantConfig failed: %v", err)
	}
	if got == nil || got.ClientID != "cid" {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestSQLiteStoreCredentialUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	now := time.Now().UTC().Truncate(time.Second)
	cred := &domain.DelegatedCredential{
		SubjectID:    "U123",
		AccessToken:  "at1",
		RefreshToken: "rt1",
		Status:       domain.CredentialStatusActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	if err := store.UpsertCredential(ctx, cred); err != nil {
		t.Fatalf("UpsertCredential failed: %v", err)
	}

	cred.AccessToken = "at2"
	cred.RefreshToken = "rt2"
	if err := store.UpsertCredential(ctx, cred); err != nil {
		t.Fatalf("second UpsertCredential failed: %v", err)
	}

	got, err := store.GetCredential(ctx, "U123")
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got == nil || got.AccessToken != "at2" || got.RefreshToken != "rt2" {
		t.Fatalf("upsert did not replace row: %+v", got)
	}
	if got.Status != domain.CredentialStatusActive {
		t.Fatalf("unexpected status: %s", got.Status)
	}
}

func TestSeedFromYAML(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	content := `requesters:
  - phone_number: "15550001111"
    subject_id: U123
    first_name: Nadia
    hub_id: b.hub1
tenants:
  - hub_id: b.hub1
    client_id: cid
    client_secret: secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}
	if err := store.Seed(ctx, seed); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	r, err := store.GetRequesterByPhone(ctx, "15550001111")
	if err != nil || r == nil || r.FirstName != "Nadia" {
		t.Fatalf("seeded requester missing: %+v err=%v", r, err)
	}
	cfg, err := store.GetTenantConfig(ctx, "b.hub1")
	if err != nil || cfg == nil || cfg.ClientSecret != "secret" {
		t.Fatalf("seeded tenant missing: %+v err=%v", cfg, err)
	}
}

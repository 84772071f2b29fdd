package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitebot/chatgate/internal/adapter/oauth"
	"github.com/sitebot/chatgate/internal/cache"
	"github.com/sitebot/chatgate/internal/domain"
	store "github.com/sitebot/chatgate/internal/repository"
)

type tokenServer struct {
	*httptest.Server
	calls   atomic.Int64
	failing atomic.Bool
}

func newTokenServer(t *testing.T, accessToken string, expiresIn int) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		if ts.failing.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		require.NoError(t, r.ParseForm())
		resp := map[string]any{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "Bearer",
		}
		if r.PostFormValue("grant_type") == "refresh_token" {
			resp["refresh_token"] = "rotated-refresh"
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestDeps(t *testing.T, ts *tokenServer) (*Cache, *store.SQLiteStore, *cache.MemoryConn) {
	t.Helper()
	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn := cache.NewMemoryConn()
	tc := New(cache.New(conn, 0), oauth.NewClient(ts.URL, 5*time.Second))
	return tc, db, conn
}

func seedCredential(t *testing.T, db *store.SQLiteStore, expiresAt time.Time, status domain.CredentialStatus) {
	t.Helper()
	require.NoError(t, db.UpsertCredential(context.Background(), &domain.DelegatedCredential{
		SubjectID:    "subj-1",
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		Status:       status,
		CreatedAt:    time.Now().UTC().Add(-time.Hour),
		ExpiresAt:    expiresAt,
	}))
}

func TestDelegatedValidNoExchange(t *testing.T) {
	ts := newTokenServer(t, "fresh-access", 3600)
	tc, db, _ := newTestDeps(t, ts)
	seedCredential(t, db, time.Now().UTC().Add(time.Hour), domain.CredentialStatusActive)

	tok, ok := tc.Delegated(context.Background(), db, "subj-1", "cid", "secret")
	require.True(t, ok)
	require.Equal(t, "stored-access", tok)
	require.EqualValues(t, 0, ts.calls.Load())
}

func TestDelegatedNearExpiryRefreshesOnce(t *testing.T) {
	ts := newTokenServer(t, "fresh-access", 3600)
	tc, db, _ := newTestDeps(t, ts)
	seedCredential(t, db, time.Now().UTC().Add(time.Minute), domain.CredentialStatusActive)

	tok, ok := tc.Delegated(context.Background(), db, "subj-1", "cid", "secret")
	require.True(t, ok)
	require.Equal(t, "fresh-access", tok)
	require.EqualValues(t, 1, ts.calls.Load())

	rec, err := db.GetCredential(context.Background(), "subj-1")
	require.NoError(t, err)
	require.Equal(t, "fresh-access", rec.AccessToken)
	require.Equal(t, "rotated-refresh", rec.RefreshToken)
	require.WithinDuration(t, time.Now().UTC().Add(time.Hour), rec.ExpiresAt, 10*time.Second)

	// The refreshed record satisfies the next request without another
	// exchange.
	tok, ok = tc.Delegated(context.Background(), db, "subj-1", "cid", "secret")
	require.True(t, ok)
	require.Equal(t, "fresh-access", tok)
	require.EqualValues(t, 1, ts.calls.Load())
}

func TestDelegatedRefreshFailure(t *testing.T) {
	ts := newTokenServer(t, "fresh-access", 3600)
	ts.failing.Store(true)
	tc, db, _ := newTestDeps(t, ts)
	seedCredential(t, db, time.Now().UTC().Add(time.Minute), domain.CredentialStatusActive)

	_, ok := tc.Delegated(context.Background(), db, "subj-1", "cid", "secret")
	require.False(t, ok)

	rec, err := db.GetCredential(context.Background(), "subj-1")
	require.NoError(t, err)
	require.Equal(t, "stored-access", rec.AccessToken)
}

func TestDelegatedRevoked(t *testing.T) {
	ts := newTokenServer(t, "fresh-access", 3600)
	tc, db, _ := newTestDeps(t, ts)
	seedCredential(t, db, time.Now().UTC().Add(time.Hour), domain.CredentialStatusRevoked)

	_, ok := tc.Delegated(context.Background(), db, "subj-1", "cid", "secret")
	require.False(t, ok)
	require.EqualValues(t, 0, ts.calls.Load())
}

func TestDelegatedMissing(t *testing.T) {
	ts := newTokenServer(t, "fresh-access", 3600)
	tc, db, _ := newTestDeps(t, ts)

	_, ok := tc.Delegated(context.Background(), db, "nobody", "cid", "secret")
	require.False(t, ok)
}

func TestDelegatedCacheOutageFallsBackToStore(t *testing.T) {
	ts := newTokenServer(t, "fresh-access", 3600)
	tc, db, conn := newTestDeps(t, ts)
	seedCredential(t, db, time.Now().UTC().Add(time.Hour), domain.CredentialStatusActive)
	conn.Down = true

	tok, ok := tc.Delegated(context.Background(), db, "subj-1", "cid", "secret")
	require.True(t, ok)
	require.Equal(t, "stored-access", tok)
}

func TestServiceCachedAcrossCalls(t *testing.T) {
	ts := newTokenServer(t, "svc-access", 3600)
	tc, _, conn := newTestDeps(t, ts)

	tok, ok := tc.Service(context.Background(), "cid", "secret", "")
	require.True(t, ok)
	require.Equal(t, "svc-access", tok)
	require.EqualValues(t, 1, ts.calls.Load())

	tok, ok = tc.Service(context.Background(), "cid", "secret", "")
	require.True(t, ok)
	require.Equal(t, "svc-access", tok)
	require.EqualValues(t, 1, ts.calls.Load())

	ttl, present := conn.TTL("two_legged_token:cid")
	require.True(t, present)
	require.LessOrEqual(t, ttl, 3540*time.Second)
	require.Greater(t, ttl, 3500*time.Second)
}

func TestServiceExchangeFailure(t *testing.T) {
	ts := newTokenServer(t, "svc-access", 3600)
	ts.failing.Store(true)
	tc, _, _ := newTestDeps(t, ts)

	_, ok := tc.Service(context.Background(), "cid", "secret", "")
	require.False(t, ok)
}

func TestServiceCacheOutageStillExchanges(t *testing.T) {
	ts := newTokenServer(t, "svc-access", 3600)
	tc, _, conn := newTestDeps(t, ts)
	conn.Down = true

	tok, ok := tc.Service(context.Background(), "cid", "secret", "")
	require.True(t, ok)
	require.Equal(t, "svc-access", tok)
}

// Package token manages the two credential kinds: delegated
// on-behalf-of-user tokens with durable refresh, and cache-only service
// tokens. No failure crosses this boundary as an error; callers see a token
// or they see absent.
package token

import (
	"context"
	"log/slog"
	"time"

	"github.com/sitebot/chatgate/internal/adapter/oauth"
	"github.com/sitebot/chatgate/internal/cache"
	"github.com/sitebot/chatgate/internal/domain"
	store "github.com/sitebot/chatgate/internal/repository"
)

const (
	// RefreshMargin is the safety window before expiry at which a
	// delegated credential is refreshed rather than handed out.
	RefreshMargin = 300 * time.Second

	// serviceTTLSlack is subtracted from expires_in when caching a
	// service token, so the cache never serves one at the edge of expiry.
	serviceTTLSlack = 60 * time.Second
)

// Cache gates all outbound API calls on valid credentials.
type Cache struct {
	cache *cache.Client
	oauth *oauth.Client
	now   func() time.Time
}

// New creates a credential cache.
func New(c *cache.Client, o *oauth.Client) *Cache {
	return &Cache{cache: c, oauth: o, now: time.Now}
}

func delegatedKey(subjectID string) string { return "delegated_credential:" + subjectID }
func serviceKey(clientID string) string    { return "two_legged_token:" + clientID }

// Delegated returns a valid on-behalf-of-user access token for subjectID,
// or absent. The tenant's durable store handle is passed per call. Within
// RefreshMargin of expiry exactly one refresh exchange is attempted; a
// failed refresh yields absent and leaves the stored record untouched.
func (tc *Cache) Delegated(ctx context.Context, creds store.CredentialStore, subjectID, clientID, clientSecret string) (string, bool) {
	rec := tc.loadCredential(ctx, creds, subjectID)
	if rec == nil {
		slog.Warn("no delegated credential record", "subject_id", subjectID)
		return "", false
	}
	if rec.Status != domain.CredentialStatusActive {
		slog.Warn("delegated credential not active", "subject_id", subjectID, "status", rec.Status)
		return "", false
	}

	if tc.now().Add(RefreshMargin).Before(rec.ExpiresAt) {
		return rec.AccessToken, true
	}

	slog.Info("delegated credential near expiry, refreshing", "subject_id", subjectID)
	refreshed := tc.refreshDelegated(ctx, creds, rec, clientID, clientSecret)
	if refreshed == nil {
		return "", false
	}
	return refreshed.AccessToken, true
}

// loadCredential reads through the cache to the durable store. A cache
// outage degrades to the store lookup.
func (tc *Cache) loadCredential(ctx context.Context, creds store.CredentialStore, subjectID string) *domain.DelegatedCredential {
	var cached domain.DelegatedCredential
	if tc.cache.Get(ctx, delegatedKey(subjectID), &cached) {
		return &cached
	}

	rec, err := creds.GetCredential(ctx, subjectID)
	if err != nil {
		slog.Error("credential lookup failed", "subject_id", subjectID, "error", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	tc.cache.Set(ctx, delegatedKey(subjectID), rec, 0)
	return rec
}

// refreshDelegated performs one refresh exchange and durably upserts the
// result. If the upsert fails after a successful exchange, the cached copy
// is deleted so a token that was never persisted is not served.
func (tc *Cache) refreshDelegated(ctx context.Context, creds store.CredentialStore, rec *domain.DelegatedCredential, clientID, clientSecret string) *domain.DelegatedCredential {
	tok, err := tc.oauth.Refresh(ctx, clientID, clientSecret, rec.RefreshToken, "")
	if err != nil {
		slog.Error("delegated credential refresh failed", "subject_id", rec.SubjectID, "error", err)
		return nil
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = rec.RefreshToken
	}
	now := tc.now().UTC()
	updated := &domain.DelegatedCredential{
		SubjectID:    rec.SubjectID,
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		Status:       domain.CredentialStatusActive,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(tok.ExpiresIn) * time.Second),
	}

	if err := creds.UpsertCredential(ctx, updated); err != nil {
		slog.Error("credential upsert failed after refresh", "subject_id", rec.SubjectID, "error", err)
		tc.cache.Delete(ctx, delegatedKey(rec.SubjectID))
		return nil
	}
	tc.cache.Set(ctx, delegatedKey(rec.SubjectID), updated, 0)
	return updated
}

// Service returns an application-level access token, or absent. Tokens are
// held only in the expiring cache and regenerated transparently on miss.
func (tc *Cache) Service(ctx context.Context, clientID, clientSecret, scope string) (string, bool) {
	var cached string
	if tc.cache.Get(ctx, serviceKey(clientID), &cached) && cached != "" {
		return cached, true
	}

	tok, err := tc.oauth.ClientCredentials(ctx, clientID, clientSecret, scope)
	if err != nil {
		slog.Error("service credential exchange failed", "client_id", clientID, "error", err)
		return "", false
	}

	ttl := time.Duration(tok.ExpiresIn)*time.Second - serviceTTLSlack
	if ttl > 0 {
		tc.cache.Set(ctx, serviceKey(clientID), tok.AccessToken, ttl)
	}
	return tok.AccessToken, true
}

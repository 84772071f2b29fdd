// Package session persists in-flight conversational requests in the
// expiring cache. There is no secondary persistence: a cache outage makes
// paused disambiguations unrecoverable for their TTL window.
package session

import (
	"context"
	"time"

	"github.com/sitebot/chatgate/internal/cache"
	"github.com/sitebot/chatgate/internal/domain"
)

// TTL is the session lifetime, measured from the last write.
const TTL = 30 * time.Minute

// Store keeps at most one session per requester, last write wins.
type Store struct {
	cache *cache.Client
	ttl   time.Duration
}

// New creates a session store over the cache. A non-positive ttl falls back
// to the default TTL.
func New(c *cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Store{cache: c, ttl: ttl}
}

func key(requesterID string) string {
	return "session:" + requesterID
}

// Get loads the session for a requester. A hit is re-written so the TTL
// restarts from the read.
func (s *Store) Get(ctx context.Context, requesterID string) (*domain.Session, bool) {
	var sess domain.Session
	if !s.cache.Get(ctx, key(requesterID), &sess) {
		return nil, false
	}
	s.cache.Set(ctx, key(requesterID), &sess, s.ttl)
	return &sess, true
}

// Set overwrites the requester's session and resets the TTL.
func (s *Store) Set(ctx context.Context, requesterID string, sess *domain.Session) bool {
	sess.UpdatedAt = time.Now().UTC()
	return s.cache.Set(ctx, key(requesterID), sess, s.ttl)
}

// Clear removes the requester's session.
func (s *Store) Clear(ctx context.Context, requesterID string) {
	s.cache.Delete(ctx, key(requesterID))
}

// MissingFields reports which of the required resumption fields are not set
// on the session. Resumption must never re-run intent extraction, so a
// session missing any of these cannot be resumed.
func MissingFields(sess *domain.Session, required []string) []string {
	var missing []string
	for _, f := range required {
		switch f {
		case "intent":
			if sess.Intent == "" {
				missing = append(missing, f)
			}
		case "params":
			if sess.Params.Intent == "" {
				missing = append(missing, f)
			}
		case "requester":
			if sess.Requester.SubjectID == "" {
				missing = append(missing, f)
			}
		case "tenant":
			if sess.Tenant.HubID == "" {
				missing = append(missing, f)
			}
		case "delegated_token":
			if sess.DelegatedToken == "" {
				missing = append(missing, f)
			}
		case "service_token":
			if sess.ServiceToken == "" {
				missing = append(missing, f)
			}
		default:
			missing = append(missing, f)
		}
	}
	return missing
}

package store

import (
	"context"

	"github.com/sitebot/chatgate/internal/domain"
)

// Store is the durable persistence surface for the gateway: requester
// directory, tenant onboarding, and delegated credential records.
type Store interface {
	GetRequesterByPhone(ctx context.Context, phone string) (*domain.Requester, error)
	UpsertRequester(ctx context.Context, r *domain.Requester) error

	GetTenantConfig(ctx context.Context, hubID string) (*domain.TenantConfig, error)
	UpsertTenantConfig(ctx context.Context, t *domain.TenantConfig) error

	GetCredential(ctx context.Context, subjectID string) (*domain.DelegatedCredential, error)
	UpsertCredential(ctx context.Context, c *domain.DelegatedCredential) error

	Close() error
}

// CredentialStore is the slice of Store the credential cache needs. The
// tenant's durable store handle is passed per call rather than held
// globally.
type CredentialStore interface {
	GetCredential(ctx context.Context, subjectID string) (*domain.DelegatedCredential, error)
	UpsertCredential(ctx context.Context, c *domain.DelegatedCredential) error
}

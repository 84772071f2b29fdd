package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sitebot/chatgate/internal/domain"
)

// SeedFile is the onboarding file loaded at startup: which phone numbers map
// to which platform identities, and the credentials for each tenant hub.
type SeedFile struct {
	Requesters []seedRequester `yaml:"requesters"`
	Tenants    []seedTenant    `yaml:"tenants"`
}

type seedRequester struct {
	PhoneNumber string `yaml:"phone_number"`
	SubjectID   string `yaml:"subject_id"`
	FirstName   string `yaml:"first_name"`
	HubID       string `yaml:"hub_id"`
}

type seedTenant struct {
	HubID        string `yaml:"hub_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed upserts the seed file contents into the store.
func (s *SQLiteStore) Seed(ctx context.Context, seed *SeedFile) error {
	for _, r := range seed.Requesters {
		req := domain.Requester{
			PhoneNumber: r.PhoneNumber,
			SubjectID:   r.SubjectID,
			FirstName:   r.FirstName,
			HubID:       r.HubID,
		}
		if err := s.UpsertRequester(ctx, &req); err != nil {
			return fmt.Errorf("failed to seed requester %s: %w", r.PhoneNumber, err)
		}
	}
	for _, t := range seed.Tenants {
		cfg := domain.TenantConfig{
			HubID:        t.HubID,
			ClientID:     t.ClientID,
			ClientSecret: t.ClientSecret,
		}
		if err := s.UpsertTenantConfig(ctx, &cfg); err != nil {
			return fmt.Errorf("failed to seed tenant %s: %w", t.HubID, err)
		}
	}
	return nil
}

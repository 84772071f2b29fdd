// Package domain defines the core domain models for the gateway.
package domain

import "time"

// Requester is a chat user known to the gateway, keyed by phone number.
type Requester struct {
	PhoneNumber string `json:"phone_number"`
	SubjectID   string `json:"subject_id"` // stable external identity at the PM platform
	FirstName   string `json:"first_name"`
	HubID       string `json:"hub_id"`
}

// TenantConfig is the configuration bundle for one customer account (hub).
type TenantConfig struct {
	HubID        string `json:"hub_id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// CredentialStatus is the lifecycle status of a delegated credential.
type CredentialStatus string

const (
	CredentialStatusActive  CredentialStatus = "active"
	CredentialStatusRevoked CredentialStatus = "revoked"
)

// DelegatedCredential is a durable on-behalf-of-user token record.
type DelegatedCredential struct {
	SubjectID    string           `json:"subject_id"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Status       CredentialStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
}

// Candidate is one entity produced by name resolution.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"` // users only
}

// PendingKind marks which choice a paused session is waiting on.
type PendingKind string

const (
	PendingNone          PendingKind = "none"
	PendingUserChoice    PendingKind = "awaiting_user_choice"
	PendingProjectChoice PendingKind = "awaiting_project_choice"
)

// ChoiceKind is the entity kind encoded in a selection payload (kind::id).
type ChoiceKind string

const (
	ChoiceKindUser    ChoiceKind = "user"
	ChoiceKindProject ChoiceKind = "project"
)

// Session is one in-flight, possibly paused, conversational request.
// A paused session carries everything needed to resume without re-running
// intent extraction: intent, parameters, profile, tenant and both tokens.
type Session struct {
	RequesterID     string      `json:"requester_id"`
	Intent          Intent      `json:"intent"`
	Params          Params      `json:"params"`
	Requester       Requester   `json:"requester"`
	Tenant          TenantConfig `json:"tenant"`
	DelegatedToken  string      `json:"delegated_token"`
	ServiceToken    string      `json:"service_token"`
	Pending         PendingKind `json:"pending"`
	SelectedUser    *Candidate  `json:"selected_user,omitempty"`
	SelectedProject *Candidate  `json:"selected_project,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Package service implements the conversational pipeline: profile lookup,
// intent policy, credential acquisition, entity disambiguation with
// pause/resume sessions, and dispatch of the resolved request.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sitebot/chatgate/internal/adapter/chat"
	"github.com/sitebot/chatgate/internal/adapter/issues"
	"github.com/sitebot/chatgate/internal/adapter/nlu"
	"github.com/sitebot/chatgate/internal/cache"
	"github.com/sitebot/chatgate/internal/domain"
	store "github.com/sitebot/chatgate/internal/repository"
	"github.com/sitebot/chatgate/internal/session"
	"github.com/sitebot/chatgate/policy"
)

// Messenger sends replies and interactive prompts back to the requester.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendChoiceList(ctx context.Context, to, prompt string, items []chat.ChoiceItem) error
}

// Resolver resolves free-text names to directory candidates.
type Resolver interface {
	Users(ctx context.Context, hubID, name, token string) []domain.Candidate
	Projects(ctx context.Context, hubID, name, token string) []domain.Candidate
}

// Credentials supplies the two token kinds for a tenant.
type Credentials interface {
	Delegated(ctx context.Context, creds store.CredentialStore, subjectID, clientID, clientSecret string) (string, bool)
	Service(ctx context.Context, clientID, clientSecret, scope string) (string, bool)
}

// IssuesAPI is the issue-query surface of the remote data API.
type IssuesAPI interface {
	GetIssues(ctx context.Context, projectID, token string, q issues.Query) (*issues.Result, error)
	GetIssueTypeID(ctx context.Context, projectID, token, title string) (string, error)
}

// Gate evaluates the intent policy before any upstream call.
type Gate interface {
	Allow(ctx context.Context, input policy.Input) (bool, error)
}

// Deps holds everything the service needs injected.
type Deps struct {
	Store     store.Store
	Cache     *cache.Client
	Sessions  *session.Store
	Tokens    Credentials
	Resolver  Resolver
	Parser    nlu.Parser
	Messenger Messenger
	Issues    IssuesAPI
	Gate      Gate
}

// Service handles inbound messages and selection replies.
type Service struct {
	deps Deps
}

// New creates the service.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// Requester-facing reply texts. The Message field of a classified error is
// the whole contract with the requester, so these stay short and free of
// internal detail.
const (
	replyNotAssigned    = "You are not assigned to any account."
	replyParseFailure   = "Sorry, I couldn't understand your request."
	replyGreeting       = "Hello! I can help you with your project's issues, reviews and forms data. How can I assist you today?"
	replyUnsure         = "I'm not sure what you're asking for. Try asking about issues, reviews or forms, for example: \"how many open issues are assigned to me?\""
	replyConfigMissing  = "Configuration not found. Contact support."
	replyPolicyDenied   = "That request is not permitted for your account."
	replyAuthError      = "Auth error. Try again later."
	replyNoProjectGiven = "I need a project name for that. Please include the project in your request."
	replySessionExpired = "Your session has expired. Please start again."
	replyBadSelection   = "Invalid selection format. Please try again."
	replyInternalError  = "Something went wrong. Please try again."

	promptSelectUser    = "Please select the correct user:"
	promptSelectProject = "Please select the correct project:"
)

// HandleMessage runs the full pipeline for one inbound text message. Every
// outcome is reported to the requester; the returned error is for logging
// only and never changes the webhook response.
func (s *Service) HandleMessage(ctx context.Context, from, text string) error {
	if err := s.processMessage(ctx, from, text); err != nil {
		slog.Info("request ended with classified failure",
			"requester_id", from, "stage", "message", "kind", domain.KindOf(err), "error", err)
		return s.reply(ctx, from, requesterMessage(err))
	}
	return nil
}

func (s *Service) processMessage(ctx context.Context, from, text string) error {
	requester, err := s.lookupRequester(ctx, from)
	if err != nil {
		return err
	}

	params, err := s.deps.Parser.Parse(ctx, text)
	if err != nil {
		return domain.Wrap(domain.KindParseFailure, err, replyParseFailure)
	}

	switch params.Intent {
	case domain.IntentGreet:
		return s.reply(ctx, from, replyGreeting)
	case domain.IntentGetIssues, domain.IntentGetReviews, domain.IntentGetForms:
	default:
		return s.reply(ctx, from, replyUnsure)
	}

	tenant, err := s.lookupTenant(ctx, requester.HubID)
	if err != nil {
		return err
	}

	allowed, err := s.deps.Gate.Allow(ctx, policy.Input{
		Intent:      string(params.Intent),
		TenantID:    tenant.HubID,
		RequesterID: requester.SubjectID,
	})
	if err != nil {
		return domain.Wrap(domain.KindPolicyDenied, err, replyPolicyDenied)
	}
	if !allowed {
		return domain.E(domain.KindPolicyDenied, replyPolicyDenied)
	}

	delegated, ok := s.deps.Tokens.Delegated(ctx, s.deps.Store, requester.SubjectID, tenant.ClientID, tenant.ClientSecret)
	if !ok {
		return domain.E(domain.KindAuthUnavailable, replyAuthError)
	}
	serviceToken, ok := s.deps.Tokens.Service(ctx, tenant.ClientID, tenant.ClientSecret, "")
	if !ok {
		return domain.E(domain.KindAuthUnavailable, replyAuthError)
	}

	sess := &domain.Session{
		RequesterID:    from,
		Intent:         params.Intent,
		Params:         *params,
		Requester:      *requester,
		Tenant:         *tenant,
		DelegatedToken: delegated,
		ServiceToken:   serviceToken,
		Pending:        domain.PendingNone,
	}
	return s.advance(ctx, sess)
}

// HandleSelection resumes a paused session from an interactive choice reply.
// The chosen id is validated against a fresh resolver run before binding;
// intent extraction is never re-run.
func (s *Service) HandleSelection(ctx context.Context, from, choiceID string) error {
	if err := s.processSelection(ctx, from, choiceID); err != nil {
		slog.Info("request ended with classified failure",
			"requester_id", from, "stage", "selection", "kind", domain.KindOf(err), "error", err)
		return s.reply(ctx, from, requesterMessage(err))
	}
	return nil
}

func (s *Service) processSelection(ctx context.Context, from, choiceID string) error {
	parts := strings.SplitN(choiceID, "::", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.E(domain.KindSelectionInvalid, replyBadSelection)
	}
	kind, entityID := domain.ChoiceKind(parts[0]), parts[1]

	sess, ok := s.deps.Sessions.Get(ctx, from)
	if !ok {
		return domain.E(domain.KindSessionExpired, replySessionExpired)
	}
	if missing := session.MissingFields(sess, []string{"intent", "params", "requester", "tenant", "delegated_token", "service_token"}); len(missing) > 0 {
		slog.Warn("session unusable for resumption", "requester_id", from, "missing", missing)
		s.deps.Sessions.Clear(ctx, from)
		return domain.E(domain.KindSessionExpired, replySessionExpired)
	}

	switch kind {
	case domain.ChoiceKindUser:
		matches := s.deps.Resolver.Users(ctx, sess.Requester.HubID, sess.Params.AssigneeName(), sess.ServiceToken)
		chosen := findCandidate(matches, entityID)
		if chosen == nil {
			return domain.E(domain.KindSelectionInvalid, "User not found in selection.")
		}
		sess.SelectedUser = chosen
	case domain.ChoiceKindProject:
		matches := s.deps.Resolver.Projects(ctx, sess.Requester.HubID, sess.Params.ProjectName(), sess.ServiceToken)
		chosen := findCandidate(matches, entityID)
		if chosen == nil {
			return domain.E(domain.KindSelectionInvalid, "Project not found in selection.")
		}
		sess.SelectedProject = chosen
	default:
		return domain.E(domain.KindSelectionInvalid, "Unrecognized selection type.")
	}

	sess.Pending = domain.PendingNone
	s.deps.Sessions.Set(ctx, from, sess)
	return s.advance(ctx, sess)
}

// advance walks the session through its remaining stages: assignee
// resolution, project resolution, dispatch. A stage with more than one
// candidate persists the session and stops; everything else either binds and
// continues or ends the turn with a terminal classified error.
func (s *Service) advance(ctx context.Context, sess *domain.Session) error {
	if sess.SelectedUser == nil {
		name := sess.Params.AssigneeName()
		switch {
		case name == "":
			// No assignee filter requested; the stage is skipped.
		case name == domain.AssigneeCurrentUser:
			sess.SelectedUser = &domain.Candidate{ID: sess.Requester.SubjectID, Name: sess.Requester.FirstName}
		default:
			matches := s.deps.Resolver.Users(ctx, sess.Requester.HubID, name, sess.ServiceToken)
			switch len(matches) {
			case 0:
				return domain.E(domain.KindNotFound, "No user found named '%s'.", name)
			case 1:
				sess.SelectedUser = &matches[0]
			default:
				return s.pause(ctx, sess, domain.PendingUserChoice, promptSelectUser, chat.UserChoices(matches))
			}
		}
	}

	if sess.SelectedProject == nil {
		name := sess.Params.ProjectName()
		if name == "" {
			return domain.E(domain.KindNotFound, replyNoProjectGiven)
		}
		matches := s.deps.Resolver.Projects(ctx, sess.Requester.HubID, name, sess.ServiceToken)
		switch len(matches) {
		case 0:
			return domain.E(domain.KindNotFound, "No project found named '%s'.", name)
		case 1:
			sess.SelectedProject = &matches[0]
		default:
			return s.pause(ctx, sess, domain.PendingProjectChoice, promptSelectProject, chat.ProjectChoices(matches))
		}
	}

	return s.dispatch(ctx, sess)
}

// pause persists the session waiting on a choice and sends the prompt.
func (s *Service) pause(ctx context.Context, sess *domain.Session, pending domain.PendingKind, prompt string, items []chat.ChoiceItem) error {
	sess.Pending = pending
	s.deps.Sessions.Set(ctx, sess.RequesterID, sess)
	slog.Info("paused for disambiguation", "requester_id", sess.RequesterID, "pending", pending, "candidates", len(items))
	return s.deps.Messenger.SendChoiceList(ctx, sess.RequesterID, prompt, items)
}

func (s *Service) lookupRequester(ctx context.Context, phone string) (*domain.Requester, error) {
	var cached domain.Requester
	if s.deps.Cache.Get(ctx, "requester:"+phone, &cached) {
		return &cached, nil
	}
	requester, err := s.deps.Store.GetRequesterByPhone(ctx, phone)
	if err != nil {
		slog.Error("requester lookup failed", "phone", phone, "error", err)
		return nil, domain.Wrap(domain.KindNotFound, err, replyNotAssigned)
	}
	if requester == nil {
		return nil, domain.E(domain.KindNotFound, replyNotAssigned)
	}
	s.deps.Cache.Set(ctx, "requester:"+phone, requester, 0)
	return requester, nil
}

func (s *Service) lookupTenant(ctx context.Context, hubID string) (*domain.TenantConfig, error) {
	var cached domain.TenantConfig
	if s.deps.Cache.Get(ctx, "tenant_config:"+hubID, &cached) {
		return &cached, nil
	}
	tenant, err := s.deps.Store.GetTenantConfig(ctx, hubID)
	if err != nil {
		slog.Error("tenant config lookup failed", "hub_id", hubID, "error", err)
		return nil, domain.Wrap(domain.KindConfigMissing, err, replyConfigMissing)
	}
	if tenant == nil {
		return nil, domain.E(domain.KindConfigMissing, replyConfigMissing)
	}
	s.deps.Cache.Set(ctx, "tenant_config:"+hubID, tenant, 0)
	return tenant, nil
}

func (s *Service) reply(ctx context.Context, to, text string) error {
	if err := s.deps.Messenger.SendText(ctx, to, text); err != nil {
		slog.Error("failed to send reply", "requester_id", to, "error", err)
		return err
	}
	return nil
}

// requesterMessage extracts the safe reply text from a classified error.
// Unclassified failures get a generic apology rather than leaking internals.
func requesterMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return replyInternalError
}

func findCandidate(matches []domain.Candidate, id string) *domain.Candidate {
	for i := range matches {
		if matches[i].ID == id {
			return &matches[i]
		}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sitebot/chatgate/internal/adapter/issues"
	"github.com/sitebot/chatgate/internal/domain"
)

// dispatch runs the fully-resolved request against the data API, formats the
// reply and clears the session. Upstream failures are relayed verbatim.
func (s *Service) dispatch(ctx context.Context, sess *domain.Session) error {
	defer s.deps.Sessions.Clear(ctx, sess.RequesterID)

	switch sess.Intent {
	case domain.IntentGetIssues:
		return s.dispatchIssues(ctx, sess)
	case domain.IntentGetReviews:
		return domain.E(domain.KindNotImplemented, "Review queries are not available yet.")
	case domain.IntentGetForms:
		return domain.E(domain.KindNotImplemented, "Form queries are not available yet.")
	}
	return domain.E(domain.KindParseFailure, replyUnsure)
}

func (s *Service) dispatchIssues(ctx context.Context, sess *domain.Session) error {
	q := issues.Query{
		Statuses:  sess.Params.Statuses(),
		DueDate:   sess.Params.DueDate(),
		CountOnly: sess.Params.CountOnly(),
	}
	if sess.SelectedUser != nil {
		q.AssigneeID = sess.SelectedUser.ID
	}
	if sess.Params.Issue != nil && len(sess.Params.Issue.IssueType) > 0 {
		typeID, err := s.deps.Issues.GetIssueTypeID(ctx, sess.SelectedProject.ID, sess.DelegatedToken, sess.Params.Issue.IssueType[0])
		if err != nil {
			// The type filter is best-effort; an unresolvable title just
			// widens the query.
			slog.Warn("issue type lookup failed", "requester_id", sess.RequesterID, "error", err)
		}
		q.IssueTypeID = typeID
	}

	result, err := s.deps.Issues.GetIssues(ctx, sess.SelectedProject.ID, sess.DelegatedToken, q)
	if err != nil {
		slog.Error("issue query failed", "requester_id", sess.RequesterID, "project_id", sess.SelectedProject.ID, "error", err)
		return domain.Wrap(domain.KindUpstream, err, "Error fetching data: %v", err)
	}

	slog.Info("dispatched request",
		"requester_id", sess.RequesterID,
		"intent", sess.Intent,
		"project_id", sess.SelectedProject.ID,
		"count", result.Count)
	return s.reply(ctx, sess.RequesterID, formatIssuesReply(result, sess.Params))
}

// formatIssuesReply renders a count sentence or a numbered listing.
func formatIssuesReply(result *issues.Result, params domain.Params) string {
	desc := filterDescription(params)

	if result.CountOnly {
		return fmt.Sprintf("You have *%d* %s%s.", result.Count, plural("issue", result.Count), desc)
	}
	if len(result.Issues) == 0 {
		return fmt.Sprintf("No issues found%s.", desc)
	}

	lines := make([]string, 0, len(result.Issues)+1)
	lines = append(lines, fmt.Sprintf("There are *%d* %s%s:", len(result.Issues), plural("issue", len(result.Issues)), desc))
	for i, issue := range result.Issues {
		title := issue.Title
		if title == "" {
			title = "No title"
		}
		due := issue.DueDate
		if due == "" {
			due = "No due date"
		}
		lines = append(lines, fmt.Sprintf("%d. Issue *#%s* - *%s* - Due: %s", i+1, issue.DisplayID, title, due))
	}
	return strings.Join(lines, "\n")
}

// filterDescription builds the human-readable filter clause, starting with a
// leading space when non-empty so it splices into the surrounding sentence.
func filterDescription(params domain.Params) string {
	var parts []string
	if name := params.AssigneeName(); name != "" {
		parts = append(parts, fmt.Sprintf("assigned to *%s*", name))
	}
	if name := params.ProjectName(); name != "" {
		parts = append(parts, fmt.Sprintf("in project *%s*", name))
	}
	if statuses := params.Statuses(); len(statuses) > 0 {
		parts = append(parts, "with status "+strings.Join(statuses, ", "))
	}
	if due := params.DueDate(); due != "" {
		parts = append(parts, "due "+due)
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

package nlu

import (
	"context"
	"strings"

	"github.com/sitebot/chatgate/internal/domain"
)

// MockParser is a deterministic keyword parser for tests and mock-mode runs.
type MockParser struct{}

// NewMockParser creates a new mock parser.
func NewMockParser() *MockParser {
	return &MockParser{}
}

// Parse classifies by keyword. It covers just enough phrasing to drive the
// pipeline end to end without a model.
func (m *MockParser) Parse(_ context.Context, text string) (*domain.Params, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case lower == "hi", lower == "hello", strings.HasPrefix(lower, "hey"):
		return &domain.Params{Intent: domain.IntentGreet}, nil
	case strings.Contains(lower, "issue"):
		issue := &domain.IssueParams{}
		if strings.Contains(lower, "how many") || strings.Contains(lower, "count") {
			issue.CountOnly = true
		}
		if strings.Contains(lower, "my ") || strings.Contains(lower, "me") {
			issue.AssigneeName = domain.AssigneeCurrentUser
		}
		if strings.Contains(lower, "open") {
			issue.IssueStatus = []string{"open"}
		}
		return &domain.Params{Intent: domain.IntentGetIssues, Issue: issue}, nil
	case strings.Contains(lower, "review"):
		return &domain.Params{Intent: domain.IntentGetReviews, Review: &domain.ReviewParams{}}, nil
	case strings.Contains(lower, "form"):
		return &domain.Params{Intent: domain.IntentGetForms, Form: &domain.FormParams{}}, nil
	}
	return &domain.Params{Intent: domain.IntentUnsure}, nil
}

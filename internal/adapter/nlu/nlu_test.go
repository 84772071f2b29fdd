package nlu

import (
	"context"
	"testing"

	"github.com/sitebot/chatgate/internal/domain"
)

func TestDecodeResponseIssueParams(t *testing.T) {
	raw := `{"intent": "get_issues", "parameters": {"assignee_name": "Ashrik", "project_name": "Tower A", "issue_status": ["open"], "count_only": true}}`
	params, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if params.Intent != domain.IntentGetIssues || params.Issue == nil {
		t.Fatalf("unexpected params: %+v", params)
	}
	if params.Issue.AssigneeName != "Ashrik" || !params.Issue.CountOnly {
		t.Fatalf("fields lost: %+v", params.Issue)
	}
	if params.AssigneeName() != "Ashrik" || params.ProjectName() != "Tower A" || !params.CountOnly() {
		t.Fatalf("union accessors broken: %+v", params)
	}
}

func TestDecodeResponseStripsFences(t *testing.T) {
	raw := "```json\n{\"intent\": \"greet\", \"parameters\": {}}\n```"
	params, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if params.Intent != domain.IntentGreet {
		t.Fatalf("unexpected intent %s", params.Intent)
	}
}

func TestDecodeResponseUnknownIntentIsUnsure(t *testing.T) {
	params, err := DecodeResponse(`{"intent": "order_pizza", "parameters": {}}`)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if params.Intent != domain.IntentUnsure {
		t.Fatalf("expected unsure, got %s", params.Intent)
	}
}

func TestDecodeResponseGarbageIsError(t *testing.T) {
	if _, err := DecodeResponse("I could not understand that, sorry!"); err == nil {
		t.Fatalf("expected error on non-JSON output")
	}
}

func TestMockParser(t *testing.T) {
	p := NewMockParser()
	ctx := context.Background()

	greet, _ := p.Parse(ctx, "hello")
	if greet.Intent != domain.IntentGreet {
		t.Fatalf("expected greet, got %s", greet.Intent)
	}

	issues, _ := p.Parse(ctx, "how many issues are assigned to me")
	if issues.Intent != domain.IntentGetIssues || !issues.Issue.CountOnly {
		t.Fatalf("unexpected parse: %+v", issues)
	}
	if issues.Issue.AssigneeName != domain.AssigneeCurrentUser {
		t.Fatalf("expected current_user wildcard, got %q", issues.Issue.AssigneeName)
	}

	unsure, _ := p.Parse(ctx, "tell me a joke")
	if unsure.Intent != domain.IntentUnsure {
		t.Fatalf("expected unsure, got %s", unsure.Intent)
	}
}

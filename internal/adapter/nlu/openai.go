package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sitebot/chatgate/internal/domain"
)

const systemPrompt = `You are an NLU engine for a construction project-management assistant.
Analyze the user's message and translate it into a single JSON object with
the user's intent and extracted parameters. Respond with ONLY the JSON
object, no explanations and no markdown fences.

Intents: "get_issues", "get_reviews", "get_forms", "greet", "unsure".
- Simple greetings ("hi", "hello") are "greet".
- Anything unrelated to issues, reviews or forms is "unsure".
- Use "current_user" as assignee_name when the user asks about their own items.

Output shape: {"intent": "...", "parameters": {...}}

Parameter fields by intent:
- get_issues: assignee_name, project_name, issue_status (list), issue_type (list), due_date, count_only (bool)
- get_reviews: assignee_name, project_name, review_status (list), review_workflow (list), step_number, due_date, count_only
- get_forms: assignee_name, project_name, form_status (list), form_template (list), created_on, count_only

Examples:
User: "how many issues are assigned to me"
{"intent": "get_issues", "parameters": {"assignee_name": "current_user", "count_only": true}}

User: "show open safety issues for Ashrik in Tower A due today"
{"intent": "get_issues", "parameters": {"assignee_name": "Ashrik", "project_name": "Tower A", "issue_status": ["open"], "issue_type": ["Safety"], "due_date": "today"}}`

// Client parses intent with an OpenAI-compatible chat model.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates an LLM-backed parser. An empty baseURL uses the default
// OpenAI endpoint.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Parse sends the message to the model and decodes its JSON reply.
func (c *Client) Parse(ctx context.Context, text string) (*domain.Params, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("intent completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("intent completion returned no choices")
	}
	return DecodeResponse(resp.Choices[0].Message.Content)
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

type wireResponse struct {
	Intent     string          `json:"intent"`
	Parameters json.RawMessage `json:"parameters"`
}

// DecodeResponse parses model output into the tagged parameter union.
// Markdown fences are tolerated even though the prompt forbids them; an
// intent outside the recognized set decodes as unsure.
func DecodeResponse(raw string) (*domain.Params, error) {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("unusable parser output: %w", err)
	}

	params := &domain.Params{Intent: domain.Intent(wire.Intent)}
	switch params.Intent {
	case domain.IntentGetIssues:
		params.Issue = &domain.IssueParams{}
		if len(wire.Parameters) > 0 {
			if err := json.Unmarshal(wire.Parameters, params.Issue); err != nil {
				return nil, fmt.Errorf("unusable issue parameters: %w", err)
			}
		}
	case domain.IntentGetReviews:
		params.Review = &domain.ReviewParams{}
		if len(wire.Parameters) > 0 {
			if err := json.Unmarshal(wire.Parameters, params.Review); err != nil {
				return nil, fmt.Errorf("unusable review parameters: %w", err)
			}
		}
	case domain.IntentGetForms:
		params.Form = &domain.FormParams{}
		if len(wire.Parameters) > 0 {
			if err := json.Unmarshal(wire.Parameters, params.Form); err != nil {
				return nil, fmt.Errorf("unusable form parameters: %w", err)
			}
		}
	case domain.IntentGreet:
	default:
		params.Intent = domain.IntentUnsure
	}
	return params, nil
}

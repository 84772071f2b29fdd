// Package issues provides the client for the remote data API's filtered
// issue query endpoint.
package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the issues API for one project at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an issues client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Query holds the recognized filters. Anything the parser produced beyond
// these was already dropped by the dispatcher.
type Query struct {
	AssigneeID  string
	IssueTypeID string
	Statuses    []string
	DueDate     string
	CountOnly   bool
}

// Issue is the subset of an issue record the reply formatter needs.
type Issue struct {
	DisplayID json.Number `json:"displayId"`
	Title     string      `json:"title"`
	Status    string      `json:"status"`
	DueDate   string      `json:"dueDate"`
}

// Result is a query outcome: either a bare count or the full listing.
type Result struct {
	CountOnly bool
	Count     int
	Issues    []Issue
}

type issuePage struct {
	Results    []Issue `json:"results"`
	Pagination struct {
		TotalResults int `json:"totalResults"`
	} `json:"pagination"`
}

// GetIssues runs a filtered issue query against the project.
func (c *Client) GetIssues(ctx context.Context, projectID, token string, q Query) (*Result, error) {
	params := url.Values{}
	if q.AssigneeID != "" {
		params.Set("filter[assignedTo]", q.AssigneeID)
	}
	if q.IssueTypeID != "" {
		params.Set("filter[issueTypeId]", q.IssueTypeID)
	}
	if len(q.Statuses) > 0 {
		params.Set("filter[status]", strings.Join(q.Statuses, ","))
	}
	if q.DueDate != "" {
		params.Set("filter[dueDate]", q.DueDate)
	}

	u := fmt.Sprintf("%s/projects/%s/issues", c.baseURL, url.PathEscape(projectID))
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.get(ctx, u, token)
	if err != nil {
		return nil, err
	}

	var page issuePage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode issues response: %w", err)
	}

	if q.CountOnly {
		return &Result{CountOnly: true, Count: page.Pagination.TotalResults}, nil
	}
	return &Result{Count: len(page.Results), Issues: page.Results}, nil
}

type issueType struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GetIssueTypeID resolves an issue-type title to its id, case-insensitively.
// Returns "" when no type matches.
func (c *Client) GetIssueTypeID(ctx context.Context, projectID, token, title string) (string, error) {
	u := fmt.Sprintf("%s/projects/%s/issue-types", c.baseURL, url.PathEscape(projectID))
	body, err := c.get(ctx, u, token)
	if err != nil {
		return "", err
	}

	var page struct {
		Results []issueType `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return "", fmt.Errorf("failed to decode issue types: %w", err)
	}
	for _, it := range page.Results {
		if strings.EqualFold(it.Title, title) {
			return it.ID, nil
		}
	}
	return "", nil
}

func (c *Client) get(ctx context.Context, u, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build issues request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("issues request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read issues response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("issues API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

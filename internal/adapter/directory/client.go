// Package directory provides the client for the remote directory API: user
// name search and the paginated project list.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sitebot/chatgate/internal/domain"
)

const pageLimit = 100

// Client calls the directory API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a directory client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type userRecord struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SearchUsers performs a server-side partial name match against the account
// user directory.
func (c *Client) SearchUsers(ctx context.Context, hubID, name, token string) ([]domain.Candidate, error) {
	u := fmt.Sprintf("%s/hq/v1/accounts/%s/users/search?%s",
		c.baseURL, url.PathEscape(hubID), url.Values{"name": {name}}.Encode())

	body, err := c.get(ctx, u, token)
	if err != nil {
		return nil, err
	}

	var users []userRecord
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to decode user search response: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(users))
	for _, usr := range users {
		candidates = append(candidates, domain.Candidate{ID: usr.UID, Name: usr.Name, Email: usr.Email})
	}
	return candidates, nil
}

type projectRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type projectPage struct {
	Results    []projectRecord `json:"results"`
	Pagination struct {
		NextURL string `json:"nextUrl"`
	} `json:"pagination"`
}

// ListProjects fetches projects for an account, following pagination until
// no next-page URL is returned. An empty nameFilter fetches the full set.
func (c *Client) ListProjects(ctx context.Context, hubID, nameFilter, token string) ([]domain.Candidate, error) {
	params := url.Values{"limit": {fmt.Sprint(pageLimit)}}
	if nameFilter != "" {
		params.Set("filter[name]", nameFilter)
	}
	next := fmt.Sprintf("%s/construction/admin/v1/accounts/%s/projects?%s",
		c.baseURL, url.PathEscape(hubID), params.Encode())

	var all []domain.Candidate
	for next != "" {
		body, err := c.get(ctx, next, token)
		if err != nil {
			return nil, err
		}
		var page projectPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode project page: %w", err)
		}
		for _, p := range page.Results {
			all = append(all, domain.Candidate{ID: p.ID, Name: p.Name})
		}
		next = page.Pagination.NextURL
	}
	return all, nil
}

func (c *Client) get(ctx context.Context, u, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

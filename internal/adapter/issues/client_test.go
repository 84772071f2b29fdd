package issues

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetIssuesBuildsRecognizedFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("filter[assignedTo]"); got != "U1" {
			t.Errorf("assignedTo = %q", got)
		}
		if got := q.Get("filter[status]"); got != "open,pending" {
			t.Errorf("status = %q", got)
		}
		if got := q.Get("filter[dueDate]"); got != "2026-09-01" {
			t.Errorf("dueDate = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"displayId": 7, "title": "Broken rail", "status": "open", "dueDate": "2026-09-01"},
			},
			"pagination": map[string]int{"totalResults": 1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.GetIssues(context.Background(), "P1", "tok", Query{
		AssigneeID: "U1",
		Statuses:   []string{"open", "pending"},
		DueDate:    "2026-09-01",
	})
	if err != nil {
		t.Fatalf("GetIssues failed: %v", err)
	}
	if res.CountOnly || res.Count != 1 || res.Issues[0].Title != "Broken rail" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetIssuesCountOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results":    []map[string]interface{}{},
			"pagination": map[string]int{"totalResults": 42},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.GetIssues(context.Background(), "P1", "tok", Query{CountOnly: true})
	if err != nil {
		t.Fatalf("GetIssues failed: %v", err)
	}
	if !res.CountOnly || res.Count != 42 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetIssuesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.GetIssues(context.Background(), "P1", "tok", Query{}); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestGetIssueTypeIDCaseInsensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/P1/issue-types" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]string{
				{"id": "T1", "title": "Safety"},
				{"id": "T2", "title": "Quality"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	id, err := c.GetIssueTypeID(context.Background(), "P1", "tok", "safety")
	if err != nil {
		t.Fatalf("GetIssueTypeID failed: %v", err)
	}
	if id != "T1" {
		t.Fatalf("expected T1, got %q", id)
	}

	id, err = c.GetIssueTypeID(context.Background(), "P1", "tok", "Schedule")
	if err != nil || id != "" {
		t.Fatalf("expected empty id for unknown title, got %q err=%v", id, err)
	}
}

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sitebot/chatgate/internal/domain"
)

func TestSendTextPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/phone1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("unexpected auth %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "phone1", "tok", time.Second)
	if err := c.SendText(context.Background(), "15550001111", "hello"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if got["to"] != "15550001111" || got["type"] != "text" {
		t.Fatalf("unexpected payload: %v", got)
	}
	text := got["text"].(map[string]interface{})
	if text["body"] != "hello" {
		t.Fatalf("unexpected body: %v", text)
	}
}

func TestSendChoiceListNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "phone1", "tok", time.Second)
	err := c.SendChoiceList(context.Background(), "15550001111", "pick one", []ChoiceItem{{ID: "user::U1", Title: "ashrik"}})
	if err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestUserChoicesEncodingAndCap(t *testing.T) {
	var users []domain.Candidate
	for i := 0; i < 12; i++ {
		users = append(users, domain.Candidate{
			ID:    fmt.Sprintf("U%d", i),
			Name:  fmt.Sprintf("User %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
	}

	items := UserChoices(users)
	if len(items) != MaxItems {
		t.Fatalf("expected %d items, got %d", MaxItems, len(items))
	}
	if items[0].ID != "user::U0" {
		t.Fatalf("unexpected id %q", items[0].ID)
	}
	if items[0].Title != "user0" {
		t.Fatalf("expected mail-local title, got %q", items[0].Title)
	}
	if items[0].Description != "user0@example.com" {
		t.Fatalf("unexpected description %q", items[0].Description)
	}
}

func TestProjectChoicesTruncatesTitle(t *testing.T) {
	long := strings.Repeat("x", 40)
	items := ProjectChoices([]domain.Candidate{{ID: "P1", Name: long}})
	if len(items) != 1 {
		t.Fatalf("expected 1 item")
	}
	if items[0].ID != "project::P1" {
		t.Fatalf("unexpected id %q", items[0].ID)
	}
	if len(items[0].Title) != maxTitleLength || !strings.HasSuffix(items[0].Title, "...") {
		t.Fatalf("unexpected title %q", items[0].Title)
	}
}

func TestProjectChoicesPreserveOrder(t *testing.T) {
	items := ProjectChoices([]domain.Candidate{
		{ID: "P2", Name: "Second"},
		{ID: "P1", Name: "First"},
	})
	if items[0].ID != "project::P2" || items[1].ID != "project::P1" {
		t.Fatalf("ranking order not preserved: %+v", items)
	}
}

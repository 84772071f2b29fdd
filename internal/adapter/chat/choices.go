package chat

import (
	"fmt"

	"github.com/sitebot/chatgate/internal/domain"
)

const (
	// MaxItems is the platform cap on interactive list/button rows.
	MaxItems = 10

	maxTitleLength = 24
)

// ChoiceItem is one selectable row in an interactive prompt. ID encodes
// kind::entity_id and round-trips back through the resumption path.
type ChoiceItem struct {
	ID          string
	Title       string
	Description string
}

// EncodeChoiceID builds the opaque id carried by a choice row.
func EncodeChoiceID(kind domain.ChoiceKind, entityID string) string {
	return fmt.Sprintf("%s::%s", kind, entityID)
}

// UserChoices maps ranked user candidates to list rows, capped at MaxItems.
// The title is the mail-local part; the full address rides in the
// description so same-named users stay distinguishable.
func UserChoices(users []domain.Candidate) []ChoiceItem {
	items := make([]ChoiceItem, 0, MaxItems)
	for _, u := range users {
		if len(items) == MaxItems {
			break
		}
		title := u.Name
		if local := mailLocal(u.Email); local != "" {
			title = local
		}
		items = append(items, ChoiceItem{
			ID:          EncodeChoiceID(domain.ChoiceKindUser, u.ID),
			Title:       truncate(title),
			Description: u.Email,
		})
	}
	return items
}

// ProjectChoices maps ranked project candidates to rows, capped at MaxItems.
func ProjectChoices(projects []domain.Candidate) []ChoiceItem {
	items := make([]ChoiceItem, 0, MaxItems)
	for _, p := range projects {
		if len(items) == MaxItems {
			break
		}
		items = append(items, ChoiceItem{
			ID:    EncodeChoiceID(domain.ChoiceKindProject, p.ID),
			Title: truncate(p.Name),
		})
	}
	return items
}

func mailLocal(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return ""
}

func truncate(s string) string {
	if len(s) <= maxTitleLength {
		return s
	}
	return s[:maxTitleLength-3] + "..."
}

// Package nlu provides the natural-language intent parser abstraction.
package nlu

import (
	"context"

	"github.com/sitebot/chatgate/internal/domain"
)

// Parser turns raw chat text into a structured intent plus parameters.
// Implementations may return IntentUnsure for anything they cannot place;
// they must not fail on off-topic input.
type Parser interface {
	Parse(ctx context.Context, text string) (*domain.Params, error)
}

// Ensure both implementations satisfy Parser.
var (
	_ Parser = (*Client)(nil)
	_ Parser = (*MockParser)(nil)
)

package nlu

import (
	"log/slog"
	"os"
	"time"
)

const (
	// EnvChatgateMode is the environment variable name for mode selection.
	EnvChatgateMode = "CHATGATE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewParser creates a parser based on the CHATGATE_MODE environment
// variable. If CHATGATE_MODE=MOCK, returns a MockParser; otherwise returns
// the LLM-backed client.
func NewParser(baseURL, apiKey, model string, timeout time.Duration) Parser {
	if os.Getenv(EnvChatgateMode) == ModeMock {
		slog.Info("CHATGATE_MODE=MOCK detected, using mock parser")
		return NewMockParser()
	}
	return NewClient(baseURL, apiKey, model, timeout)
}

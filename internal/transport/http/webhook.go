// Package http provides the HTTP server for the messaging-platform webhook.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Gateway is the conversational pipeline behind the webhook.
type Gateway interface {
	HandleMessage(ctx context.Context, from, text string) error
	HandleSelection(ctx context.Context, from, choiceID string) error
}

// Handler handles webhook traffic from the messaging platform.
type Handler struct {
	gateway     Gateway
	verifyToken string
}

// NewHandler creates a webhook handler.
func NewHandler(gateway Gateway, verifyToken string) *Handler {
	return &Handler{gateway: gateway, verifyToken: verifyToken}
}

// RegisterRoutes registers the webhook routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/webhook", h.VerifyWebhook)
	e.POST("/webhook", h.ReceiveWebhook)
	e.GET("/healthz", h.Health)
}

// VerifyWebhook answers the platform's subscription challenge.
// GET /webhook
func (h *Handler) VerifyWebhook(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.JSON(http.StatusForbidden, map[string]string{"error": "verification failed"})
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value changeValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type changeValue struct {
	Messages []inboundMessage `json:"messages"`
}

type inboundMessage struct {
	From string `json:"from"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		ListReply   *selectionReply `json:"list_reply"`
		ButtonReply *selectionReply `json:"button_reply"`
	} `json:"interactive"`
}

type selectionReply struct {
	ID string `json:"id"`
}

// ReceiveWebhook routes an inbound event to the pipeline. The platform
// retries on non-200, so every handled event answers 200 regardless of the
// pipeline outcome.
// POST /webhook
func (h *Handler) ReceiveWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		slog.Warn("undecodable webhook payload", "error", err)
		return c.JSON(http.StatusOK, map[string]string{"message": "ignored"})
	}

	msg, ok := firstMessage(payload)
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{"message": "no messages"})
	}

	eventID := "evt_" + uuid.New().String()[:8]

	switch {
	case msg.Interactive != nil:
		choiceID := ""
		if msg.Interactive.ListReply != nil {
			choiceID = msg.Interactive.ListReply.ID
		} else if msg.Interactive.ButtonReply != nil {
			choiceID = msg.Interactive.ButtonReply.ID
		}
		slog.Info("inbound selection", "event_id", eventID, "requester_id", msg.From)
		if err := h.gateway.HandleSelection(ctx, msg.From, choiceID); err != nil {
			slog.Error("selection handling failed", "event_id", eventID, "requester_id", msg.From, "error", err)
		}
	case msg.Text != nil:
		slog.Info("inbound message", "event_id", eventID, "requester_id", msg.From)
		if err := h.gateway.HandleMessage(ctx, msg.From, msg.Text.Body); err != nil {
			slog.Error("message handling failed", "event_id", eventID, "requester_id", msg.From, "error", err)
		}
	default:
		return c.JSON(http.StatusOK, map[string]string{"message": "unsupported message type"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "handled"})
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func firstMessage(payload webhookPayload) (inboundMessage, bool) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return change.Value.Messages[0], true
			}
		}
	}
	return inboundMessage{}, false
}

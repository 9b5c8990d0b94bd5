package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/services"
)

const signatureTolerance = 5 * time.Minute

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	webhookSecret       string
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, webhookSecret string) *WebhookHandler {
	if webhookSecret == "" {
		slog.Warn("STRIPE_WEBHOOK_SECRET is not set; webhook signatures will not be verified")
	}
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		webhookSecret:       webhookSecret,
	}
}

// HandleStripe handles POST /api/webhook.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	body := c.Body()

	if h.webhookSecret != "" {
		if !verifyStripeSignature(c.Get("Stripe-Signature"), body, h.webhookSecret, time.Now()) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid webhook signature",
			})
		}
	}

	var event dto.StripeWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.subscriptionService.HandleStripeEvent(&event); err != nil {
		slog.Error("webhook processing failed", "event_type", event.Type, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", event.Type)
	return c.JSON(fiber.Map{"received": true})
}

// verifyStripeSignature checks the Stripe-Signature header: HMAC-SHA256 of
// "<timestamp>.<payload>" under the endpoint secret, with a freshness window
// against replays.
func verifyStripeSignature(header string, payload []byte, secret string, now time.Time) bool {
	if header == "" {
		return false
	}

	var timestamp string
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			if sig, err := hex.DecodeString(kv[1]); err == nil {
				signatures = append(signatures, sig)
			}
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if d := now.Sub(time.Unix(ts, 0)); d > signatureTolerance || d < -signatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}

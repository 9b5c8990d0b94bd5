package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/models"
	"github.com/postsmith/ghostwriter-backend/internal/services"
	"github.com/postsmith/ghostwriter-backend/internal/session"
)

type GenerateHandler struct {
	generationService *services.GenerationService
	profileService    *services.ProfileService
}

func NewGenerateHandler(generationService *services.GenerationService, profileService *services.ProfileService) *GenerateHandler {
	return &GenerateHandler{
		generationService: generationService,
		profileService:    profileService,
	}
}

// Generate handles POST /api/generate. Drafting is a paid feature: the
// caller's profile must carry an active subscription.
func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.profileService.Get(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch profile",
		})
	}
	if user.SubscriptionStatus != models.SubscriptionActive {
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{
			Error: true, Message: "An active subscription is required to generate posts",
		})
	}

	var req dto.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tone := req.Tone
	if tone == "" {
		tone = models.ToneProfessional
	}
	if !models.ValidTone(tone) {
		return badRequest(c, "Unknown tone")
	}

	industry := req.Industry
	if industry == "" {
		industry = user.Company
	}

	content, err := h.generationService.Generate(req.Topic, tone, industry)
	if err != nil {
		if errors.Is(err, services.ErrTopicRequired) {
			return badRequest(c, "Topic is required")
		}
		// Upstream and transport failures collapse into one user-visible
		// outcome; details were already logged.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate post",
		})
	}

	return c.JSON(dto.GenerateResponse{Content: content})
}

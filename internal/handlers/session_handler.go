package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/services"
	"github.com/postsmith/ghostwriter-backend/internal/session"
)

// SessionHandler exposes the autosave edit session for a post. Pushes are
// cheap buffer writes; persistence happens on the session's own timer.
type SessionHandler struct {
	sessions *services.EditSessionManager
}

func NewSessionHandler(sessions *services.EditSessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Open handles POST /api/posts/:id/session
func (h *SessionHandler) Open(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Open(userID, postID); err != nil {
		if errors.Is(err, services.ErrSessionExists) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return h.sessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Edit session opened"})
}

// Push handles PUT /api/posts/:id/session. It never reports save failures;
// those surface passively through State.
func (h *SessionHandler) Push(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	var req dto.PushContentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.sessions.Push(userID, postID, req.Content); err != nil {
		return h.sessionError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// State handles GET /api/posts/:id/session
func (h *SessionHandler) State(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	state, err := h.sessions.State(userID, postID)
	if err != nil {
		return h.sessionError(c, err)
	}

	resp := dto.SessionStateResponse{
		PostID:      postID.String(),
		Dirty:       state.Dirty,
		LastSavedAt: state.LastSavedAt,
	}
	if state.LastError != nil {
		resp.LastError = "autosave failed"
	}

	return c.JSON(resp)
}

// Close handles DELETE /api/posts/:id/session. Pending edits are flushed one
// last time; a flush failure is reported since this save is user-visible.
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Close(userID, postID); err != nil {
		if errors.Is(err, services.ErrNoSession) || errors.Is(err, services.ErrPostNotFound) ||
			errors.Is(err, services.ErrNotPostOwner) {
			return h.sessionError(c, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save pending changes",
		})
	}

	return c.JSON(fiber.Map{"message": "Edit session closed"})
}

// identify returns fiber errors so the app error handler renders them; it
// must not write the response itself, or the caller's error path would
// overwrite it.
func (h *SessionHandler) identify(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := session.UserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid post ID")
	}

	return userID, postID, nil
}

func (h *SessionHandler) sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Post not found",
		})
	case errors.Is(err, services.ErrNotPostOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNoSession):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Edit session error",
		})
	}
}

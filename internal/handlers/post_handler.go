package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/services"
	"github.com/postsmith/ghostwriter-backend/internal/session"
)

type PostHandler struct {
	postService *services.PostService
	sessions    *services.EditSessionManager
}

func NewPostHandler(postService *services.PostService, sessions *services.EditSessionManager) *PostHandler {
	return &PostHandler{postService: postService, sessions: sessions}
}

// Create handles POST /api/posts
func (h *PostHandler) Create(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.postService.Create(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrTitleRequired) || errors.Is(err, services.ErrInvalidTone) {
			return badRequest(c, err.Error())
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create post",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// Get handles GET /api/posts/:id
func (h *PostHandler) Get(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	post, err := h.postService.Get(userID, postID)
	if err != nil {
		return h.postError(c, err, "Failed to fetch post")
	}

	return c.JSON(post)
}

// Update handles PUT /api/posts/:id (explicit save)
func (h *PostHandler) Update(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	var req dto.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.postService.Update(userID, postID, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return badRequest(c, err.Error())
		}
		if errors.Is(err, services.ErrVersionConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return h.postError(c, err, "Failed to save post")
	}

	// Keep an open autosave session from re-saving what we just wrote.
	if req.Content != nil {
		h.sessions.NotePersisted(postID, *req.Content)
	}

	return c.JSON(post)
}

// SubmitForReview handles POST /api/posts/:id/submit
func (h *PostHandler) SubmitForReview(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	post, err := h.postService.SubmitForReview(userID, postID)
	if err != nil {
		return h.postError(c, err, "Failed to submit post for review")
	}

	return c.JSON(post)
}

// Delete handles DELETE /api/posts/:id
func (h *PostHandler) Delete(c *fiber.Ctx) error {
	userID, postID, err := h.identify(c)
	if err != nil {
		return err
	}

	if err := h.postService.Delete(userID, postID); err != nil {
		return h.postError(c, err, "Failed to delete post")
	}

	// A deleted post must not keep an autosave timer alive.
	h.sessions.CloseForPost(postID)

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// List handles GET /api/posts and GET /api/posts?recent=5
func (h *PostHandler) List(c *fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if recent := c.QueryInt("recent"); recent > 0 {
		posts, err := h.postService.Recent(userID, recent)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to fetch posts",
			})
		}
		return c.JSON(fiber.Map{"data": posts, "total": len(posts)})
	}

	posts, err := h.postService.List(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch posts",
		})
	}

	return c.JSON(fiber.Map{"data": posts, "total": len(posts)})
}

// identify returns fiber errors so the app error handler renders them; it
// must not write the response itself, or the caller's error path would
// overwrite it.
func (h *PostHandler) identify(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
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

func (h *PostHandler) postError(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, services.ErrPostNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Post not found",
		})
	}
	if errors.Is(err, services.ErrNotPostOwner) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}

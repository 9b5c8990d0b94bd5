package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/models"
	"github.com/postsmith/ghostwriter-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostApp(db *gorm.DB, userID uuid.UUID) (*fiber.App, *services.EditSessionManager) {
	postService := services.NewPostService(db)
	sessions := services.NewEditSessionManager(postService, time.Hour)

	postHandler := NewPostHandler(postService, sessions)
	sessionHandler := NewSessionHandler(sessions)

	app := fiber.New()
	protected := app.Group("/api", authAs(userID))
	protected.Post("/posts", postHandler.Create)
	protected.Get("/posts", postHandler.List)
	protected.Get("/posts/:id", postHandler.Get)
	protected.Put("/posts/:id", postHandler.Update)
	protected.Delete("/posts/:id", postHandler.Delete)
	protected.Post("/posts/:id/submit", postHandler.SubmitForReview)
	protected.Post("/posts/:id/session", sessionHandler.Open)
	protected.Put("/posts/:id/session", sessionHandler.Push)
	protected.Get("/posts/:id/session", sessionHandler.State)
	protected.Delete("/posts/:id/session", sessionHandler.Close)
	return app, sessions
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodePost(t *testing.T, resp *http.Response) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))
	return &post
}

func TestPostDraftLifecycle(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	// Create a draft.
	resp := doJSON(t, app, "POST", "/api/posts", map[string]string{
		"title":   "Why we pivoted",
		"content": "First draft",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decodePost(t, resp)
	assert.Equal(t, models.StatusDraft, post.Status)

	// Edit the status to published directly.
	resp = doJSON(t, app, "PUT", "/api/posts/"+post.ID.String(), map[string]string{
		"status": models.StatusPublished,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decodePost(t, resp)
	assert.Equal(t, models.StatusPublished, updated.Status)
	assert.Equal(t, "First draft", updated.Content)

	// List reflects the new status.
	resp = doJSON(t, app, "GET", "/api/posts", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listing struct {
		Data  []models.Post `json:"data"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, models.StatusPublished, listing.Data[0].Status)
}

func TestPostSubmitEndpoint(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	resp := doJSON(t, app, "POST", "/api/posts", map[string]string{"title": "Draft"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decodePost(t, resp)

	resp = doJSON(t, app, "POST", "/api/posts/"+post.ID.String()+"/submit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusReadyForReview, decodePost(t, resp).Status)

	// Submitting again keeps the status.
	resp = doJSON(t, app, "POST", "/api/posts/"+post.ID.String()+"/submit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusReadyForReview, decodePost(t, resp).Status)
}

func TestPostUpdateConflictStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	resp := doJSON(t, app, "POST", "/api/posts", map[string]string{"title": "Draft"})
	post := decodePost(t, resp)

	resp = doJSON(t, app, "PUT", "/api/posts/"+post.ID.String(), map[string]string{"content": "edit"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "PUT", "/api/posts/"+post.ID.String(), map[string]interface{}{
		"content":          "stale edit",
		"expected_version": 1,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestPostNotFoundAndBadID(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	resp := doJSON(t, app, "GET", "/api/posts/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// A malformed ID is a validation failure, not a lookup miss: it must
	// come back 400, never 404.
	for _, path := range []string{
		"/api/posts/not-a-uuid",
		"/api/posts/not-a-uuid/submit",
		"/api/posts/not-a-uuid/session",
	} {
		method := "GET"
		if strings.HasSuffix(path, "/submit") {
			method = "POST"
		}
		resp = doJSON(t, app, method, path, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "Invalid post ID", path)
	}
}

func TestPostForbiddenForOtherUser(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	ownerApp, _ := newPostApp(db, owner.ID)
	resp := doJSON(t, ownerApp, "POST", "/api/posts", map[string]string{"title": "Mine"})
	post := decodePost(t, resp)

	otherApp, _ := newPostApp(db, other.ID)
	resp = doJSON(t, otherApp, "GET", "/api/posts/"+post.ID.String(), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSessionEndpoints(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	resp := doJSON(t, app, "POST", "/api/posts", map[string]string{"title": "Draft", "content": "seed"})
	post := decodePost(t, resp)
	path := "/api/posts/" + post.ID.String() + "/session"

	// No session yet.
	resp = doJSON(t, app, "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, "POST", path, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Double open conflicts.
	resp = doJSON(t, app, "POST", path, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, "PUT", path, map[string]string{"content": "typed text"})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, "GET", path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var state struct {
		Dirty bool `json:"dirty"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.True(t, state.Dirty)

	// Close flushes the pending buffer into the post.
	resp = doJSON(t, app, "DELETE", path, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/posts/"+post.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "typed text", decodePost(t, resp).Content)
}

func TestExplicitSaveMarksSessionClean(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	resp := doJSON(t, app, "POST", "/api/posts", map[string]string{"title": "Draft", "content": "seed"})
	post := decodePost(t, resp)
	path := "/api/posts/" + post.ID.String() + "/session"

	resp = doJSON(t, app, "POST", path, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "PUT", path, map[string]string{"content": "typed text"})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	// An explicit save of the same content settles the session.
	resp = doJSON(t, app, "PUT", "/api/posts/"+post.ID.String(), map[string]string{"content": "typed text"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var state struct {
		Dirty bool `json:"dirty"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.False(t, state.Dirty)
}

func TestDeletePostDropsSession(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "author@example.com")
	app, _ := newPostApp(db, user.ID)

	resp := doJSON(t, app, "POST", "/api/posts", map[string]string{"title": "Draft"})
	post := decodePost(t, resp)
	path := "/api/posts/" + post.ID.String() + "/session"

	resp = doJSON(t, app, "POST", path, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "DELETE", "/api/posts/"+post.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", path, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

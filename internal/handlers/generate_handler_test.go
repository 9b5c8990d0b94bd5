package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/config"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/models"
	"github.com/postsmith/ghostwriter-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// authAs injects the JWT claims the auth middleware would have parsed.
func authAs(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": userID.String(),
		})
		c.Locals("user", token)
		return c.Next()
	}
}

func newGenerateApp(db *gorm.DB, upstreamURL string, userID uuid.UUID) *fiber.App {
	cfg := &config.Config{
		OpenRouterAPIKey: "test-key",
		OpenRouterAPIURL: upstreamURL,
		OpenRouterModel:  "deepseek/deepseek-r1:free",
		AppURL:           "http://localhost:3000",
		AppTitle:         "LinkedIn Ghostwriter",
		AITimeout:        5 * time.Second,
	}
	handler := NewGenerateHandler(services.NewGenerationService(cfg), services.NewProfileService(db))

	app := fiber.New()
	app.Post("/api/generate", authAs(userID), handler.Generate)
	return app
}

func postGenerate(t *testing.T, app *fiber.App, body dto.GenerateRequest) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/generate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestGenerateRequiresActiveSubscription(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "free@example.com")

	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer upstream.Close()

	app := newGenerateApp(db, upstream.URL, user.ID)

	resp := postGenerate(t, app, dto.GenerateRequest{Topic: "Hiring"})
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGenerateEmptyTopic(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "paid@example.com")
	require.NoError(t, db.Model(user).Update("subscription_status", models.SubscriptionActive).Error)

	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer upstream.Close()

	app := newGenerateApp(db, upstream.URL, user.ID)

	resp := postGenerate(t, app, dto.GenerateRequest{Topic: "   "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGenerateUnknownTone(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "paid@example.com")
	require.NoError(t, db.Model(user).Update("subscription_status", models.SubscriptionActive).Error)

	app := newGenerateApp(db, "http://127.0.0.1:0", user.ID)

	resp := postGenerate(t, app, dto.GenerateRequest{Topic: "Hiring", Tone: "sarcastic"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateSuccessDefaultsIndustryToCompany(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "paid@example.com")
	require.NoError(t, db.Model(user).Update("subscription_status", models.SubscriptionActive).Error)

	var gotPrompt string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotPrompt = req.Messages[1].Content
		w.Write([]byte(`{"choices":[{"message":{"content":"Generated draft"}}]}`))
	}))
	defer upstream.Close()

	app := newGenerateApp(db, upstream.URL, user.ID)

	resp := postGenerate(t, app, dto.GenerateRequest{Topic: "Hiring"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload dto.GenerateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Generated draft", payload.Content)

	// No industry in the request, so the user's company fills in.
	assert.Contains(t, gotPrompt, "#AcmeLife")
}

func TestGenerateUpstreamFailure(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "paid@example.com")
	require.NoError(t, db.Model(user).Update("subscription_status", models.SubscriptionActive).Error)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	app := newGenerateApp(db, upstream.URL, user.ID)

	resp := postGenerate(t, app, dto.GenerateRequest{Topic: "Hiring"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var payload dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.True(t, payload.Error)
	assert.Equal(t, "Failed to generate post", payload.Message)
}

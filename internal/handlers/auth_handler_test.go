package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/postsmith/ghostwriter-backend/internal/config"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
	"github.com/postsmith/ghostwriter-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthApp(db *gorm.DB) *fiber.App {
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
	}
	handler := NewAuthHandler(services.NewAuthService(db, cfg))

	app := fiber.New()
	app.Post("/api/auth/register", handler.Register)
	app.Post("/api/auth/login", handler.Login)
	app.Post("/api/auth/refresh", handler.Refresh)
	return app
}

func TestRegisterEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	body := map[string]string{
		"email":                   "founder@example.com",
		"password":                "password123",
		"name":                    "Jordan",
		"company":                 "Acme",
		"preferred_writing_style": "visionary",
	}

	resp := doJSON(t, app, "POST", "/api/auth/register", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var auth dto.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Equal(t, "founder@example.com", auth.User.Email)

	// Duplicate email conflicts.
	resp = doJSON(t, app, "POST", "/api/auth/register", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLoginEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	resp := doJSON(t, app, "POST", "/api/auth/register", map[string]string{
		"email":    "founder@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/auth/login", map[string]string{
		"email":    "founder@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/api/auth/login", map[string]string{
		"email":    "founder@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := newAuthApp(db)

	resp := doJSON(t, app, "POST", "/api/auth/register", map[string]string{
		"email":    "founder@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var auth dto.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))

	resp = doJSON(t, app, "POST", "/api/auth/refresh", map[string]string{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The consumed token cannot be replayed.
	resp = doJSON(t, app, "POST", "/api/auth/refresh", map[string]string{
		"refresh_token": auth.RefreshToken,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

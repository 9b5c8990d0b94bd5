package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/postsmith/ghostwriter-backend/internal/config"
	"github.com/postsmith/ghostwriter-backend/internal/handlers"
	"github.com/postsmith/ghostwriter-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	profileHandler *handlers.ProfileHandler,
	postHandler *handlers.PostHandler,
	sessionHandler *handlers.SessionHandler,
	generateHandler *handlers.GenerateHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Stripe webhook — authenticated by signature, not JWT
	api.Post("/webhook", webhookHandler.HandleStripe)

	// Everything below requires a logged-in user
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Get("/profile", profileHandler.Get)
	protected.Put("/profile", profileHandler.Update)
	protected.Put("/profile/settings", profileHandler.UpdateSettings)

	protected.Post("/generate", generateHandler.Generate)

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
}

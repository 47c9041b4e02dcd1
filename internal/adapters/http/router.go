package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/geosurvey/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	apiVersion     = "1.0.0"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c *fiber.Ctx) bool {
			// recordings are already compressed audio
			return strings.HasPrefix(c.Path(), "/download/")
		},
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", apiVersion)
		return c.Next()
	})

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Accounts
	app.Post("/register", timeout.NewWithContext(RegisterHandler(deps), requestTimeout))
	app.Post("/login", timeout.NewWithContext(LoginHandler(deps), requestTimeout))

	// Surveys
	app.Post("/surveys", timeout.NewWithContext(CreateSurveyHandler(deps), requestTimeout))
	app.Get("/surveys", timeout.NewWithContext(ListSurveysHandler(deps), requestTimeout))
	app.Get("/surveys/:id", timeout.NewWithContext(GetSurveyHandler(deps), requestTimeout))
	app.Delete("/surveys/:id", timeout.NewWithContext(DeleteSurveyHandler(deps), requestTimeout))
	app.Get("/surveys/:id/responses", timeout.NewWithContext(SurveyResponsesHandler(deps), requestTimeout))
	app.Get("/surveys/:id/report", timeout.NewWithContext(SurveyReportHandler(deps), requestTimeout))

	// Submissions and recordings
	app.Post("/submit_survey", timeout.NewWithContext(SubmitSurveyHandler(deps), requestTimeout))
	app.Post("/upload", timeout.NewWithContext(UploadHandler(deps), requestTimeout))
	app.Get("/download/:response_id", timeout.NewWithContext(DownloadHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

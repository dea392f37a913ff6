package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "resume-builder/internal/auth"
	"resume-builder/internal/billing"
	"resume-builder/internal/realtime"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/users"
)

// RouterDeps carries the handlers wired by bootstrap.
type RouterDeps struct {
	Config          config.Config
	ResumeHandler   *resumes.Handler
	BillingHandler  *billing.Handler
	UserHandler     *users.Handler
	RealtimeHandler *realtime.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"SAVE":    {Rate: 5, Burst: 10},
				"WEBHOOK": {Rate: 20, Burst: 40},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	// The users handler owns /me when present; the claims-echo fallback
	// keeps dev setups without a users service working.
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	} else {
		registerMeRoutes(api)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.BillingHandler != nil {
		deps.BillingHandler.RegisterRoutes(api)
		deps.BillingHandler.RegisterWebhook(api)
	}
	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitGroup buckets requests for the limiter. Saves burst during
// active editing, so the rule stays above the client debounce cadence.
func rateLimitGroup(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case c.Request.Method == http.MethodPost && path == "/api/v1/resumes":
		return "SAVE"
	case path == "/api/v1/billing/webhook":
		return "WEBHOOK"
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

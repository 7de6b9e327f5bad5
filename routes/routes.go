package routes

import (
	"time"

	"vehicle-vault-api/handlers"
	"vehicle-vault-api/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Options tunes the router for the deployment.
type Options struct {
	CORSOrigin   string
	MaxBodyBytes int64
	// AuthLimit and AssistantLimit throttle per client IP; zero disables.
	AuthLimit      rate.Limit
	AssistantLimit rate.Limit
}

func DefaultOptions() Options {
	return Options{
		CORSOrigin:     "*",
		MaxBodyBytes:   50 << 20,
		AuthLimit:      rate.Every(2 * time.Second),
		AssistantLimit: rate.Every(3 * time.Second),
	}
}

func limiter(limit rate.Limit, burst int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.NewRateLimiter(limit, burst).Middleware()
}

// NewRouter builds the engine with the global middleware and every route.
func NewRouter(h *handlers.Handler, opts Options) *gin.Engine {
	handlers.RegisterValidation()

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())
	r.Use(middleware.RequestID(), middleware.CORS(opts.CORSOrigin), middleware.BodyLimit(opts.MaxBodyBytes))

	r.GET("/health", h.Health)
	r.GET("/", h.Welcome)

	SetupRoutes(r, h, opts)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, opts Options) {
	authRequired := middleware.AuthRequired(h.Tokens, h.Users)
	authLimit := limiter(opts.AuthLimit, 5)
	assistantLimit := limiter(opts.AssistantLimit, 5)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/register", authLimit, h.Register)
		public.POST("/login", authLimit, h.Login)

		// Listings (no auth needed)
		public.GET("/cars", h.ListCars)
		public.GET("/cars/:id", h.GetCar)
		public.GET("/cars/:id/image", h.GetCarImage)
		public.GET("/cars/:id/financing", h.CarFinancing)
		public.GET("/cars/user/:userId", h.ListUserCars)
		public.GET("/users/:userId/sold-cars-count", h.SoldCarsCount)

		// Assistant
		public.POST("/chatbot", assistantLimit, h.Chat)
		public.POST("/trade-in-estimate", assistantLimit, h.TradeInEstimate)

		public.GET("/notifications/state-machine", h.GetStateMachineInfo)

		// Live notifications authenticate with ?token=
		public.GET("/ws", h.ServeWS)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/me", h.GetProfile)
		auth.POST("/logout", h.Logout)

		// Listings
		auth.POST("/cars", h.CreateCar)
		auth.PUT("/cars/:id", h.UpdateCar)
		auth.DELETE("/cars/:id", h.DeleteCar)
		auth.PUT("/cars/:id/sold", h.MarkSold)

		// Test drives and notifications
		auth.POST("/schedule-test-drive", h.ScheduleTestDrive)
		auth.GET("/notifications/:userId", h.ListNotifications)
		auth.GET("/notifications/:userId/unread-count", h.UnreadNotificationCount)
		auth.PUT("/notifications/:id/respond", h.RespondToNotification)
		auth.PUT("/notifications/:id/read", h.MarkNotificationRead)

		// Messages
		auth.POST("/messages", h.SendMessage)
		auth.GET("/messages/:userId", h.ListMessages)
		auth.PUT("/messages/:id/read", h.MarkMessageRead)

		// Accounts
		auth.GET("/users", h.ListUsers)
		auth.PUT("/users/:id", h.UpdateUser)
		auth.DELETE("/users/:id", h.DeleteUser)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.AdminRequired())
	{
		admin.GET("/users", h.AdminGetAllUsers)
	}
}

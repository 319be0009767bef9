package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pesto-students/backend-repo-titans/internal/auth"
	"github.com/pesto-students/backend-repo-titans/internal/booking"
	"github.com/pesto-students/backend-repo-titans/internal/config"
	"github.com/pesto-students/backend-repo-titans/internal/extension"
	"github.com/pesto-students/backend-repo-titans/internal/gym"
	"github.com/pesto-students/backend-repo-titans/internal/user"
)

// maxMultipartMemory bounds the in-memory part of gym onboarding uploads.
const maxMultipartMemory = 32 << 20

type Handlers struct {
	Users      *user.Handler
	Gyms       *gym.Handler
	Bookings   *booking.Handler
	Extensions *extension.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, h Handlers, checks map[string]Check) *Server {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	router.GET("/health", Health(checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	{
		public.POST("/register", h.Users.Register)
		public.POST("/owners/register", h.Users.RegisterOwner)
		public.POST("/login", h.Users.Login)
		public.POST("/refresh", h.Users.RefreshToken)
	}

	router.GET("/gyms", h.Gyms.Search)
	router.GET("/gyms/:gymID", h.Gyms.GetGym)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", h.Users.GetMe)
		protected.PATCH("/me", h.Users.UpdateMe)

		protected.POST("/bookings", h.Bookings.CreateBooking)
		protected.GET("/bookings", h.Bookings.ListMyBookings)
		protected.GET("/bookings/:bookingID", h.Bookings.GetBooking)
		protected.PATCH("/bookings/cancel", h.Bookings.CancelBooking)
		protected.PATCH("/bookings/ratings", h.Bookings.RateBooking)
		protected.POST("/bookings/extends", h.Extensions.RequestExtension)
		protected.PATCH("/bookings/extends", h.Extensions.RespondToExtension)
	}

	owner := router.Group("/gyms")
	owner.Use(authMiddleware, auth.RequireRole(auth.RoleOwner))
	{
		owner.POST("", h.Gyms.Onboard)
		owner.PATCH("/me", h.Gyms.UpdateMine)
		owner.POST("/me/resubmit", h.Gyms.Resubmit)
		owner.POST("/schedule", h.Gyms.UpdateSchedule)
		owner.GET("/owners/stats", h.Gyms.OwnerStats)
		owner.GET("/bookings/upcoming", h.Gyms.UpcomingBookings)
		owner.GET("/extensions", h.Extensions.ListOwnerPending)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/gyms/pending", h.Gyms.ListPending)
		admin.PATCH("/gyms/:gymID/status", h.Gyms.Respond)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

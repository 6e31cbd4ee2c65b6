package server

import (
	"context"
	"net/http"
	"time"

	"fitconnect/internal/auth"
	"fitconnect/internal/booking"
	"fitconnect/internal/config"
	"fitconnect/internal/dashboard"
	"fitconnect/internal/email"
	"fitconnect/internal/favorite"
	"fitconnect/internal/oauth"
	"fitconnect/internal/offering"
	"fitconnect/internal/realtime"
	"fitconnect/internal/session"
	"fitconnect/internal/studio"
	"fitconnect/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Deps are the long-lived resources the HTTP server is built from.
type Deps struct {
	DB       *sqlx.DB
	Redis    *redis.Client
	Config   *config.Config
	Email    *email.Service
	Sessions *session.Store
	Hub      *realtime.Hub
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	deps   Deps
}

func New(deps Deps) *Server {
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	userService := user.NewService(
		user.NewRepository(deps.DB),
		deps.Sessions,
		deps.Email,
		user.TokenSecrets{Access: cfg.JWTSecret, Refresh: cfg.RefreshSecret},
		cfg.AppURL,
	)
	studioService := studio.NewService(studio.NewRepository(deps.DB))
	offeringService := offering.NewService(offering.NewRepository(deps.DB))
	bookingService := booking.NewService(booking.NewRepository(deps.DB), deps.Email)
	favoriteService := favorite.NewService(favorite.NewRepository(deps.DB))
	dashboardService := dashboard.NewService(studioService, offeringService, bookingService, userService)
	oauthService := oauth.NewService(deps.Redis, userService,
		oauth.Google(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.PublicURL+"/auth/oauth/google/callback"),
		oauth.GitHub(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.PublicURL+"/auth/oauth/github/callback"),
	)

	userHandler := user.NewHandler(userService)
	studioHandler := studio.NewHandler(studioService)
	offeringHandler := offering.NewHandler(offeringService)
	bookingHandler := booking.NewHandler(bookingService)
	favoriteHandler := favorite.NewHandler(favoriteService)
	dashboardHandler := dashboard.NewHandler(dashboardService)
	oauthHandler := oauth.NewHandler(oauthService)
	eventsHandler := realtime.NewHandler(deps.Hub, cfg.JWTSecret, deps.Sessions)

	authMiddleware := auth.SessionMiddleware(cfg.JWTSecret, deps.Sessions)

	public := router.Group("/auth")
	{
		public.POST("/signup", userHandler.SignUp)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
		public.POST("/reset-password", userHandler.RequestPasswordReset)
		public.POST("/reset-password/confirm", userHandler.ConfirmPasswordReset)
		public.GET("/oauth/:provider", oauthHandler.Start)
		public.GET("/oauth/:provider/callback", oauthHandler.Callback)
		public.GET("/events", eventsHandler.Events)
	}

	sessionRoutes := router.Group("/auth")
	sessionRoutes.Use(authMiddleware)
	{
		sessionRoutes.POST("/logout", userHandler.Logout)
		sessionRoutes.GET("/session", userHandler.Session)
	}

	api := router.Group("/api/v1")
	{
		api.GET("/studios", studioHandler.ListStudios)
		api.GET("/studios/:id", studioHandler.GetStudio)
		api.GET("/studios/:id/instructors", studioHandler.ListInstructors)
		api.GET("/studios/:id/classes", offeringHandler.ListStudioClasses)
		api.GET("/classes", offeringHandler.ListClasses)
		api.GET("/classes/:id", offeringHandler.GetClass)
	}

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/profile/:id", userHandler.GetProfile)
		protected.POST("/profile", userHandler.CreateProfile)
		protected.PATCH("/profile", userHandler.UpdateProfile)

		protected.POST("/bookings", bookingHandler.BookClass)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
		protected.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)

		protected.GET("/favorites", favoriteHandler.List)
		protected.POST("/favorites", favoriteHandler.Add)
		protected.POST("/favorites/toggle", favoriteHandler.Toggle)
		protected.DELETE("/favorites/:type/:id", favoriteHandler.Remove)
	}

	owners := router.Group("/api/v1/dashboard")
	owners.Use(authMiddleware, auth.RequireAnyRole(auth.RoleStudioOwner, auth.RoleAdmin))
	{
		owners.GET("/studios/:id", dashboardHandler.Overview)
		owners.GET("/studios/:id/bookings", dashboardHandler.Bookings)
		owners.GET("/studios/:id/export", dashboardHandler.Export)
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/test-email", TestEmail(deps.Email))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/db-test", DBTest(deps.DB, deps.Redis))
	router.GET("/bookings", RedirectTo("/profile"))
	router.NoRoute(NotFound)

	return &Server{
		router: router,
		deps:   deps,
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

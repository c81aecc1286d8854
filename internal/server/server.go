package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tenemo/sealed-vote/internal/config"
	"github.com/tenemo/sealed-vote/internal/handlers"
	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/middleware/events"
	"github.com/tenemo/sealed-vote/internal/middleware/history"
	"github.com/tenemo/sealed-vote/internal/response"
	"github.com/tenemo/sealed-vote/internal/session"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	sessions   *session.Manager

	routerOnce sync.Once
	router     *gin.Engine
}

// New creates a new server instance serving every browser session from
// sessions
func New(cfg *config.Config, sessions *session.Manager) *Server {
	return &Server{
		config:   cfg,
		sessions: sessions,
	}
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	s.routerOnce.Do(func() {
		s.router = s.setupRouter()
	})
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: s.Handler(),

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.HTTP().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.HTTP().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if s.config.Server.GinMode != "" {
		gin.SetMode(s.config.Server.GinMode)
	}

	log := logger.HTTP()
	router := gin.New()

	router.Use(events.CreateEvent(log))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic recovered", "request_id", events.RequestID(c), "panic", recovered)
		response.InternalServerError(c, "Internal server error")
	}))
	router.Use(cors.New(s.corsConfig()))

	router.SetHTMLTemplate(handlers.Templates())

	router.GET("/ping", func(c *gin.Context) {
		response.SuccessResponse(c, http.StatusOK, "sealed.vote is running", gin.H{
			"status": "healthy",
		})
	})

	sessions := s.sessions.Middleware()
	navigation := history.Sync(sessionStore)

	if !s.config.IsProduction() {
		router.GET("/debug/state", sessions, func(c *gin.Context) {
			response.SuccessResponse(c, http.StatusOK, "", session.FromContext(c).Polls.Snapshot())
		})
	}

	pageHandler := handlers.NewPageHandler()
	pages := router.Group("/")
	pages.Use(sessions, navigation)
	pageHandler.Register(pages)

	router.NoRoute(sessions, navigation, pageHandler.NotFound)

	return router
}

func sessionStore(c *gin.Context) history.Dispatcher {
	if sess := session.FromContext(c); sess != nil {
		return sess.Store
	}
	return nil
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if origins := s.config.AllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", events.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{events.RequestIDHeader}
	return corsConfig
}

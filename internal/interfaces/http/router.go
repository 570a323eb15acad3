// Package http wires the gin engine, middleware and routes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/internal/infrastructure/monitoring"
	"github.com/tilvane/accountd/internal/interfaces/http/handlers"
	"github.com/tilvane/accountd/internal/interfaces/http/middleware"
	"github.com/tilvane/accountd/internal/token"
	"github.com/tilvane/accountd/pkg/logger"
)

// Router owns the gin engine and HTTP server.
type Router struct {
	engine  *gin.Engine
	config  *config.Config
	logger  logger.Logger
	server  *http.Server
	metrics *monitoring.Metrics
	tracing *monitoring.TracingManager

	health   *handlers.HealthHandler
	logins   *handlers.LoginHandler
	accounts *handlers.AccountHandler
	verifier *token.Verifier
}

func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	metrics *monitoring.Metrics,
	tracing *monitoring.TracingManager,
	verifier *token.Verifier,
	logins *handlers.LoginHandler,
	accounts *handlers.AccountHandler,
) *Router {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Router{
		engine:   gin.New(),
		config:   cfg,
		logger:   log.WithComponent("Router"),
		metrics:  metrics,
		tracing:  tracing,
		health:   handlers.NewHealthHandler(),
		logins:   logins,
		accounts: accounts,
		verifier: verifier,
	}
}

// SetupRoutes installs middleware and routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	// Tracing goes before logging so every request log line carries the
	// span's trace and span ids.
	r.engine.Use(middleware.Tracing(r.tracing))
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Metrics(r.metrics))

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://" + r.config.Identity.Domain},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.engine.GET("/health", r.health.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Server.Debug {
		pprof.Register(r.engine)
	}

	authenticated := middleware.Authenticate(r.verifier, r.metrics)

	v1 := r.engine.Group("/v1")
	{
		logins := v1.Group("/logins")
		{
			logins.POST("", r.logins.Create)
			logins.POST("/refresh", r.logins.Refresh)
			logins.GET("/certs", r.logins.Certs)
			logins.GET("", authenticated, r.logins.List)
			logins.DELETE("", authenticated, r.logins.Delete)
		}

		accounts := v1.Group("/accounts")
		accounts.Use(authenticated)
		{
			accounts.POST("", r.accounts.Create)
			accounts.GET("", r.accounts.Get)
			accounts.PATCH("", r.accounts.Update)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "the requested resource was not found",
		})
	})
}

// Start runs the HTTP server until it is shut down.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:         addr,
		Handler:      r.engine,
		ReadTimeout:  time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(r.config.Server.WriteTimeout) * time.Second,
	}

	r.logger.Info(context.Background(), "starting http server", logger.String("addr", addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Engine exposes the underlying gin engine, for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "stopping http server")
	return r.server.Shutdown(ctx)
}

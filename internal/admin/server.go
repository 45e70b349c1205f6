// Package admin exposes the debug and testing control surface over HTTP:
// health, metrics, debug option toggles, force-disabled versions, the
// local protocol advertisement, and negotiation previews.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dialstack/callcore/internal/auth"
	"github.com/dialstack/callcore/internal/callsetup"
	"github.com/dialstack/callcore/internal/config"
	"github.com/dialstack/callcore/internal/observability"
	"github.com/dialstack/callcore/internal/relay"
)

// Server is the admin HTTP surface over one callsetup.Service.
type Server struct {
	cfg     config.Service
	setup   *callsetup.Service
	servers []relay.Server
	token   auth.Validator

	router  *gin.Engine
	started time.Time
}

// New assembles the admin router. staticServers is the locally
// configured relay set shown by the server inspection endpoints; it may
// be empty. Mutating routes are open when no admin token is configured.
func New(cfg config.Service, setup *callsetup.Service, staticServers []relay.Server) *Server {
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:     cfg,
		setup:   setup,
		servers: staticServers,
		router:  r,
		started: time.Now(),
	}
	if cfg.AdminToken != "" {
		s.token = auth.StaticToken{Token: cfg.AdminToken}
	}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine { return s.router }

// Run serves the admin surface until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.AdminAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errs
		return ctx.Err()
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requireToken gates mutating routes behind the static bearer token when
// one is configured.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == nil {
			c.Next()
			return
		}
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if err := s.token.Validate(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

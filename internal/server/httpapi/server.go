// Package httpapi exposes the auth flows over HTTP+JSON using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/readease/readease/internal/logging"
	"github.com/readease/readease/internal/server/models"
	"github.com/readease/readease/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// AuthService is what the handlers need from services.AuthService.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// CookieConfig holds the attributes of the refresh token cookie.
type CookieConfig struct {
	Domain string
	Secure bool
}

type HTTPServer struct {
	address string
	auth    AuthService
	cookie  CookieConfig
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, as AuthService, cookie CookieConfig) *HTTPServer {
	s := &HTTPServer{
		address: a,
		auth:    as,
		cookie:  cookie,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.newRouter()
	return s
}

// Handler returns the configured router.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), recordMetrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz/liveness", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	g := r.Group("/api/auth")
	g.GET("/", s.strongPassword)
	g.POST("/signup", s.signUp)
	g.POST("/login/step1", s.loginStep1)
	g.POST("/login/step2", s.loginStep2)
	g.PUT("/logout", s.logout)
	g.POST("/forgot-password/step1", s.forgotPasswordStep1)
	g.GET("/forgot-password/step2", s.forgotPasswordStep2)
	g.POST("/forgot-password/step3", s.forgotPasswordStep3)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

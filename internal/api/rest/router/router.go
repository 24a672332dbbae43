package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/videotube-server/internal/api/rest/handler"
	"github.com/dtroode/videotube-server/internal/api/rest/middleware"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

// Options tunes request handling.
type Options struct {
	Cookies        handler.CookieConfig
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// Router builds the HTTP routes of the account API.
type Router struct {
	authService    handler.AuthService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	options        Options
	logger         *logger.Logger
}

// New creates new Router instance.
func New(
	authService handler.AuthService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	options Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		options:        options,
		logger:         logger,
	}
}

// Register returns an engine with middleware and all routes attached.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	e := gin.New()
	e.Use(gin.Recovery(), logging.Handle)
	if r.options.MaxUploadBytes > 0 {
		e.MaxMultipartMemory = r.options.MaxUploadBytes
	}

	e.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	users := e.Group("/api/v1/users")
	if r.options.RateLimitRPS > 0 {
		users.Use(middleware.NewRateLimit(r.options.RateLimitRPS, r.options.RateLimitBurst, r.logger).Handle)
	}
	r.registerAuthRoutes(users, authenticate)

	return e
}

func (r *Router) registerAuthRoutes(group *gin.RouterGroup, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.options.Cookies, r.options.MaxUploadBytes, r.logger)

	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.Refresh)
	group.POST("/logout", authenticate.Handle, authHandler.Logout)
}

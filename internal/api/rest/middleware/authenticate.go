package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/videotube-server/internal/api/rest/handler"
	"github.com/dtroode/videotube-server/internal/apierrors"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

// TokenService validates access tokens.
type TokenService interface {
	Authenticate(ctx context.Context, accessToken string) (model.AccessClaims, error)
}

// Authenticate validates access tokens and injects the account ID into the request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handle reads the access token from the cookie or the Authorization header.
func (m *Authenticate) Handle(c *gin.Context) {
	tokenString, _ := c.Cookie(handler.AccessTokenCookie)
	if tokenString == "" {
		tokenString = bearerToken(c.GetHeader("Authorization"))
	}
	if tokenString == "" {
		handler.WriteError(c, m.logger, apierrors.NewErrUnauthorizedRequest())
		return
	}

	claims, err := m.tokenService.Authenticate(c.Request.Context(), tokenString)
	if err != nil {
		m.logger.Debug("Authenticate: access token rejected",
			"error", err.Error())
		handler.WriteError(c, m.logger, apierrors.NewErrInvalidAccessToken())
		return
	}
	if claims.AccountID == uuid.Nil {
		handler.WriteError(c, m.logger, apierrors.NewErrInvalidAccessToken())
		return
	}

	ctx := m.contextManager.SetAccountIDToContext(c.Request.Context(), claims.AccountID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

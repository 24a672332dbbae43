package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/videotube-server/internal/model"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig controls the attributes of token cookies.
type CookieConfig struct {
	Secure     bool
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) setTokens(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, pair.AccessToken, int(cc.AccessTTL.Seconds()), "/", cc.Domain, cc.Secure, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken, int(cc.RefreshTTL.Seconds()), "/", cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) clearTokens(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", cc.Domain, cc.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", cc.Domain, cc.Secure, true)
}

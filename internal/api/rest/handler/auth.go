package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/videotube-server/internal/apierrors"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

// AuthService defines account registration and session operations.
type AuthService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.PublicAccount, error)
	Login(ctx context.Context, params model.LoginParams) (model.LoginResult, error)
	Logout(ctx context.Context, accountID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// Auth handles HTTP endpoints for account authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	cookies        CookieConfig
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	authService AuthService,
	contextManager model.ContextManager,
	cookies CookieConfig,
	maxUploadBytes int64,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		cookies:        cookies,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type registerRequest struct {
	FullName   string                `form:"fullName" json:"fullName"`
	Email      string                `form:"email" json:"email"`
	Username   string                `form:"username" json:"username"`
	Password   string                `form:"password" json:"password"`
	Avatar     *multipart.FileHeader `form:"avatar" json:"-"`
	CoverImage *multipart.FileHeader `form:"coverImage" json:"-"`
}

type loginResponse struct {
	User         model.PublicAccount `json:"user"`
	AccessToken  string              `json:"accessToken"`
	RefreshToken string              `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `form:"refreshToken" json:"refreshToken"`
}

// Register creates an account from a multipart form with avatar and optional cover image.
func (h *Auth) Register(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, h.logger, apierrors.New(http.StatusRequestEntityTooLarge, "request body too large"))
			return
		}
		handleError(c, h.logger, apierrors.NewErrBadRequest("invalid request body"))
		return
	}

	h.logger.Debug("Auth handler: processing register request",
		"username", req.Username)

	avatar, closeAvatar, err := openUpload(req.Avatar)
	if err != nil {
		handleError(c, h.logger, apierrors.NewErrAvatarRequired())
		return
	}
	defer closeAvatar()

	cover, closeCover, err := openUpload(req.CoverImage)
	if err != nil {
		handleError(c, h.logger, apierrors.NewErrBadRequest("invalid cover image"))
		return
	}
	defer closeCover()

	account, err := h.authService.Register(c.Request.Context(), model.RegisterParams{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.logger.Info("Auth handler: register completed",
		"account_id", account.ID)

	respond(c, http.StatusCreated, account, "User registered successfully")
}

// Login authenticates by username or email and sets token cookies.
func (h *Auth) Login(c *gin.Context) {
	var params model.LoginParams
	if err := c.ShouldBind(&params); err != nil {
		handleError(c, h.logger, apierrors.NewErrBadRequest("invalid request body"))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.cookies.setTokens(c, result.Tokens)
	respond(c, http.StatusOK, loginResponse{
		User:         result.Account,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout ends the session of the authenticated account and clears token cookies.
func (h *Auth) Logout(c *gin.Context) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(c.Request.Context())
	if !ok {
		handleError(c, h.logger, apierrors.NewErrUnauthorizedRequest())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), accountID); err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.cookies.clearTokens(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

// Refresh rotates the refresh token taken from the cookie or request body.
func (h *Auth) Refresh(c *gin.Context) {
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := c.ShouldBind(&req); err == nil {
			token = req.RefreshToken
		}
	}

	pair, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.cookies.setTokens(c, pair)
	respond(c, http.StatusOK, pair, "Access token refreshed")
}

func openUpload(fh *multipart.FileHeader) (*model.Upload, func(), error) {
	if fh == nil {
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open upload: %w", err)
	}

	return &model.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      f,
	}, func() { _ = f.Close() }, nil
}

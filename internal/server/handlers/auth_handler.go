package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/identity"
)

const (
	principalKey = "principal"
	tokenKey     = "session_token"

	authFailedMessage = "authentication failed"
)

// AuthHandler exposes the identity provider over HTTP.
type AuthHandler struct {
	provider identity.Provider
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(provider identity.Provider, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{provider: provider, logger: logger}
}

// SignUp registers a new account and returns its first session.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.logger.Warn("invalid sign-up payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email and password are required"})
		return
	}

	session, err := h.provider.SignUp(c.Request.Context(), creds)
	if err != nil {
		h.authFailure(c, "sign-up failed", err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SignIn exchanges credentials for a session.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.logger.Warn("invalid sign-in payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email and password are required"})
		return
	}

	session, err := h.provider.SignIn(c.Request.Context(), creds)
	if err != nil {
		h.authFailure(c, "sign-in failed", err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SignOut revokes the bearer token of the current request.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.provider.SignOut(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		h.logger.Error("sign-out failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "unable to sign out"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RequireSession rejects requests without a valid bearer token and stores the
// verified principal on the context.
func (h *AuthHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing bearer token"})
			return
		}

		principal, err := h.provider.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidToken) {
				h.logger.Error("token verification failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "unable to verify session"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid session"})
			return
		}

		c.Set(principalKey, principal)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// authFailure logs the cause and answers with a generic body.
func (h *AuthHandler) authFailure(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, identity.ErrCredentialsRequired):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email and password are required"})
		return
	case errors.Is(err, identity.ErrEmailTaken):
		h.logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: authFailedMessage})
	case errors.Is(err, identity.ErrInvalidCredentials):
		h.logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: authFailedMessage})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: authFailedMessage})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func principalFrom(c *gin.Context) *models.Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, _ := value.(*models.Principal)
	return principal
}

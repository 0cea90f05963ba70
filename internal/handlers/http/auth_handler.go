package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/services"
	"github.com/Uttham-412/Whiteboard/pkg/errors"
	"github.com/Uttham-412/Whiteboard/pkg/utils"
	"github.com/Uttham-412/Whiteboard/pkg/validation"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues the JWTs both the REST surface and the websocket
// signaling endpoint accept.
type AuthHandler struct {
	authService services.AuthService
	tokenTTL    time.Duration
}

func NewAuthHandler(authService services.AuthService, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokenTTL:    tokenTTL,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/login", h.Login)
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Username    string `json:"username"`
}

// Login exchanges a username for an access token. The username becomes the
// peer identity on the whiteboard, so it has to pass peer id validation.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	username := utils.NormalizeUsername(strings.TrimSpace(req.Username))
	if err := validation.ValidateUsername(username); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	userID := domain.UserID(utils.GenerateUserID())
	token, err := h.authService.GenerateToken(userID, username)
	if err != nil {
		c.Error(errors.NewInternalError("failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
		Username:    username,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"go.uber.org/zap"
)

// OAuthHandler serves the browser half of social sign-in.
type OAuthHandler struct {
	oauthService service.OAuthService
	logger       *zap.Logger
}

func NewOAuthHandler(oauthService service.OAuthService, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService, logger: logger}
}

// Authorize returns the provider consent URL for the app to open.
// @Summary Start OAuth sign-in
// @Tags auth
// @Produce json
// @Param provider query string true "Provider name, e.g. google"
// @Param redirect_to query string true "App deep link receiving ?code="
// @Param code_challenge query string true "S256 PKCE challenge"
// @Success 200 {object} dto.AuthorizeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/authorize [get]
func (h *OAuthHandler) Authorize(c *gin.Context) {
	authURL, err := h.oauthService.Authorize(c.Request.Context(),
		c.Query("provider"),
		c.Query("redirect_to"),
		c.Query("code_challenge"),
		c.Query("code_challenge_method"),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthorizeResponse{URL: authURL})
}

// Callback receives the provider redirect and bounces the browser back to
// the app.
func (h *OAuthHandler) Callback(c *gin.Context) {
	target, err := h.oauthService.Callback(c.Request.Context(),
		c.Query("state"),
		c.Query("code"),
		c.Query("error"),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

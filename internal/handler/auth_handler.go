package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"go.uber.org/zap"
)

const (
	refreshCookie     = "refresh_token"
	refreshCookiePath = "/api/v1/auth"

	grantPKCE         = "pkce"
	grantRefreshToken = "refresh_token"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService  service.AuthService
	oauthService service.OAuthService
	logger       *zap.Logger
	// siteURL receives the session fragment after an email link is opened.
	siteURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, oauthService service.OAuthService, logger *zap.Logger, siteURL string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		logger:       logger,
		siteURL:      siteURL,
	}
}

// Signup handles user registration
// @Summary Register a new mother account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Signup request"
// @Success 200 {object} dto.SignupResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := dto.SignupResponse{User: dto.UserInfo{
		ID:            result.User.ID,
		Email:         result.User.Email,
		EmailVerified: result.User.IsEmailVerified,
	}}
	if result.Session != nil {
		h.setRefreshCookie(c, result.Session)
		response.Session = result.Session.AuthResponse
	}

	c.JSON(http.StatusOK, response)
}

// Login handles user login
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, response)
	c.JSON(http.StatusOK, response.AuthResponse)
}

// Token issues a session for either grant type.
// @Summary Exchange a PKCE auth code or a refresh token for a session
// @Tags auth
// @Accept json
// @Produce json
// @Param grant_type query string true "pkce or refresh_token"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var (
		response *service.AuthResponseWithRefreshToken
		err      error
	)

	switch c.Query("grant_type") {
	case grantPKCE:
		var req dto.PKCEExchangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		response, err = h.oauthService.ExchangeCode(c.Request.Context(), req.AuthCode, req.CodeVerifier)

	case grantRefreshToken:
		var req dto.RefreshRequest
		_ = c.ShouldBindJSON(&req)
		if req.RefreshToken == "" {
			req.RefreshToken, _ = c.Cookie(refreshCookie)
		}
		if req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad request",
				Message: "Refresh token not found in body or cookie",
			})
			return
		}
		response, err = h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)

	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "unsupported_grant_type",
			Message: "grant_type must be pkce or refresh_token",
		})
		return
	}

	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, response)
	c.JSON(http.StatusOK, response.AuthResponse)
}

// Logout handles user logout
// @Summary Logout user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		abortNoSession(c)
		return
	}

	var req dto.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshCookie)
	}

	err := h.authService.Logout(c.Request.Context(), userID, c.GetString(ctxAccessToken), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.SetCookie(refreshCookie, "", -1, refreshCookiePath, "", true, true)
	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// Session returns the user behind the bearer token.
// @Summary Current session user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		abortNoSession(c)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Resend mails another confirmation link.
func (h *AuthHandler) Resend(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Verification email sent"})
}

// Recover mails a password recovery link.
func (h *AuthHandler) Recover(c *gin.Context) {
	var req dto.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.RecoverPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Recovery email sent"})
}

// UpdatePassword sets a new password for the signed-in user.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		abortNoSession(c)
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.UpdatePassword(c.Request.Context(), userID, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Password updated"})
}

// Verify is the target of emailed links. It always redirects to the site
// URL, with the session or the error in the fragment.
func (h *AuthHandler) Verify(c *gin.Context) {
	kind := c.DefaultQuery("type", service.VerifySignup)

	response, err := h.authService.VerifyEmail(c.Request.Context(), c.Query("token"), kind)
	if err != nil {
		h.logger.Info("Email link rejected", zap.String("type", kind), zap.Error(err))
		c.Redirect(http.StatusFound, h.siteURL+"#"+url.Values{
			"error":             {"access_denied"},
			"error_code":        {"otp_expired"},
			"error_description": {"Email link is invalid or has expired"},
		}.Encode())
		return
	}

	session := response.AuthResponse
	c.Redirect(http.StatusFound, h.siteURL+"#"+url.Values{
		"access_token":  {session.AccessToken},
		"refresh_token": {session.RefreshToken},
		"token_type":    {session.TokenType},
		"expires_in":    {strconv.Itoa(session.ExpiresIn)},
		"expires_at":    {strconv.FormatInt(session.ExpiresAt, 10)},
		"type":          {kind},
	}.Encode())
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, response *service.AuthResponseWithRefreshToken) {
	c.SetCookie(refreshCookie, response.RefreshToken, response.ExpiresIn, refreshCookiePath, "", true, true)
}

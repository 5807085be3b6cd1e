package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"go.uber.org/zap"
)

// ProfileHandler serves the onboarding records: users, mothers and babies.
type ProfileHandler struct {
	profileService service.ProfileService
	logger         *zap.Logger
}

func NewProfileHandler(profileService service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, logger: logger}
}

// GetUser returns the caller's own profile row.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	user, err := h.profileService.GetUser(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, service.UserResponse(user))
}

// UpsertUser writes the caller's profile row.
func (h *ProfileHandler) UpsertUser(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		abortNoSession(c)
		return
	}

	var req dto.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.profileService.UpsertUser(c.Request.Context(), claims, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, service.UserResponse(user))
}

// CreateMother inserts or replaces the caller's mother profile.
func (h *ProfileHandler) CreateMother(c *gin.Context) {
	var req dto.CreateMotherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	mother, err := h.profileService.CreateMother(c.Request.Context(), c.GetString(ctxUserID), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, mother)
}

// CreateBabies takes a JSON array of babies for one mother.
func (h *ProfileHandler) CreateBabies(c *gin.Context) {
	var req []dto.BabyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	babies, err := h.profileService.CreateBabies(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, babies)
}

// OnboardingStatus reports which onboarding records are still missing.
func (h *ProfileHandler) OnboardingStatus(c *gin.Context) {
	status, err := h.profileService.OnboardingStatus(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

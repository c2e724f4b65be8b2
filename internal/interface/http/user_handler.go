package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"travelog/internal/application"
	"travelog/internal/interface/middleware"
	"travelog/pkg/response"
	"travelog/pkg/validation"
)

type UserHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.AuthService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name        string            `json:"name"`
	Gender      string            `json:"gender" binding:"omitempty,oneof=Male Female N/A"`
	Language    string            `json:"language"`
	Country     string            `json:"country"`
	City        string            `json:"city"`
	DOB         string            `json:"dob"`
	Phone       string            `json:"phone" binding:"omitempty,phone"`
	SocialLinks map[string]string `json:"socialLinks"`
	AvatarURL   string            `json:"avatarUrl" binding:"omitempty,url"`
	CoverURL    string            `json:"coverUrl" binding:"omitempty,url"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

// Profile GET /api/user/profile
func (h *UserHandler) Profile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// Update PUT /api/user/update
func (h *UserHandler) Update(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := application.UpdateProfileInput{
		Name:        req.Name,
		Gender:      req.Gender,
		Language:    req.Language,
		Country:     req.Country,
		City:        req.City,
		Phone:       req.Phone,
		SocialLinks: req.SocialLinks,
		AvatarURL:   req.AvatarURL,
		CoverURL:    req.CoverURL,
	}
	if req.DOB != "" {
		dob, err := validation.ParseDate(req.DOB)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"dob": "must be a valid date"})
			return
		}
		in.DOB = &dob
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, in)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.Sanitized(), "profile updated", nil)
}

// ChangePassword PUT /api/user/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed", nil)
}

// PublicProfile GET /api/user/public/:username
func (h *UserHandler) PublicProfile(c *gin.Context) {
	username := c.Param("username")
	u, err := h.Svc.GetPublicProfile(c.Request.Context(), username)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "public profile", nil)
}

// Delete DELETE /api/user
func (h *UserHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.DeleteAccount(c.Request.Context(), uid); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deleted", nil)
}

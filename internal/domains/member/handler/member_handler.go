package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"jamin-backend/internal/domains/member/model"
	"jamin-backend/internal/domains/member/service"
	"jamin-backend/internal/shared/middleware"
	"jamin-backend/internal/shared/response"
	"jamin-backend/pkg/logger"
)

// MemberHandler xử lý HTTP requests cho member domain
type MemberHandler struct {
	service service.MemberService
}

func NewMemberHandler(service service.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register xử lý POST /auth/register
func (h *MemberHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	dto, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/members/"+dto.ID.String())
	response.Success(c, http.StatusCreated, "Member registered successfully", dto)
}

// Login xử lý POST /auth/login
func (h *MemberHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	loginResp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Refresh token đi qua httpOnly cookie, không qua body
	c.SetCookie("refresh_token", loginResp.RefreshToken, 7*24*3600, "/", "", true, true)
	loginResp.RefreshToken = ""

	response.Success(c, http.StatusOK, "Logged in", loginResp)
}

// RefreshToken xử lý POST /auth/refresh
func (h *MemberHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		response.Unauthorized(c, "missing refresh token")
		return
	}

	newLoginResp, err := h.service.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.SetCookie("refresh_token", newLoginResp.RefreshToken, 7*24*3600, "/", "", true, true)
	newLoginResp.RefreshToken = ""

	response.Success(c, http.StatusOK, "Token refreshed", newLoginResp)
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetMe xử lý GET /members/me
func (h *MemberHandler) GetMe(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), memberID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", dto)
}

// GetByID xử lý GET /members/:id (public profile)
func (h *MemberHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", dto)
}

// UpdateMe xử lý PUT /members/me
func (h *MemberHandler) UpdateMe(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	dto, err := h.service.UpdateProfile(c.Request.Context(), memberID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile updated", dto)
}

// UploadAvatar xử lý POST /members/me/avatar (multipart)
func (h *MemberHandler) UploadAvatar(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, "avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "cannot read avatar file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "cannot read avatar file")
		return
	}

	dto, err := h.service.UploadAvatar(c.Request.Context(), memberID, data)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Avatar updated", dto)
}

// handleError maps domain errors sang HTTP status codes
func (h *MemberHandler) handleError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", fieldErrors(validationErrs))
		return
	}

	switch {
	case errors.Is(err, model.ErrMemberNotFound):
		response.NotFound(c, "member not found")
	case errors.Is(err, model.ErrDuplicateEmail):
		response.Conflict(c, "email already registered")
	case errors.Is(err, model.ErrInvalidCredentials):
		response.Unauthorized(c, "invalid email or password")
	case errors.Is(err, model.ErrInvalidAvatar):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("Unexpected member error", err)
		response.InternalServerError(c, "something went wrong")
	}
}

// fieldErrors converts ozzo validation.Errors to a field -> messages map
func fieldErrors(errs validation.Errors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for field, err := range errs {
		out[field] = append(out[field], err.Error())
	}
	return out
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"jamin-backend/internal/domains/theme/model"
	"jamin-backend/internal/domains/theme/service"
	"jamin-backend/internal/infrastructure/storage"
	"jamin-backend/internal/shared/middleware"
	"jamin-backend/internal/shared/response"
)

// ThemeHandler xử lý HTTP requests cho theme/layer domain
type ThemeHandler struct {
	service service.ThemeService
}

func NewThemeHandler(service service.ThemeService) *ThemeHandler {
	return &ThemeHandler{service: service}
}

// ========================================
// CREATION ENDPOINTS
// ========================================

// CreateTheme xử lý POST /themes (multipart form + recording)
func (h *ThemeHandler) CreateTheme(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req model.CreateThemeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid form payload")
		return
	}

	result, err := h.service.CreateTheme(c.Request.Context(), memberID, req, recordingPayload(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	renderCreateResult(c, result)
}

// CreateLayer xử lý POST /themes/:id/layers
func (h *ThemeHandler) CreateLayer(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req model.CreateLayerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid form payload")
		return
	}
	// Parent comes from the route, form field chỉ là fallback
	if id := c.Param("id"); id != "" {
		req.ParentID = id
	}

	result, err := h.service.CreateLayer(c.Request.Context(), memberID, req, recordingPayload(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	renderCreateResult(c, result)
}

// ========================================
// READ / UPDATE / DELETE ENDPOINTS
// ========================================

// Get xử lý GET /themes/:id
func (h *ThemeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid theme id")
		return
	}

	theme, err := h.service.GetTheme(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", theme)
}

// List xử lý GET /themes (original themes only)
func (h *ThemeHandler) List(c *gin.Context) {
	filter := model.ThemeFilter{
		Genre:  c.Query("genre"),
		Search: c.Query("search"),
		Status: c.Query("status"),
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	themes, total, err := h.service.ListThemes(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, themes, &response.Meta{
		Page:  page,
		Limit: filter.Limit,
		Total: total,
	})
}

// Update xử lý PATCH /themes/:id
func (h *ThemeHandler) Update(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid theme id")
		return
	}

	var req model.UpdateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	theme, err := h.service.UpdateTheme(c.Request.Context(), memberID, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Theme updated", theme)
}

// Delete xử lý DELETE /themes/:id
func (h *ThemeHandler) Delete(c *gin.Context) {
	memberID, ok := middleware.MemberIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid theme id")
		return
	}

	if err := h.service.DeleteTheme(c.Request.Context(), memberID, id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Theme deleted", nil)
}

// ========================================
// HELPERS
// ========================================

// recordingPayload picks the media variant from the request. Browser clients
// send a multipart file part, recorder widgets send a base64 data URL field.
// A request with neither yields a nil payload the service treats as missing.
func recordingPayload(c *gin.Context) storage.MediaPayload {
	if fh, err := c.FormFile("recording"); err == nil && fh != nil {
		return storage.MultipartPayload{FileHeader: fh}
	}
	if dataURL := c.PostForm("recording_data"); dataURL != "" {
		return storage.DataURLPayload{
			Name: c.PostForm("recording_name"),
			URL:  dataURL,
		}
	}
	return nil
}

func renderCreateResult(c *gin.Context, result *model.CreateResult) {
	if !result.Success {
		message := result.Message
		if message == "" {
			message = "validation failed"
		}
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, result.FieldErrors)
		return
	}

	c.Header("Location", "/api/v1/themes/"+result.Theme.ID.String())
	response.Success(c, http.StatusCreated, "Created", result)
}

func (h *ThemeHandler) handleError(c *gin.Context, err error) {
	var ve validation.Errors
	if errors.As(err, &ve) {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", fieldErrors(ve))
		return
	}

	switch {
	case errors.Is(err, model.ErrThemeNotFound):
		response.NotFound(c, "theme not found")
	case errors.Is(err, model.ErrParentNotFound):
		response.NotFound(c, "parent theme not found")
	case errors.Is(err, model.ErrNotOwner):
		response.Forbidden(c, "you do not own this theme")
	default:
		response.InternalServerError(c, "something went wrong")
	}
}

func fieldErrors(ve validation.Errors) map[string][]string {
	fields := make(map[string][]string, len(ve))
	for field, err := range ve {
		fields[field] = append(fields[field], err.Error())
	}
	return fields
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jamin-backend/internal/domains/collaboration/model"
	"jamin-backend/internal/domains/collaboration/service"
	"jamin-backend/internal/shared/response"
	"jamin-backend/pkg/logger"
)

// CollaborationHandler xử lý HTTP requests cho collaboration timeline
type CollaborationHandler struct {
	service service.CollaborationService
}

func NewCollaborationHandler(service service.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{service: service}
}

// List xử lý GET /collaborations
func (h *CollaborationHandler) List(c *gin.Context) {
	snapshots, err := h.service.FetchAll(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, snapshots, &response.Meta{
		Total: int64(len(snapshots)),
	})
}

// Get xử lý GET /collaborations/:id
func (h *CollaborationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid collaboration id")
		return
	}

	snapshot, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", snapshot)
}

// ByTheme xử lý GET /themes/:id/collaborations
func (h *CollaborationHandler) ByTheme(c *gin.Context) {
	themeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid theme id")
		return
	}

	snapshots, err := h.service.GetByTheme(c.Request.Context(), themeID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, snapshots, &response.Meta{
		Total: int64(len(snapshots)),
	})
}

// Export xử lý GET /admin/collaborations/export (xlsx download)
func (h *CollaborationHandler) Export(c *gin.Context) {
	f, err := h.service.ExportToExcel(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("collaborations-%s.xlsx", time.Now().Format("20060102-150405"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := f.Write(c.Writer); err != nil {
		logger.Error("Failed to stream excel export", err)
	}
}

func (h *CollaborationHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrCollaborationNotFound) {
		response.NotFound(c, "collaboration not found")
		return
	}
	logger.Error("Collaboration request failed", err)
	response.InternalServerError(c, "something went wrong")
}

package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"jamin-backend/internal/domains/theme/repository"
	"jamin-backend/pkg/logger"
)

// ================================================
// CLEANUP PENDING UPLOADS JOB HANDLER
// ================================================

// Markers older than this have no owning theme row coming; insert hoặc là
// đã thành công (marker deleted) hoặc đã thất bại từ lâu.
const staleUploadAge = 1 * time.Hour

// ObjectRemover xoá orphaned objects khỏi storage
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

type CleanupPendingUploadsHandler struct {
	repo  repository.ThemeRepository
	store ObjectRemover
}

func NewCleanupPendingUploadsHandler(repo repository.ThemeRepository, store ObjectRemover) *CleanupPendingUploadsHandler {
	return &CleanupPendingUploadsHandler{
		repo:  repo,
		store: store,
	}
}

func (h *CleanupPendingUploadsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logger.Info("Starting CleanupPendingUploads job", nil)

	stale, err := h.repo.ListStalePendingUploads(ctx, staleUploadAge)
	if err != nil {
		return fmt.Errorf("list stale pending uploads: %w", err)
	}

	reclaimed := 0
	released := 0
	for _, marker := range stale {
		// Marker có thể sống sót sau một insert thành công nếu bước xoá
		// marker thất bại; object khi đó thuộc về một theme row và không
		// được đụng tới.
		inUse, err := h.repo.RecordingInUse(ctx, marker.StorageKey)
		if err != nil {
			logger.Warn("Failed to check marker ownership, skipping", map[string]interface{}{
				"key":   marker.StorageKey,
				"error": err.Error(),
			})
			continue
		}
		if inUse {
			if err := h.repo.DeletePendingUpload(ctx, marker.ID); err != nil {
				logger.Warn("Failed to release stale marker", map[string]interface{}{
					"marker_id": marker.ID.String(),
					"error":     err.Error(),
				})
				continue
			}
			released++
			continue
		}

		if err := h.store.Delete(ctx, marker.StorageKey); err != nil {
			logger.Warn("Failed to delete orphaned object", map[string]interface{}{
				"key":   marker.StorageKey,
				"error": err.Error(),
			})
			continue
		}
		if err := h.repo.DeletePendingUpload(ctx, marker.ID); err != nil {
			logger.Warn("Failed to delete pending upload marker", map[string]interface{}{
				"marker_id": marker.ID.String(),
				"error":     err.Error(),
			})
			continue
		}
		reclaimed++
	}

	logger.Info("Completed CleanupPendingUploads job", map[string]interface{}{
		"stale_markers": len(stale),
		"reclaimed":     reclaimed,
		"released":      released,
	})
	return nil
}

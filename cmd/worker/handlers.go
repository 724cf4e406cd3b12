package main

import (
	"github.com/hibiken/asynq"

	themeJob "jamin-backend/internal/domains/theme/job"
	"jamin-backend/internal/shared"
	"jamin-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	mixLayer              *themeJob.MixLayerHandler
	cleanupPendingUploads *themeJob.CleanupPendingUploadsHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		mixLayer:              themeJob.NewMixLayerHandler(c.Mixer, c.ThemeRepo, c.Cache),
		cleanupPendingUploads: themeJob.NewCleanupPendingUploadsHandler(c.ThemeRepo, c.Storage),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeMixLayer, h.mixLayer.ProcessTask)
	mux.HandleFunc(shared.TypeCleanupPendingUpload, h.cleanupPendingUploads.ProcessTask)
}

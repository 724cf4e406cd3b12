package service

import (
	"context"

	"github.com/google/uuid"

	"jamin-backend/internal/domains/theme/model"
	"jamin-backend/internal/infrastructure/storage"
)

// ThemeService định nghĩa business logic cho theme/layer domain
type ThemeService interface {
	// CreateTheme persists an original theme from a form submission.
	// Validation and upload failures come back inside the CreateResult;
	// infrastructure failures come back as errors.
	CreateTheme(ctx context.Context, memberID uuid.UUID, req model.CreateThemeRequest, media storage.MediaPayload) (*model.CreateResult, error)

	// CreateLayer persists a layer into the collaboration rooted at the
	// request's parent theme. On success the result carries the parent
	// theme id so the caller can navigate back to the right view.
	CreateLayer(ctx context.Context, memberID uuid.UUID, req model.CreateLayerRequest, media storage.MediaPayload) (*model.CreateResult, error)

	GetTheme(ctx context.Context, id uuid.UUID) (*model.Theme, error)
	ListThemes(ctx context.Context, filter model.ThemeFilter) ([]model.Theme, int64, error)
	UpdateTheme(ctx context.Context, memberID, id uuid.UUID, req model.UpdateThemeRequest) (*model.Theme, error)
	DeleteTheme(ctx context.Context, memberID, id uuid.UUID) error
}

// RecordingStore is the slice of object storage the theme service needs
type RecordingStore interface {
	UploadWithRetry(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// TaskEnqueuer hands background work (mixing) to the worker
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}, queue string) error
}

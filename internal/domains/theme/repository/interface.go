package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jamin-backend/internal/domains/theme/model"
)

// ThemeRepository định nghĩa data access cho themes và layers
type ThemeRepository interface {
	Create(ctx context.Context, t *model.Theme) (*model.Theme, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Theme, error)
	List(ctx context.Context, filter model.ThemeFilter) ([]model.Theme, int64, error)
	Update(ctx context.Context, t *model.Theme) (*model.Theme, error)

	// Delete removes a theme. For originals the layers of the collaboration
	// go with it, so no orphaned layer rows survive.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkComplete promotes an original to complete (layer creation implies it)
	MarkComplete(ctx context.Context, id uuid.UUID) error

	// SetMixURL stores the pre-mixed track produced by the worker
	SetMixURL(ctx context.Context, id uuid.UUID, mixURL string) error

	// Pending upload markers (compensating-action pattern)
	CreatePendingUpload(ctx context.Context, storageKey string) (uuid.UUID, error)
	DeletePendingUpload(ctx context.Context, id uuid.UUID) error
	ListStalePendingUploads(ctx context.Context, olderThan time.Duration) ([]model.PendingUpload, error)

	// RecordingInUse báo storage key đã thuộc về một committed theme row.
	// A stale marker for such a key is leftover bookkeeping, not an orphan.
	RecordingInUse(ctx context.Context, storageKey string) (bool, error)
}

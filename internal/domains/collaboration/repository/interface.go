package repository

import (
	"context"

	"github.com/google/uuid"

	"jamin-backend/internal/domains/collaboration/model"
)

// CollaborationRepository đọc flat layer rows cho aggregation layer.
// Chỉ có reads: snapshots là derived data, không bao giờ persist.
type CollaborationRepository interface {
	// ListLayerRows returns every layer joined to its parent theme and
	// both creator member rows.
	ListLayerRows(ctx context.Context) ([]model.LayerRow, error)

	// ListLayerRowsForTheme returns only the layers of one collaboration.
	ListLayerRowsForTheme(ctx context.Context, themeID uuid.UUID) ([]model.LayerRow, error)

	// ListLayerRowsForSnapshot returns the layers of the collaboration
	// containing the given layer. The filter runs in SQL so a single
	// snapshot lookup never aggregates unrelated collaborations.
	ListLayerRowsForSnapshot(ctx context.Context, layerID uuid.UUID) ([]model.LayerRow, error)
}

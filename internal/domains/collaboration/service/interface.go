package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"jamin-backend/internal/domains/collaboration/model"
)

// CollaborationService expose timeline của collaboration snapshots
type CollaborationService interface {
	// FetchAll returns every snapshot across all collaborations, newest
	// first.
	FetchAll(ctx context.Context) ([]model.Snapshot, error)

	// GetByID returns the single snapshot identified by a layer id.
	GetByID(ctx context.Context, snapshotID uuid.UUID) (*model.Snapshot, error)

	// GetByTheme returns the snapshot timeline of one collaboration.
	GetByTheme(ctx context.Context, themeID uuid.UUID) ([]model.Snapshot, error)

	// ExportToExcel builds an xlsx report over all snapshots (admin)
	ExportToExcel(ctx context.Context) (*excelize.File, error)
}

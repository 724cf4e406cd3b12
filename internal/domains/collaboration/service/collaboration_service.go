package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"jamin-backend/internal/domains/collaboration/model"
	"jamin-backend/internal/domains/collaboration/repository"
	"jamin-backend/internal/shared"
	"jamin-backend/pkg/cache"
	"jamin-backend/pkg/logger"
)

const snapshotCacheTTL = 5 * time.Minute

type collaborationService struct {
	repo  repository.CollaborationRepository
	cache cache.Cache
}

func NewCollaborationService(repo repository.CollaborationRepository, cacheLayer cache.Cache) CollaborationService {
	return &collaborationService{
		repo:  repo,
		cache: cacheLayer,
	}
}

func (s *collaborationService) FetchAll(ctx context.Context) ([]model.Snapshot, error) {
	var cached []model.Snapshot
	if found, err := s.cache.Get(ctx, shared.CollabListCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	rows, err := s.repo.ListLayerRows(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := model.BuildSnapshots(rows)

	if err := s.cache.Set(ctx, shared.CollabListCacheKey, snapshots, snapshotCacheTTL); err != nil {
		logger.Warn("Failed to cache collaboration snapshots", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return snapshots, nil
}

// GetByID filters down to the containing collaboration in SQL before
// aggregating, nên một lookup không bao giờ build snapshots của các
// collaboration khác.
func (s *collaborationService) GetByID(ctx context.Context, snapshotID uuid.UUID) (*model.Snapshot, error) {
	rows, err := s.repo.ListLayerRowsForSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	for _, snap := range model.BuildSnapshots(rows) {
		if snap.ID == snapshotID {
			return &snap, nil
		}
	}

	return nil, model.ErrCollaborationNotFound
}

func (s *collaborationService) GetByTheme(ctx context.Context, themeID uuid.UUID) ([]model.Snapshot, error) {
	cacheKey := shared.CollabCacheKeyPrefix + themeID.String()

	var cached []model.Snapshot
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	rows, err := s.repo.ListLayerRowsForTheme(ctx, themeID)
	if err != nil {
		return nil, err
	}

	snapshots := model.BuildSnapshots(rows)

	if err := s.cache.Set(ctx, cacheKey, snapshots, snapshotCacheTTL); err != nil {
		logger.Warn("Failed to cache collaboration snapshots", map[string]interface{}{
			"theme_id": themeID.String(),
			"error":    err.Error(),
		})
	}

	return snapshots, nil
}

func (s *collaborationService) ExportToExcel(ctx context.Context) (*excelize.File, error) {
	snapshots, err := s.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}

	f := excelize.NewFile()

	sheetName := "Collaborations"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{
		"Snapshot ID",
		"Theme",
		"Genre",
		"Latest Layer",
		"Instrument",
		"Layer Count",
		"Participants",
		"Recording URL",
		"Mix URL",
		"Created At",
	}

	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", "J1", headerStyle)
	}

	for i, snap := range snapshots {
		rowNum := i + 2

		rowStr := func(col int) string {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			return cell
		}

		names := make([]string, 0, len(snap.Participants))
		for _, p := range snap.Participants {
			names = append(names, p.DisplayName)
		}

		f.SetCellValue(sheetName, rowStr(1), snap.ID.String())
		f.SetCellValue(sheetName, rowStr(2), snap.ThemeTitle)
		f.SetCellValue(sheetName, rowStr(3), deref(snap.Genre))
		f.SetCellValue(sheetName, rowStr(4), snap.Title)
		f.SetCellValue(sheetName, rowStr(5), deref(snap.Instrument))
		f.SetCellValue(sheetName, rowStr(6), len(snap.Layers))
		f.SetCellValue(sheetName, rowStr(7), strings.Join(names, ", "))
		f.SetCellValue(sheetName, rowStr(8), snap.RecordingURL)
		f.SetCellValue(sheetName, rowStr(9), deref(snap.MixURL))
		f.SetCellValue(sheetName, rowStr(10), snap.CreatedAt.Format(time.RFC3339))
	}

	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

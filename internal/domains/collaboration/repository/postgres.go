package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jamin-backend/internal/domains/collaboration/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) CollaborationRepository {
	return &postgresRepository{pool: pool}
}

// layerRowQuery joins mỗi layer với parent theme và cả hai member rows.
// Ordering ở đây chỉ là courtesy; aggregation tự sort lại per group.
const layerRowQuery = `
    SELECT
        l.id, l.title, l.instrument, l.recording_url, l.mix_url, l.created_at,
        lm.id, lm.display_name, lm.avatar_url,
        p.id, p.title, p.genre, p.recording_url, p.created_at,
        pm.id, pm.display_name, pm.avatar_url
    FROM themes l
    JOIN themes p ON l.parent_id = p.id
    JOIN members lm ON l.member_id = lm.id
    JOIN members pm ON p.member_id = pm.id`

func scanLayerRows(rows pgx.Rows) ([]model.LayerRow, error) {
	defer rows.Close()

	var result []model.LayerRow
	for rows.Next() {
		var r model.LayerRow
		err := rows.Scan(
			&r.LayerID,
			&r.Title,
			&r.Instrument,
			&r.RecordingURL,
			&r.MixURL,
			&r.CreatedAt,
			&r.MemberID,
			&r.MemberName,
			&r.MemberAvatar,
			&r.ParentID,
			&r.ParentTitle,
			&r.ParentGenre,
			&r.ParentRecordingURL,
			&r.ParentCreatedAt,
			&r.ParentMemberID,
			&r.ParentMemberName,
			&r.ParentMemberAvatar,
		)
		if err != nil {
			return nil, fmt.Errorf("scan layer row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layer rows: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) ListLayerRows(ctx context.Context) ([]model.LayerRow, error) {
	rows, err := r.pool.Query(ctx, layerRowQuery+` ORDER BY p.id, l.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query layer rows: %w", err)
	}
	return scanLayerRows(rows)
}

func (r *postgresRepository) ListLayerRowsForTheme(ctx context.Context, themeID uuid.UUID) ([]model.LayerRow, error) {
	rows, err := r.pool.Query(ctx, layerRowQuery+` WHERE l.parent_id = $1 ORDER BY l.created_at ASC`, themeID)
	if err != nil {
		return nil, fmt.Errorf("query layer rows for theme: %w", err)
	}
	return scanLayerRows(rows)
}

func (r *postgresRepository) ListLayerRowsForSnapshot(ctx context.Context, layerID uuid.UUID) ([]model.LayerRow, error) {
	// Resolve parent trong cùng một statement, không cần round trip riêng
	rows, err := r.pool.Query(ctx, layerRowQuery+`
    WHERE l.parent_id = (SELECT parent_id FROM themes WHERE id = $1)
    ORDER BY l.created_at ASC`, layerID)
	if err != nil {
		return nil, fmt.Errorf("query layer rows for snapshot: %w", err)
	}
	return scanLayerRows(rows)
}

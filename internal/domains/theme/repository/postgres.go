package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"jamin-backend/internal/domains/theme/model"
	"jamin-backend/pkg/cache"
)

// postgresRepository implements ThemeRepository
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) ThemeRepository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

// Cache key constants
const (
	themeCacheKeyPrefix = "theme:"
	themeListKeyPrefix  = "themes:list:"
	cacheTTL            = 15 * time.Minute
)

const themeColumns = `id, member_id, parent_id, title, description, genre, key, mode, chords, scale, tempo, duration, recording_url, mix_url, instrument, status, created_at, updated_at`

func scanTheme(row pgx.Row) (*model.Theme, error) {
	var t model.Theme
	err := row.Scan(
		&t.ID,
		&t.MemberID,
		&t.ParentID,
		&t.Title,
		&t.Description,
		&t.Genre,
		&t.Key,
		&t.Mode,
		pq.Array(&t.Chords),
		&t.Scale,
		&t.Tempo,
		&t.Duration,
		&t.RecordingURL,
		&t.MixURL,
		&t.Instrument,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts one theme/layer row.
// Status is fixed by the caller: complete cho layers, in progress cho
// fresh originals.
func (r *postgresRepository) Create(ctx context.Context, t *model.Theme) (*model.Theme, error) {
	query := `
        INSERT INTO themes (member_id, parent_id, title, description, genre, key, mode, chords, scale, tempo, duration, recording_url, instrument, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING ` + themeColumns

	created, err := scanTheme(r.pool.QueryRow(
		ctx,
		query,
		t.MemberID,
		t.ParentID,
		t.Title,
		t.Description,
		t.Genre,
		t.Key,
		t.Mode,
		pq.Array(t.Chords),
		t.Scale,
		t.Tempo,
		t.Duration,
		t.RecordingURL,
		t.Instrument,
		t.Status,
	))

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23503" { // foreign_key_violation
				if strings.Contains(pgErr.Message, "parent_id") {
					return nil, model.ErrParentNotFound
				}
			}
		}
		return nil, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	r.invalidateListCache(ctx)
	if created.ParentID != nil {
		r.cache.Delete(ctx, themeCacheKeyPrefix+created.ParentID.String())
	}

	return created, nil
}

// GetByID retrieves a theme/layer with caching
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Theme, error) {
	cacheKey := themeCacheKeyPrefix + id.String()

	var cachedTheme model.Theme
	cached, err := r.cache.Get(ctx, cacheKey, &cachedTheme)
	if err == nil && cached {
		// Cache hit
		return &cachedTheme, nil
	}

	query := `SELECT ` + themeColumns + ` FROM themes WHERE id = $1`

	t, err := scanTheme(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrThemeNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	r.cache.Set(ctx, cacheKey, t, cacheTTL)

	return t, nil
}

// List retrieves paginated originals with filtering and sorting.
// Layers không xuất hiện trong listing - chúng thuộc collaboration views.
func (r *postgresRepository) List(ctx context.Context, filter model.ThemeFilter) ([]model.Theme, int64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + themeColumns + ` FROM themes WHERE parent_id IS NULL`)

	args := []interface{}{}
	argPos := 1

	if filter.Genre != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND genre = $%d", argPos))
		args = append(args, filter.Genre)
		argPos++
	}

	if filter.Status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND title ILIKE $%d", argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	sortColumn := "created_at" // default
	switch filter.SortBy {
	case "title":
		sortColumn = "title"
	case "updated_at":
		sortColumn = "updated_at"
	case "tempo":
		sortColumn = "tempo"
	}

	sortOrder := "DESC" // default
	if filter.Order == "asc" {
		sortOrder = "ASC"
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s", sortColumn, sortOrder))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}
	defer rows.Close()

	var themes []model.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating themes: %w", err)
	}

	// Total count for pagination
	countQuery := `SELECT COUNT(*) FROM themes WHERE parent_id IS NULL`
	countArgs := []interface{}{}
	countPos := 1

	if filter.Genre != "" {
		countQuery += fmt.Sprintf(" AND genre = $%d", countPos)
		countArgs = append(countArgs, filter.Genre)
		countPos++
	}
	if filter.Status != "" {
		countQuery += fmt.Sprintf(" AND status = $%d", countPos)
		countArgs = append(countArgs, filter.Status)
		countPos++
	}
	if filter.Search != "" {
		countQuery += fmt.Sprintf(" AND title ILIKE $%d", countPos)
		countArgs = append(countArgs, "%"+filter.Search+"%")
	}

	var total int64
	err = r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count themes: %w", err)
	}

	return themes, total, nil
}

// Update updates mutable metadata fields
func (r *postgresRepository) Update(ctx context.Context, t *model.Theme) (*model.Theme, error) {
	query := `
        UPDATE themes
        SET
            title = $1,
            description = $2,
            genre = $3,
            key = $4,
            mode = $5,
            chords = $6,
            scale = $7,
            tempo = $8,
            instrument = $9,
            status = $10,
            updated_at = NOW()
        WHERE id = $11
        RETURNING ` + themeColumns

	updated, err := scanTheme(r.pool.QueryRow(
		ctx,
		query,
		t.Title,
		t.Description,
		t.Genre,
		t.Key,
		t.Mode,
		pq.Array(t.Chords),
		t.Scale,
		t.Tempo,
		t.Instrument,
		t.Status,
		t.ID,
	))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrThemeNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	r.invalidateThemeCache(ctx, t.ID)

	return updated, nil
}

// Delete removes a theme and, for originals, every layer of its
// collaboration in one statement. Storage cleanup is the service's job.
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM themes WHERE id = $1 OR parent_id = $1`

	cmdTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return model.ErrThemeNotFound
	}

	r.invalidateThemeCache(ctx, id)

	return nil
}

// MarkComplete promotes an original once its first layer lands
func (r *postgresRepository) MarkComplete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE themes SET status = $1, updated_at = NOW() WHERE id = $2`

	if _, err := r.pool.Exec(ctx, query, model.StatusComplete, id); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	r.invalidateThemeCache(ctx, id)

	return nil
}

// SetMixURL stores the worker-produced mix
func (r *postgresRepository) SetMixURL(ctx context.Context, id uuid.UUID, mixURL string) error {
	query := `UPDATE themes SET mix_url = $1, updated_at = NOW() WHERE id = $2`

	cmdTag, err := r.pool.Exec(ctx, query, mixURL, id)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrThemeNotFound
	}

	r.invalidateThemeCache(ctx, id)

	return nil
}

// ========================================
// PENDING UPLOAD MARKERS
// ========================================

func (r *postgresRepository) CreatePendingUpload(ctx context.Context, storageKey string) (uuid.UUID, error) {
	query := `INSERT INTO pending_uploads (storage_key) VALUES ($1) RETURNING id`

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, query, storageKey).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	return id, nil
}

func (r *postgresRepository) DeletePendingUpload(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM pending_uploads WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	return nil
}

func (r *postgresRepository) ListStalePendingUploads(ctx context.Context, olderThan time.Duration) ([]model.PendingUpload, error) {
	query := `
        SELECT id, storage_key, created_at
        FROM pending_uploads
        WHERE created_at < NOW() - $1::interval
    `

	rows, err := r.pool.Query(ctx, query, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}
	defer rows.Close()

	var uploads []model.PendingUpload
	for rows.Next() {
		var u model.PendingUpload
		if err := rows.Scan(&u.ID, &u.StorageKey, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending upload: %w", err)
		}
		uploads = append(uploads, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending uploads: %w", err)
	}

	return uploads, nil
}

func (r *postgresRepository) RecordingInUse(ctx context.Context, storageKey string) (bool, error) {
	// recording_url lưu full URL, marker chỉ giữ object key -> suffix match.
	// strpos thay vì LIKE: keys chứa "_" từ sanitized filenames.
	query := `SELECT EXISTS (SELECT 1 FROM themes WHERE strpos(recording_url, $1) > 0)`

	var inUse bool
	if err := r.pool.QueryRow(ctx, query, storageKey).Scan(&inUse); err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrDatabase, err)
	}

	return inUse, nil
}

// Cache helper methods

func (r *postgresRepository) invalidateThemeCache(ctx context.Context, id uuid.UUID) {
	r.cache.Delete(ctx, themeCacheKeyPrefix+id.String())
	r.invalidateListCache(ctx)
}

func (r *postgresRepository) invalidateListCache(ctx context.Context) {
	r.cache.DeletePattern(ctx, themeListKeyPrefix+"*")
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jamin-backend/internal/domains/member/model"
	"jamin-backend/pkg/cache"
)

// postgresRepository implements MemberRepository
// Uses pgxpool for PostgreSQL and Redis for caching
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) MemberRepository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

// Cache key constants
const (
	memberCacheKeyPrefix = "member:"
	cacheTTL             = 15 * time.Minute
)

const memberColumns = `id, display_name, email, password_hash, avatar_url, first_name, last_name, country, instrument, role, created_at, updated_at`

func scanMember(row pgx.Row) (*model.Member, error) {
	var m model.Member
	err := row.Scan(
		&m.ID,
		&m.DisplayName,
		&m.Email,
		&m.PasswordHash,
		&m.AvatarURL,
		&m.FirstName,
		&m.LastName,
		&m.Country,
		&m.Instrument,
		&m.Role,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new member row
func (r *postgresRepository) Create(ctx context.Context, m *model.Member) (*model.Member, error) {
	query := `
        INSERT INTO members (display_name, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + memberColumns

	created, err := scanMember(r.pool.QueryRow(
		ctx,
		query,
		m.DisplayName,
		m.Email,
		m.PasswordHash,
		m.Role,
	))

	if err != nil {
		// Check for unique constraint violation on email
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				if strings.Contains(pgErr.Message, "email") {
					return nil, model.ErrDuplicateEmail
				}
			}
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return created, nil
}

// GetByID retrieves member by UUID with caching
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	cacheKey := memberCacheKeyPrefix + id.String()

	var m model.Member
	cached, err := r.cache.Get(ctx, cacheKey, &m)
	if err == nil && cached {
		// Cache hit
		return &m, nil
	}

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	member, err := scanMember(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by id: %w", err)
	}

	// Store in cache for next time
	if data, err := json.Marshal(member); err == nil {
		r.cache.Set(ctx, cacheKey, string(data), cacheTTL)
	}

	return member, nil
}

// GetByEmail retrieves member by email (login path - no caching)
func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = $1`

	member, err := scanMember(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}

	return member, nil
}

// UpdateProfile updates mutable profile fields
func (r *postgresRepository) UpdateProfile(ctx context.Context, m *model.Member) (*model.Member, error) {
	query := `
        UPDATE members
        SET
            display_name = $1,
            first_name = $2,
            last_name = $3,
            country = $4,
            instrument = $5,
            updated_at = NOW()
        WHERE id = $6
        RETURNING ` + memberColumns

	updated, err := scanMember(r.pool.QueryRow(
		ctx,
		query,
		m.DisplayName,
		m.FirstName,
		m.LastName,
		m.Country,
		m.Instrument,
		m.ID,
	))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	r.cache.Delete(ctx, memberCacheKeyPrefix+m.ID.String())

	return updated, nil
}

// UpdateAvatar sets the avatar URL after a successful upload
func (r *postgresRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	query := `UPDATE members SET avatar_url = $1, updated_at = NOW() WHERE id = $2`

	cmdTag, err := r.pool.Exec(ctx, query, avatarURL, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return model.ErrMemberNotFound
	}

	r.cache.Delete(ctx, memberCacheKeyPrefix+id.String())

	return nil
}

// ExistsByEmail checks if email is taken (lightweight query)
func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM members WHERE email = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

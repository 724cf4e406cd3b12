package repository

import (
	"context"

	"github.com/google/uuid"

	"jamin-backend/internal/domains/member/model"
)

// MemberRepository định nghĩa data access cho members
type MemberRepository interface {
	Create(ctx context.Context, m *model.Member) (*model.Member, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	GetByEmail(ctx context.Context, email string) (*model.Member, error)
	UpdateProfile(ctx context.Context, m *model.Member) (*model.Member, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

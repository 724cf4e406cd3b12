package service

import (
	"context"

	"github.com/google/uuid"

	"jamin-backend/internal/domains/member/model"
)

// MemberService định nghĩa business logic cho member domain
type MemberService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.MemberDTO, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.LoginResponse, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*model.MemberDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (*model.MemberDTO, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, data []byte) (*model.MemberDTO, error)
}

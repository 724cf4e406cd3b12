package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"jamin-backend/internal/domains/member/model"
	"jamin-backend/internal/domains/member/repository"
	"jamin-backend/internal/infrastructure/storage"
	"jamin-backend/pkg/jwt"
	"jamin-backend/pkg/logger"
)

type memberService struct {
	repo            repository.MemberRepository
	jwtManager      *jwt.Manager
	storage         *storage.MinIOStorage
	avatarProcessor *storage.AvatarProcessor
}

func NewMemberService(
	repo repository.MemberRepository,
	jwtManager *jwt.Manager,
	store *storage.MinIOStorage,
	avatarProcessor *storage.AvatarProcessor,
) MemberService {
	return &memberService{
		repo:            repo,
		jwtManager:      jwtManager,
		storage:         store,
		avatarProcessor: avatarProcessor,
	}
}

// Register tạo member mới với bcrypt-hashed password
func (s *memberService) Register(ctx context.Context, req model.RegisterRequest) (*model.MemberDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &model.Member{
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         "member",
	}

	created, err := s.repo.Create(ctx, member)
	if err != nil {
		return nil, err
	}

	logger.Info("Member registered", map[string]interface{}{
		"member_id": created.ID.String(),
	})

	dto := created.ToDTO()
	return &dto, nil
}

// Login verifies credentials and issues JWT tokens
func (s *memberService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	member, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		// Không phân biệt "not found" và "wrong password" trong response
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.issueTokens(member)
}

// RefreshToken validates a refresh token and issues a new token pair
func (s *memberService) RefreshToken(ctx context.Context, refreshToken string) (*model.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	memberID, err := uuid.Parse(claims.MemberID)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	member, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(member)
}

func (s *memberService) issueTokens(member *model.Member) (*model.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(member.ID.String(), member.Email, member.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(member.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		Member:       member.ToDTO(),
	}, nil
}

func (s *memberService) GetProfile(ctx context.Context, id uuid.UUID) (*model.MemberDTO, error) {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := member.ToDTO()
	return &dto, nil
}

func (s *memberService) UpdateProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (*model.MemberDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		member.DisplayName = *req.DisplayName
	}
	if req.FirstName != nil {
		member.FirstName = req.FirstName
	}
	if req.LastName != nil {
		member.LastName = req.LastName
	}
	if req.Country != nil {
		member.Country = req.Country
	}
	if req.Instrument != nil {
		member.Instrument = req.Instrument
	}

	updated, err := s.repo.UpdateProfile(ctx, member)
	if err != nil {
		return nil, err
	}

	dto := updated.ToDTO()
	return &dto, nil
}

// UploadAvatar validates the image, generates square variants and stores them
func (s *memberService) UploadAvatar(ctx context.Context, id uuid.UUID, data []byte) (*model.MemberDTO, error) {
	if err := s.avatarProcessor.ValidateImage(data); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidAvatar, err)
	}

	variants, err := s.avatarProcessor.ProcessAvatar(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidAvatar, err)
	}

	var profileURL string
	for name, variantData := range variants {
		key := fmt.Sprintf("avatars/%s/%d_%s.jpg", id, time.Now().UnixNano(), name)
		url, err := s.storage.UploadWithRetry(ctx, key, variantData, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("failed to upload avatar variant %s: %w", name, err)
		}
		if name == "profile" {
			profileURL = url
		}
	}

	if err := s.repo.UpdateAvatar(ctx, id, profileURL); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, id)
}

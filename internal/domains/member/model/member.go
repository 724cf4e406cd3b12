package model

import (
	"time"

	"github.com/google/uuid"
)

// Member là một registered user của Jamin
type Member struct {
	ID           uuid.UUID `json:"id" db:"id"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	AvatarURL    *string   `json:"avatar_url" db:"avatar_url"`
	FirstName    *string   `json:"first_name" db:"first_name"`
	LastName     *string   `json:"last_name" db:"last_name"`
	Country      *string   `json:"country" db:"country"`
	Instrument   *string   `json:"instrument" db:"instrument"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MemberDTO là public view của member (không leak password hash)
type MemberDTO struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   *string   `json:"avatar_url"`
	FirstName   *string   `json:"first_name,omitempty"`
	LastName    *string   `json:"last_name,omitempty"`
	Country     *string   `json:"country,omitempty"`
	Instrument  *string   `json:"instrument,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Member) ToDTO() MemberDTO {
	return MemberDTO{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		AvatarURL:   m.AvatarURL,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Country:     m.Country,
		Instrument:  m.Instrument,
		CreatedAt:   m.CreatedAt,
	}
}

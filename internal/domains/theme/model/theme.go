package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Status của một theme trong collaboration lifecycle
type Status string

const (
	StatusInProgress Status = "in progress"
	StatusComplete   Status = "complete"
)

// Kind phân biệt original theme và layer.
// Một row duy nhất trong bảng themes đóng cả hai vai: ParentID null là
// original (root của collaboration tree), non-null là layer thuộc
// collaboration rooted tại parent đó. Kind makes that tagged union explicit
// instead of scattering null-checks through query code.
type Kind string

const (
	KindOriginal Kind = "original"
	KindLayer    Kind = "layer"
)

// Theme là một recording: original theme hoặc layer
type Theme struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	MemberID     uuid.UUID       `json:"member_id" db:"member_id"`
	ParentID     *uuid.UUID      `json:"parent_id" db:"parent_id"`
	Title        string          `json:"title" db:"title"`
	Description  *string         `json:"description" db:"description"`
	Genre        *string         `json:"genre" db:"genre"`
	Key          *string         `json:"key" db:"key"`
	Mode         *string         `json:"mode" db:"mode"`
	Chords       pq.StringArray  `json:"chords" db:"chords"`
	Scale        *string         `json:"scale" db:"scale"`
	Tempo        *int            `json:"tempo" db:"tempo"` // BPM
	Duration     decimal.Decimal `json:"duration" db:"duration"` // seconds
	RecordingURL string          `json:"recording_url" db:"recording_url"`
	MixURL       *string         `json:"mix_url" db:"mix_url"`
	Instrument   *string         `json:"instrument" db:"instrument"`
	Status       Status          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Kind returns the variant this row represents
func (t *Theme) Kind() Kind {
	if t.ParentID != nil {
		return KindLayer
	}
	return KindOriginal
}

func (t *Theme) IsLayer() bool {
	return t.ParentID != nil
}

// NewOriginal builds a root theme. Fresh originals start in progress,
// pending further layers.
func NewOriginal(memberID uuid.UUID, title, recordingURL string) *Theme {
	return &Theme{
		MemberID:     memberID,
		Title:        title,
		RecordingURL: recordingURL,
		Status:       StatusInProgress,
	}
}

// NewLayer builds a layer belonging to the collaboration rooted at parentID.
// Layers are always inserted as complete.
func NewLayer(memberID, parentID uuid.UUID, title, instrument, recordingURL string) *Theme {
	pid := parentID
	return &Theme{
		MemberID:     memberID,
		ParentID:     &pid,
		Title:        title,
		Instrument:   &instrument,
		RecordingURL: recordingURL,
		Status:       StatusComplete,
	}
}

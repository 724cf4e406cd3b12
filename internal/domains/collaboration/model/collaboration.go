package model

import (
	"time"

	"github.com/google/uuid"
)

// LayerRow là flat joined row từ themes (layer) + parent theme + cả hai
// member rows. Aggregation làm việc thuần trên slice của những rows này.
type LayerRow struct {
	LayerID      uuid.UUID
	Title        string
	Instrument   *string
	RecordingURL string
	MixURL       *string
	CreatedAt    time.Time

	MemberID     uuid.UUID
	MemberName   string
	MemberAvatar *string

	ParentID           uuid.UUID
	ParentTitle        string
	ParentGenre        *string
	ParentRecordingURL string
	ParentCreatedAt    time.Time

	ParentMemberID     uuid.UUID
	ParentMemberName   string
	ParentMemberAvatar *string
}

// Participant is a member inside a snapshot, deduplicated by member id
type Participant struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// LayerInfo is one layer entry inside a snapshot's cumulative list
type LayerInfo struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Instrument   *string   `json:"instrument,omitempty"`
	RecordingURL string    `json:"recording_url"`
	MixURL       *string   `json:"mix_url,omitempty"`
	MemberID     uuid.UUID `json:"member_id"`
	MemberName   string    `json:"member_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot represents the collaboration as it existed right after one
// particular layer landed. For a root theme with L layers there are exactly
// L snapshots, each carrying the cumulative layer prefix up to its own
// identifying layer. Identity and display fields come from that layer.
type Snapshot struct {
	ID           uuid.UUID     `json:"id"` // identifying layer id
	ThemeID      uuid.UUID     `json:"theme_id"`
	ThemeTitle   string        `json:"theme_title"`
	Genre        *string       `json:"genre,omitempty"`
	Title        string        `json:"title"`
	Instrument   *string       `json:"instrument,omitempty"`
	RecordingURL string        `json:"recording_url"`
	MixURL       *string       `json:"mix_url,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Creator      Participant   `json:"creator"`
	Layers       []LayerInfo   `json:"layers"`
	Participants []Participant `json:"participants"`
}

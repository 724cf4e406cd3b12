package model

import (
	"time"

	"github.com/google/uuid"
)

// PendingUpload is a compensating-action marker. It is written before a
// recording is pushed to object storage and removed once the owning theme
// row commits. Markers that outlive their threshold mean the insert never
// happened; a scheduled job deletes the orphaned object and the marker.
type PendingUpload struct {
	ID         uuid.UUID `json:"id" db:"id"`
	StorageKey string    `json:"storage_key" db:"storage_key"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

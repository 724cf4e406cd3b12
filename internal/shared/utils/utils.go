package utils

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func GetEnvVariable(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func ParseFloatToDecimal(number *float64) *decimal.Decimal {
	if number == nil {
		return nil
	}
	d := decimal.NewFromFloat(*number)
	return &d
}

func ParseStringToUUID(s string) uuid.UUID {
	uid, err := uuid.Parse(s)
	if err != nil || s == "" {
		return uuid.Nil
	}
	return uid
}

// RecordingKey builds the object storage key for an uploaded recording.
// Convention: {entity-type}/{optional-parent-id}/{timestamp}-{filename}
// The nanosecond timestamp suffix keeps concurrent uploads from colliding.
func RecordingKey(entityType string, parentID *uuid.UUID, filename string) string {
	name := sanitizeFilename(filename)
	segment := fmt.Sprintf("%d-%s", time.Now().UnixNano(), name)

	if parentID != nil {
		return path.Join(entityType, parentID.String(), segment)
	}
	return path.Join(entityType, segment)
}

func sanitizeFilename(name string) string {
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	// Chỉ giữ ký tự an toàn cho object keys
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "recording"
	}
	return b.String()
}

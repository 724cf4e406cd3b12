package model

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Form submission payloads. These arrive as multipart form fields alongside
// the recording, so numeric fields come in as strings and are coerced here.

type CreateThemeRequest struct {
	Title       string   `form:"title"`
	Description string   `form:"description"`
	Genre       string   `form:"genre"`
	Key         string   `form:"key"`
	Mode        string   `form:"mode"`
	Chords      []string `form:"chords"`
	Scale       string   `form:"scale"`
	Tempo       string   `form:"tempo"`    // BPM, coerced to int
	Duration    string   `form:"duration"` // seconds, coerced to decimal
	Instrument  string   `form:"instrument"`
}

func (r CreateThemeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 200),
		),
		validation.Field(&r.Tempo,
			validation.When(r.Tempo != "", is.Int.Error("tempo must be a number")),
		),
		validation.Field(&r.Duration,
			validation.When(r.Duration != "", is.Float.Error("duration must be a number")),
		),
		validation.Field(&r.Genre, validation.Length(0, 100)),
		validation.Field(&r.Key, validation.Length(0, 10)),
		validation.Field(&r.Mode, validation.Length(0, 50)),
		validation.Field(&r.Scale, validation.Length(0, 100)),
		validation.Field(&r.Instrument, validation.Length(0, 100)),
	)
}

// TempoBPM returns the coerced tempo, nil when absent
func (r CreateThemeRequest) TempoBPM() *int {
	if r.Tempo == "" {
		return nil
	}
	bpm, err := strconv.Atoi(r.Tempo)
	if err != nil {
		return nil
	}
	return &bpm
}

// DurationSeconds returns the coerced duration, zero when absent
func (r CreateThemeRequest) DurationSeconds() decimal.Decimal {
	if r.Duration == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.Duration)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CreateLayerRequest adds the layer-only fields on top of the theme payload
type CreateLayerRequest struct {
	CreateThemeRequest
	ParentID      string `form:"parent_id"`
	MixWithParent bool   `form:"mix_with_parent"`
}

// Validate merges the shared theme rules with the layer-only requirements
// (instrument and parent theme id) into a single field error map.
func (r CreateLayerRequest) Validate() error {
	errs := validation.Errors{}

	if err := r.CreateThemeRequest.Validate(); err != nil {
		ve, ok := err.(validation.Errors)
		if !ok {
			return err
		}
		for field, fieldErr := range ve {
			errs[field] = fieldErr
		}
	}

	if err := validation.Validate(r.Instrument, validation.Required.Error("instrument is required")); err != nil {
		errs["instrument"] = err
	}
	if err := validation.Validate(r.ParentID,
		validation.Required.Error("parent theme id is required"),
		is.UUID.Error("parent theme id must be a UUID"),
	); err != nil {
		errs["parent_id"] = err
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateThemeRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Genre       *string  `json:"genre"`
	Key         *string  `json:"key"`
	Mode        *string  `json:"mode"`
	Chords      []string `json:"chords"`
	Scale       *string  `json:"scale"`
	Tempo       *int     `json:"tempo"`
	Instrument  *string  `json:"instrument"`
	Status      *string  `json:"status"`
}

func (r UpdateThemeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Tempo, validation.Min(1), validation.Max(400)),
		validation.Field(&r.Status, validation.In(string(StatusInProgress), string(StatusComplete))),
	)
}

// ThemeFilter cho list queries
type ThemeFilter struct {
	Genre  string
	Search string
	Status string
	SortBy string
	Order  string
	Limit  int
	Offset int
}

// CreateResult is the structured outcome of a creation action.
// Validation failures are recovered into FieldErrors so the UI can render
// them inline; infrastructure failures travel as ordinary errors.
type CreateResult struct {
	Success       bool                `json:"success"`
	FieldErrors   map[string][]string `json:"field_errors,omitempty"`
	Message       string              `json:"message,omitempty"`
	Theme         *Theme              `json:"theme,omitempty"`
	ParentThemeID *uuid.UUID          `json:"parent_theme_id,omitempty"`
}

func FailedResult(fieldErrors map[string][]string, message string) *CreateResult {
	return &CreateResult{
		Success:     false,
		FieldErrors: fieldErrors,
		Message:     message,
	}
}

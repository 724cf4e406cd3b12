package model

import "errors"

var (
	ErrThemeNotFound    = errors.New("theme not found")
	ErrParentNotFound   = errors.New("parent theme not found")
	ErrParentIsLayer    = errors.New("layers can only be added to an original theme")
	ErrNotOwner         = errors.New("member does not own this theme")
	ErrMissingRecording = errors.New("a recording is required")
	ErrDatabase         = errors.New("database error")
)

package model

import "errors"

var (
	ErrCollaborationNotFound = errors.New("collaboration not found")
)

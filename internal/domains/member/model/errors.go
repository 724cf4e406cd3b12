package model

import "errors"

var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidAvatar      = errors.New("invalid avatar image")
)

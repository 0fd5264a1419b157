package models

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrReadOnly      = errors.New("calendar is in read-only demo mode")
	ErrInvalidEvent  = errors.New("invalid event")
)

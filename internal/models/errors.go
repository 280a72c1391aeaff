package models

import "errors"

// Custom errors
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateKey  = errors.New("duplicate key violation")
	ErrUnknownAction = errors.New("unknown trade action")
	ErrBadTransition = errors.New("illegal status transition")
)

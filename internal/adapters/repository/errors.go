package repository

import "errors"

// Sentinel kinds for durable storage errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrStorage  = errors.New("storage failure")
)

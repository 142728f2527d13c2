package service

import "errors"

var (
	// ErrDuplicate is returned when a source with the same title and language
	// is already in the library.
	ErrDuplicate = errors.New("content already exists")
	// ErrNoPostForPlatform is returned when scheduling a platform the content
	// has no post for.
	ErrNoPostForPlatform = errors.New("no post for platform")
	// ErrInvalidTime is returned for an hour outside 0-23 or a minute outside 0-59.
	ErrInvalidTime = errors.New("invalid time")
)

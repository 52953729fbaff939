package storage

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTag is returned for a tag name that is empty after trimming.
var ErrInvalidTag = errors.New("invalid tag")

// ErrDuplicateSource is returned when a feed URL is already saved.
var ErrDuplicateSource = errors.New("feed source already exists")

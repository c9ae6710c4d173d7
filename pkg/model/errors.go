package model

import "github.com/oneconcern/cairn/pkg/errors"

var (
	// ErrBadVersion indicates a malformed semantic version
	ErrBadVersion = errors.New("invalid semantic version")

	// ErrBadMetadata indicates a malformed metadata block
	ErrBadMetadata = errors.New("invalid metadata")
)

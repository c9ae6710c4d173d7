package cafs

import "github.com/oneconcern/cairn/pkg/errors"

var (
	// ErrHashMismatch indicates that a block read from the backend does not match its key
	ErrHashMismatch = errors.New("block content does not match its key")

	// ErrBadLinks indicates that a block could not be decoded as a link table
	ErrBadLinks = errors.New("block is not a valid link table")
)

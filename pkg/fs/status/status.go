// Package status declares error constants returned by the file system trees.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/fs and its sub-packages.
package status

import "github.com/oneconcern/cairn/pkg/errors"

var (
	// ErrMissingFilter indicates that the bare name filter of a granted private path could not be located
	ErrMissingFilter = errors.New("could not find the bare name filter for private path")

	// ErrFilterCollision indicates that two distinct private nodes resolved to the same index entry
	ErrFilterCollision = errors.New("bare name filter collision in private index")

	// ErrUnrelatedHistory indicates that two histories share no common ancestor
	ErrUnrelatedHistory = errors.New("histories have no common ancestor")

	// ErrDecryption indicates that a private node could not be decrypted with the provided key
	ErrDecryption = errors.New("cannot decrypt private node")

	// ErrUnsupportedVersion indicates that a root tree was written with an incompatible format version
	ErrUnsupportedVersion = errors.New("unsupported file system version")

	// ErrNotADirectory indicates that a path traverses or designates a file where a directory is expected
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile indicates that a path designates a directory where a file is expected
	ErrNotAFile = errors.New("not a file")

	// ErrInvalidPath indicates a path outside of the public and private branches
	ErrInvalidPath = errors.New("invalid path")

	// ErrNoPermission indicates that no key was granted for a private path
	ErrNoPermission = errors.New("no permission for private path")

	// ErrNotFound indicates that a path does not exist in a tree
	ErrNotFound = errors.New("path not found")
)

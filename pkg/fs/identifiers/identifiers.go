// Package identifiers derives the names under which per-path secrets are kept locally,
// and provides the local cache holding them.
package identifiers

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/oneconcern/cairn/pkg/path"
)

const (
	prefix = "cairn__"

	bareNameFilterPrefix = prefix + "bareNameFilter__"
	readKeyPrefix        = prefix + "readKey__"
)

// BareNameFilter is the local identifier of the cached bare name filter of a path
func BareNameFilter(p path.Path) string {
	return bareNameFilterPrefix + hashPath(p)
}

// ReadKey is the key store identifier of the symmetric key granting access to a path
func ReadKey(p path.Path) string {
	return readKeyPrefix + hashPath(p)
}

func hashPath(p path.Path) string {
	sum := sha256.Sum256([]byte(p.ToPosix()))
	return hex.EncodeToString(sum[:])
}

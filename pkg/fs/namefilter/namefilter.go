// Package namefilter derives bare name filters: opaque identifiers standing in for
// private paths in the private index.
//
// A bare name filter is a bloom filter. The root filter holds an element derived from
// the root key, and every child adds an element derived from its own key to a copy of
// its parent's filter. Filters are thus stable for a given chain of node keys, but
// cannot be computed without knowing these keys.
package namefilter

import (
	"encoding/hex"

	"github.com/AndreasBriese/bbloom"
	jsoniter "github.com/json-iterator/go"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/keystore"
)

const (
	// FilterSize is the size of a filter, in bits
	FilterSize = 2048

	// HashLocations is the number of bits set per element
	HashLocations = 30
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	rootDomain = []byte("cairn/namefilter/root")
	nodeDomain = []byte("cairn/namefilter/node")

	// ErrInvalidFilter indicates a malformed serialized filter
	ErrInvalidFilter = errors.New("invalid bare name filter")
)

// BareNameFilter is a serialized bloom filter
type BareNameFilter string

// serialized form of a bbloom filter
type exported struct {
	FilterSet []byte
	SetLocs   uint64
}

// Root yields the filter of the private root node
func Root(rootKey string) (BareNameFilter, error) {
	element, err := deriveElement(rootKey, rootDomain)
	if err != nil {
		return "", err
	}
	bloom := bbloom.New(float64(FilterSize), float64(HashLocations))
	bloom.Add(element)
	return BareNameFilter(bloom.JSONMarshal()), nil
}

// Child yields the filter of a node created under parent, with its own key
func Child(parent BareNameFilter, key string) (BareNameFilter, error) {
	if err := parent.Validate(); err != nil {
		return "", err
	}
	element, err := deriveElement(key, nodeDomain)
	if err != nil {
		return "", err
	}
	bloom := bbloom.JSONUnmarshal([]byte(parent))
	bloom.Add(element)
	return BareNameFilter(bloom.JSONMarshal()), nil
}

func deriveElement(key string, domain []byte) ([]byte, error) {
	raw, err := keystore.DecodeKey(key)
	if err != nil {
		return nil, err
	}
	h, err := blake2b.New(&blake2b.Config{Size: 32, Key: raw})
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(domain)
	return h.Sum(nil), nil
}

// Validate checks that this is a well-formed filter
func (f BareNameFilter) Validate() error {
	_, err := f.bits()
	return err
}

func (f BareNameFilter) bits() ([]byte, error) {
	var e exported
	if err := json.Unmarshal([]byte(f), &e); err != nil {
		return nil, ErrInvalidFilter.Wrap(err)
	}
	if len(e.FilterSet) == 0 || e.SetLocs != HashLocations {
		return nil, ErrInvalidFilter.WrapMessage("unexpected filter geometry")
	}
	return e.FilterSet, nil
}

// Token is the public name of this filter in the private index
func (f BareNameFilter) Token() string {
	sum := blake2b.Sum256([]byte(f))
	return hex.EncodeToString(sum[:])
}

// Descends tells if this filter may belong to a descendant of ancestor,
// i.e. if all bits set in ancestor are set in this filter
func (f BareNameFilter) Descends(ancestor BareNameFilter) bool {
	mine, err := f.bits()
	if err != nil {
		return false
	}
	theirs, err := ancestor.bits()
	if err != nil {
		return false
	}
	if len(mine) != len(theirs) {
		return false
	}
	for i := range theirs {
		if mine[i]&theirs[i] != theirs[i] {
			return false
		}
	}
	return true
}

func (f BareNameFilter) String() string {
	return f.Token()
}

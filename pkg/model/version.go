package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SemVer is a semantic version
type SemVer struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// V1 is the current version of the on-store format.
//
// Change log:
//   - 1.0.0: initial version
var V1 = SemVer{Major: 1}

// CurrentVersion is the version written by this implementation
var CurrentVersion = V1

// ParseSemVer parses a version like "1.0.0"
func ParseSemVer(s string) (SemVer, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return SemVer{}, ErrBadVersion.WrapMessage(s)
	}
	var nums [3]uint32
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return SemVer{}, ErrBadVersion.WrapMessage(s)
		}
		nums[i] = uint32(n)
	}
	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsCompatible tells if content written with version other may be read: major versions must agree
func (v SemVer) IsCompatible(other SemVer) bool {
	return v.Major == other.Major
}

// MarshalText renders the version as a string
func (v SemVer) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses the version from a string
func (v *SemVer) UnmarshalText(data []byte) error {
	parsed, err := ParseSemVer(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML renders the version as a string
func (v SemVer) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML parses the version from a string
func (v *SemVer) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return v.UnmarshalText([]byte(s))
}

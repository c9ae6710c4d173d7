// Package path models logical file system paths.
//
// A path is distinctive: it knows whether it points at a file or a directory.
// The posix rendering of a directory carries a trailing slash, the root directory
// renders as the empty string.
package path

import (
	"strings"
)

// Branch is a top-level section of a file system
type Branch string

// Well-known branches. These are also the names of the links of a root tree.
const (
	Public     Branch = "public"
	Private    Branch = "private"
	Pretty     Branch = "pretty"
	PrivateLog Branch = "privateLog"
	Version    Branch = "version"
)

func (b Branch) String() string {
	return string(b)
}

// Kind of node a path points at
type Kind uint8

// Path kinds
const (
	DirectoryKind Kind = iota
	FileKind
)

// Path is a distinctive logical path
type Path struct {
	kind     Kind
	segments []string
}

// Directory builds a path pointing at a directory
func Directory(segments ...string) Path {
	return Path{kind: DirectoryKind, segments: clean(segments)}
}

// File builds a path pointing at a file
func File(segments ...string) Path {
	return Path{kind: FileKind, segments: clean(segments)}
}

// Root directory
func Root() Path {
	return Directory()
}

// FromPosix parses a posix path. A trailing slash, or an empty path, denotes a directory.
func FromPosix(s string) Path {
	segments := strings.Split(s, "/")
	if s == "" || strings.HasSuffix(s, "/") {
		return Directory(segments...)
	}
	return File(segments...)
}

func clean(segments []string) []string {
	res := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		res = append(res, segment)
	}
	return res
}

// ToPosix renders the path as a relative posix path
func (p Path) ToPosix() string {
	joined := strings.Join(p.segments, "/")
	if p.kind == DirectoryKind && joined != "" {
		return joined + "/"
	}
	return joined
}

func (p Path) String() string {
	return p.ToPosix()
}

// Unwrap returns a copy of the path segments
func (p Path) Unwrap() []string {
	res := make([]string, len(p.segments))
	copy(res, p.segments)
	return res
}

// Len is the number of segments of the path
func (p Path) Len() int {
	return len(p.segments)
}

// Name is the last segment of the path, or the empty string for the root
func (p Path) Name() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// IsDirectory tells if the path points at a directory
func (p Path) IsDirectory() bool {
	return p.kind == DirectoryKind
}

// IsFile tells if the path points at a file
func (p Path) IsFile() bool {
	return p.kind == FileKind
}

// IsRoot tells if the path is the root directory
func (p Path) IsRoot() bool {
	return p.kind == DirectoryKind && len(p.segments) == 0
}

// Parent directory of the path. The root directory has no parent.
func (p Path) Parent() (Path, bool) {
	if len(p.segments) == 0 {
		return Path{}, false
	}
	return Directory(p.segments[:len(p.segments)-1]...), true
}

// Branch returns the top-level branch this path belongs to
func (p Path) Branch() (Branch, bool) {
	if len(p.segments) == 0 {
		return "", false
	}
	return Branch(p.segments[0]), true
}

// IsBranch tells if the path belongs to the given branch
func (p Path) IsBranch(branch Branch) bool {
	b, ok := p.Branch()
	return ok && b == branch
}

// IsBranchRoot tells if the path is the top-level directory of its branch, e.g. "private/"
func (p Path) IsBranchRoot() bool {
	return p.kind == DirectoryKind && len(p.segments) == 1
}

// RemoveBranch strips the branch segment, yielding the segments within the branch
func (p Path) RemoveBranch() []string {
	if len(p.segments) == 0 {
		return nil
	}
	return p.Unwrap()[1:]
}

// RelativeTo returns the segments of p below some ancestor. It returns false when
// ancestor is not a prefix of p.
func (p Path) RelativeTo(ancestor Path) ([]string, bool) {
	if len(ancestor.segments) > len(p.segments) {
		return nil, false
	}
	for i, segment := range ancestor.segments {
		if p.segments[i] != segment {
			return nil, false
		}
	}
	return p.Unwrap()[len(ancestor.segments):], true
}

// Equal paths have the same kind and segments
func (p Path) Equal(other Path) bool {
	return p.ToPosix() == other.ToPosix()
}

package model

import (
	"sort"

	"github.com/oneconcern/cairn/pkg/path"
)

// Permissions list the paths a session may access, relative to their branch.
//
// A trailing slash denotes a directory, the empty string is the root of the branch.
type Permissions struct {
	Public  []string `json:"public,omitempty" yaml:"public,omitempty"`
	Private []string `json:"private,omitempty" yaml:"private,omitempty"`
	_       struct{}
}

// RootPermissions grant access to the whole file system
func RootPermissions() Permissions {
	return Permissions{Public: []string{""}, Private: []string{""}}
}

// Paths returns the distinctive paths of all permissions, branch included
func (p Permissions) Paths() []path.Path {
	res := make([]path.Path, 0, len(p.Public)+len(p.Private))
	for _, branch := range []struct {
		name  path.Branch
		paths []string
	}{
		{name: path.Public, paths: p.Public},
		{name: path.Private, paths: p.Private},
	} {
		for _, posix := range branch.paths {
			res = append(res, branchPath(branch.name, posix))
		}
	}
	return res
}

func branchPath(branch path.Branch, posix string) path.Path {
	rel := path.FromPosix(posix)
	segments := append([]string{branch.String()}, rel.Unwrap()...)
	if rel.IsDirectory() {
		return path.Directory(segments...)
	}
	return path.File(segments...)
}

// PathKey associates a private path with the symmetric key granting access to it
type PathKey struct {
	Path path.Path
	Key  string
}

// SortPathKeys sorts by posix path, so that ancestors come before their descendants
func SortPathKeys(keys []PathKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Path.ToPosix() < keys[j].Path.ToPosix()
	})
}

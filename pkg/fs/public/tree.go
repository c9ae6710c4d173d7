package public

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/model"
)

var _ Node = &Tree{}

// Tree is a public directory.
//
// Paths given to a tree are relative to it, as segments.
type Tree struct {
	fs       cafs.Fs
	header   Header
	links    cafs.Links
	children map[string]Node
	id       cafs.Key

	// last persisted version, returned as is until the directory changes
	last  cafs.PutRes
	dirty bool
}

// Empty builds an empty directory. It is not persisted until PutDetailed.
func Empty(fs cafs.Fs) *Tree {
	return &Tree{
		fs:       fs,
		header:   Header{Metadata: model.NewMetadata(false)},
		links:    make(cafs.Links),
		children: make(map[string]Node),
	}
}

func treeFromCID(ctx context.Context, fs cafs.Fs, id cafs.Key, header Header, userland cafs.Link) (*Tree, error) {
	links, err := fs.GetLinks(ctx, userland.ID)
	if err != nil {
		return nil, err
	}
	return &Tree{
		fs:       fs,
		header:   header,
		links:    links,
		children: make(map[string]Node),
		id:       id,
		last:     cafs.PutRes{Key: id, Size: userland.Size},
	}, nil
}

// Header of the directory
func (t *Tree) Header() Header {
	return t.header
}

// IsFile is always false
func (t *Tree) IsFile() bool {
	return false
}

// ID of the last persisted version, or the nil key
func (t *Tree) ID() cafs.Key {
	return t.id
}

// Previous version of this directory
func (t *Tree) Previous() (cafs.Key, bool) {
	if t.header.Previous == nil {
		return cafs.NilKey, false
	}
	return *t.header.Previous, true
}

// Links to the children of this directory
func (t *Tree) Links() cafs.Links {
	return t.links.Copy()
}

// PutDetailed persists a new version of the directory, unless it did not change since
// the last persist. Children are expected to be persisted already.
func (t *Tree) PutDetailed(ctx context.Context) (cafs.PutRes, error) {
	if !t.id.IsNil() && !t.dirty {
		return t.last, nil
	}
	if !t.id.IsNil() {
		previous := t.id
		t.header.Previous = &previous
	}
	userland, err := t.fs.PutLinks(ctx, t.links)
	if err != nil {
		return cafs.PutRes{}, err
	}
	res, err := persist(ctx, t.fs, t.header, userland)
	if err != nil {
		return cafs.PutRes{}, err
	}
	t.id = res.Key
	t.last = res
	t.dirty = false
	return res, nil
}

// Put persists a new version of the directory
func (t *Tree) Put(ctx context.Context) (cafs.Key, error) {
	res, err := t.PutDetailed(ctx)
	return res.Key, err
}

// Ls lists a directory
func (t *Tree) Ls(ctx context.Context, rel []string) ([]model.Entry, error) {
	node, err := t.Get(ctx, rel)
	if err != nil {
		return nil, err
	}
	dir, ok := node.(*Tree)
	if !ok {
		return nil, status.ErrNotADirectory
	}
	entries := make([]model.Entry, 0, len(dir.links))
	for _, link := range dir.links.Sorted() {
		entries = append(entries, model.Entry{Name: link.Name, IsFile: link.IsFile, Size: link.Size})
	}
	return entries, nil
}

// Exists tells if a path exists below this directory
func (t *Tree) Exists(ctx context.Context, rel []string) (bool, error) {
	_, err := t.Get(ctx, rel)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, status.ErrNotFound) || errors.Is(err, status.ErrNotADirectory) {
		return false, nil
	}
	return false, err
}

// Get the node at some path below this directory. An empty path is the directory itself.
func (t *Tree) Get(ctx context.Context, rel []string) (Node, error) {
	var node Node = t
	for _, name := range rel {
		dir, ok := node.(*Tree)
		if !ok {
			return nil, status.ErrNotADirectory.WrapMessage(name)
		}
		child, err := dir.child(ctx, name)
		if err != nil {
			return nil, err
		}
		node = child
	}
	return node, nil
}

// Read the content of a file below this directory
func (t *Tree) Read(ctx context.Context, rel []string) ([]byte, error) {
	node, err := t.Get(ctx, rel)
	if err != nil {
		return nil, err
	}
	file, ok := node.(*File)
	if !ok {
		return nil, status.ErrNotAFile
	}
	return file.Content(), nil
}

// Mkdir creates a directory and its missing ancestors
func (t *Tree) Mkdir(ctx context.Context, rel []string) error {
	node, err := t.Get(ctx, rel)
	switch {
	case err == nil:
		if node.IsFile() {
			return status.ErrNotADirectory
		}
		return nil
	case !errors.Is(err, status.ErrNotFound):
		return err
	}

	return t.apply(ctx, rel, true, func(_ context.Context, parent *Tree, _ string) (Node, error) {
		return Empty(parent.fs), nil
	})
}

// Add writes a file, creating missing directories
func (t *Tree) Add(ctx context.Context, rel []string, content []byte) error {
	return t.apply(ctx, rel, true, func(ctx context.Context, parent *Tree, name string) (Node, error) {
		if _, exists := parent.links[name]; !exists {
			return NewFile(parent.fs, content), nil
		}
		child, err := parent.child(ctx, name)
		if err != nil {
			return nil, err
		}
		file, ok := child.(*File)
		if !ok {
			return nil, status.ErrNotAFile
		}
		file.Update(content)
		return file, nil
	})
}

// Rm removes a file or directory
func (t *Tree) Rm(ctx context.Context, rel []string) error {
	return t.apply(ctx, rel, false, func(_ context.Context, parent *Tree, name string) (Node, error) {
		if _, exists := parent.links[name]; !exists {
			return nil, status.ErrNotFound.WrapMessage(name)
		}
		return nil, nil
	})
}

// apply runs a change on the last segment of a path, then persists a new version of
// every directory along the path, bottom-up, this directory included.
//
// A nil node returned by the change removes the entry.
func (t *Tree) apply(ctx context.Context, rel []string, create bool, change func(context.Context, *Tree, string) (Node, error)) error {
	if len(rel) == 0 {
		return status.ErrInvalidPath.WrapMessage("empty relative path")
	}
	if err := t.applyBelow(ctx, rel, create, change); err != nil {
		return err
	}
	_, err := t.PutDetailed(ctx)
	return err
}

func (t *Tree) applyBelow(ctx context.Context, rel []string, create bool, change func(context.Context, *Tree, string) (Node, error)) error {
	name := rel[0]

	var node Node
	if len(rel) == 1 {
		var err error
		if node, err = change(ctx, t, name); err != nil {
			return err
		}
	} else {
		dir, err := t.subdir(ctx, name, create)
		if err != nil {
			return err
		}
		if err = dir.applyBelow(ctx, rel[1:], create, change); err != nil {
			return err
		}
		node = dir
	}

	t.header.Metadata = t.header.Metadata.Touch()
	t.dirty = true
	if node == nil {
		delete(t.links, name)
		delete(t.children, name)
		return nil
	}

	res, err := node.PutDetailed(ctx)
	if err != nil {
		return err
	}
	t.links.Add(cafs.MakeLink(name, res))
	t.children[name] = node
	return nil
}

func (t *Tree) subdir(ctx context.Context, name string, create bool) (*Tree, error) {
	if _, exists := t.links[name]; !exists {
		if !create {
			return nil, status.ErrNotFound.WrapMessage(name)
		}
		return Empty(t.fs), nil
	}
	child, err := t.child(ctx, name)
	if err != nil {
		return nil, err
	}
	dir, ok := child.(*Tree)
	if !ok {
		return nil, status.ErrNotADirectory.WrapMessage(name)
	}
	return dir, nil
}

func (t *Tree) child(ctx context.Context, name string) (Node, error) {
	if node, ok := t.children[name]; ok {
		return node, nil
	}
	link, ok := t.links.Get(name)
	if !ok {
		return nil, status.ErrNotFound.WrapMessage(name)
	}
	node, err := FromCID(ctx, t.fs, link.ID)
	if err != nil {
		return nil, err
	}
	t.children[name] = node
	return node, nil
}

package private

import (
	"context"
	"sort"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/namefilter"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
)

var _ Node = &Tree{}

// Tree is a decrypted private directory.
//
// Paths given to a tree are relative to it, as segments.
type Tree struct {
	mmpt     *MMPT
	header   Header
	links    map[string]Link
	children map[string]Node
	id       *cafs.Key
}

// CreateTree builds a new directory. The root directory has no parent filter.
// It is not persisted until Put.
func CreateTree(mmpt *MMPT, key string, parentFilter *namefilter.BareNameFilter) (*Tree, error) {
	filter, err := deriveFilter(parentFilter, key)
	if err != nil {
		return nil, err
	}
	return &Tree{
		mmpt: mmpt,
		header: Header{
			BareNameFilter: filter,
			Key:            key,
			Metadata:       model.NewMetadata(false),
		},
		links:    make(map[string]Link),
		children: make(map[string]Node),
	}, nil
}

// FromBaseKey loads the root directory, which filter derives from its key alone
func FromBaseKey(ctx context.Context, mmpt *MMPT, key string) (*Tree, error) {
	filter, err := namefilter.Root(key)
	if err != nil {
		return nil, err
	}
	return FromBareNameFilter(ctx, mmpt, filter, key)
}

// FromBareNameFilter loads the directory indexed under a filter
func FromBareNameFilter(ctx context.Context, mmpt *MMPT, filter namefilter.BareNameFilter, key string) (*Tree, error) {
	env, id, err := open(ctx, mmpt, filter, key)
	if err != nil {
		return nil, err
	}
	if env.Type != treeType {
		return nil, status.ErrNotADirectory.WrapMessage(filter.Token())
	}
	return treeFromEnvelope(mmpt, env, id), nil
}

func treeFromEnvelope(mmpt *MMPT, env envelope, id cafs.Key) *Tree {
	links := env.Links
	if links == nil {
		links = make(map[string]Link)
	}
	return &Tree{
		mmpt:     mmpt,
		header:   env.Header,
		links:    links,
		children: make(map[string]Node),
		id:       &id,
	}
}

// Header of the directory
func (t *Tree) Header() Header {
	return t.header
}

// IsFile is always false
func (t *Tree) IsFile() bool {
	return false
}

// ID of the last persisted version of the directory
func (t *Tree) ID() (cafs.Key, bool) {
	if t.id == nil {
		return cafs.NilKey, false
	}
	return *t.id, true
}

// Links of the directory, sorted by name
func (t *Tree) Links() []Link {
	names := make([]string, 0, len(t.links))
	for name := range t.links {
		names = append(names, name)
	}
	sort.Strings(names)
	res := make([]Link, 0, len(names))
	for _, name := range names {
		res = append(res, t.links[name])
	}
	return res
}

// Put encrypts the directory and indexes it. Children are expected to be persisted already.
func (t *Tree) Put(ctx context.Context) (cafs.PutRes, error) {
	t.header.Previous = t.id
	res, err := seal(ctx, t.mmpt, envelope{
		Type:   treeType,
		Header: t.header,
		Links:  t.links,
	})
	if err != nil {
		return cafs.PutRes{}, err
	}
	t.id = &res.Key
	for _, link := range t.links {
		res.Size += link.Size
	}
	return res, nil
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
	links := dir.Links()
	entries := make([]model.Entry, 0, len(links))
	for _, link := range links {
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

// Mkdir creates a directory and its missing ancestors, with fresh keys
func (t *Tree) Mkdir(ctx context.Context, rel []string) error {
	return t.MkdirWithKey(ctx, rel, "")
}

// MkdirWithKey creates a directory with the given key. Missing ancestors get fresh keys.
// An empty key generates a fresh one.
func (t *Tree) MkdirWithKey(ctx context.Context, rel []string, key string) error {
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

	return t.apply(ctx, rel, true, func(_ context.Context, parent *Tree, name string) (Node, error) {
		return parent.newTree(key)
	})
}

// Add writes a file, creating missing directories with fresh keys
func (t *Tree) Add(ctx context.Context, rel []string, content []byte) error {
	return t.AddWithKey(ctx, rel, content, "")
}

// AddWithKey writes a file. A newly created file gets the given key, or a fresh one when empty.
func (t *Tree) AddWithKey(ctx context.Context, rel []string, content []byte, key string) error {
	return t.apply(ctx, rel, true, func(ctx context.Context, parent *Tree, name string) (Node, error) {
		if _, exists := parent.links[name]; !exists {
			return parent.newFile(key, content)
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

// apply runs a change on the last segment of a path, then persists every directory
// along the path, bottom-up, this directory included.
//
// A nil node returned by the change removes the entry.
func (t *Tree) apply(ctx context.Context, rel []string, create bool, change func(context.Context, *Tree, string) (Node, error)) error {
	if len(rel) == 0 {
		return status.ErrInvalidPath.WrapMessage("empty relative path")
	}
	if err := t.applyBelow(ctx, rel, create, change); err != nil {
		return err
	}
	_, err := t.Put(ctx)
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
	if node == nil {
		delete(t.links, name)
		delete(t.children, name)
		return nil
	}

	res, err := node.Put(ctx)
	if err != nil {
		return err
	}
	header := node.Header()
	t.links[name] = Link{
		Name:           name,
		Key:            header.Key,
		BareNameFilter: header.BareNameFilter,
		IsFile:         node.IsFile(),
		Size:           res.Size,
	}
	t.children[name] = node
	return nil
}

func (t *Tree) subdir(ctx context.Context, name string, create bool) (*Tree, error) {
	if _, exists := t.links[name]; !exists {
		if !create {
			return nil, status.ErrNotFound.WrapMessage(name)
		}
		return t.newTree("")
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
	link, ok := t.links[name]
	if !ok {
		return nil, status.ErrNotFound.WrapMessage(name)
	}
	node, err := LoadNode(ctx, t.mmpt, link.BareNameFilter, link.Key)
	if err != nil {
		return nil, err
	}
	t.children[name] = node
	return node, nil
}

func (t *Tree) newTree(key string) (*Tree, error) {
	granted := key != ""
	key, err := keyOrFresh(key)
	if err != nil {
		return nil, err
	}
	tree, err := CreateTree(t.mmpt, key, &t.header.BareNameFilter)
	if err != nil {
		return nil, err
	}
	if granted {
		if err = t.checkUnindexed(tree.header.BareNameFilter); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func (t *Tree) newFile(key string, content []byte) (*File, error) {
	granted := key != ""
	key, err := keyOrFresh(key)
	if err != nil {
		return nil, err
	}
	file, err := CreateFile(t.mmpt, key, &t.header.BareNameFilter, content)
	if err != nil {
		return nil, err
	}
	if granted {
		if err = t.checkUnindexed(file.header.BareNameFilter); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// checkUnindexed rejects a new node which filter already indexes another node.
// Filters derive from the parent filter and the node key: reusing a key under the
// same parent yields the same filter.
func (t *Tree) checkUnindexed(filter namefilter.BareNameFilter) error {
	if token := filter.Token(); t.mmpt.Exists(token) {
		return status.ErrFilterCollision.WrapMessage(token)
	}
	return nil
}

func keyOrFresh(key string) (string, error) {
	if key != "" {
		return key, nil
	}
	return keystore.GenerateKey()
}

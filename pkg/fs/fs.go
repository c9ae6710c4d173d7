package fs

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/dlogger"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/fs/private"
	"github.com/oneconcern/cairn/pkg/fs/reconcile"
	"github.com/oneconcern/cairn/pkg/fs/root"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
	"github.com/oneconcern/cairn/pkg/path"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileSystem is a loaded file system.
//
// A FileSystem has a single writer: it is not safe for concurrent use.
type FileSystem struct {
	root      *root.Tree
	l         *zap.Logger
	hooks     []PublishHook
	published cafs.Key
}

func defaultSettings() *settings {
	return &settings{
		l: dlogger.MustGetLogger(dlogger.LogLevelNone),
	}
}

func (s *settings) deps(ctx context.Context) (root.Deps, error) {
	if s.blocks == nil {
		blocks, err := cafs.New(cafs.Backend(localfs.New(afero.NewMemMapFs())), cafs.Logger(s.l))
		if err != nil {
			return root.Deps{}, err
		}
		s.blocks = blocks
	}
	if s.keys == nil {
		keys, err := keystore.New(ctx, keystore.Logger(s.l))
		if err != nil {
			return root.Deps{}, err
		}
		s.keys = keys
	}
	return root.Deps{
		Fs:     s.blocks,
		Keys:   s.keys,
		Cache:  s.cache,
		Logger: s.l,
	}, nil
}

// Empty creates a new file system
func Empty(ctx context.Context, opts ...Option) (*FileSystem, error) {
	s := defaultSettings()
	for _, apply := range opts {
		apply(s)
	}

	deps, err := s.deps(ctx)
	if err != nil {
		return nil, err
	}

	rootKey := s.rootKey
	if rootKey == "" {
		if rootKey, err = keystore.GenerateKey(); err != nil {
			return nil, err
		}
	}

	tree, err := root.Empty(ctx, deps, rootKey)
	if err != nil {
		return nil, err
	}
	return newFileSystem(tree, s), nil
}

// FromCID loads an existing file system from its root
func FromCID(ctx context.Context, id cafs.Key, opts ...Option) (*FileSystem, error) {
	s := defaultSettings()
	for _, apply := range opts {
		apply(s)
	}

	deps, err := s.deps(ctx)
	if err != nil {
		return nil, err
	}

	perms := s.permissions
	if perms == nil {
		known, err := deps.Keys.KeyExists(ctx, identifiers.ReadKey(path.Directory(path.Private.String())))
		if err != nil {
			return nil, err
		}
		if known {
			all := model.RootPermissions()
			perms = &all
		}
	}

	tree, err := root.FromCID(ctx, deps, id, perms)
	if err != nil {
		return nil, err
	}

	f := newFileSystem(tree, s)
	f.published = id
	return f, nil
}

func newFileSystem(tree *root.Tree, s *settings) *FileSystem {
	return &FileSystem{
		root:  tree,
		l:     s.l,
		hooks: s.hooks,
	}
}

// Root tree of the file system
func (f *FileSystem) Root() *root.Tree {
	return f.root
}

// Published returns the last published root, if any
func (f *FileSystem) Published() (cafs.Key, bool) {
	return f.published, !f.published.IsNil()
}

// Publish links the current state of all branches in a new root
func (f *FileSystem) Publish(ctx context.Context) (cafs.Key, error) {
	id, err := f.root.Put(ctx)
	if err != nil {
		return cafs.NilKey, err
	}
	f.published = id
	f.l.Info("published file system", zap.Stringer("root", id))

	for _, hook := range f.hooks {
		hook(ctx, id)
	}
	return id, nil
}

// Deactivate removes all publish hooks
func (f *FileSystem) Deactivate() {
	f.hooks = nil
}

// DivergencePoint compares the public history of the last published root with another root
func (f *FileSystem) DivergencePoint(ctx context.Context, remote cafs.Key) (reconcile.Point, error) {
	local, ok := f.Published()
	if !ok {
		return reconcile.Point{}, status.ErrNotFound.WrapMessage("file system was never published")
	}
	return reconcile.Roots(ctx, f.root.Deps().Fs, local, remote)
}

// Write a file, creating its missing parent directories
func (f *FileSystem) Write(ctx context.Context, posix string, content []byte) error {
	p := path.File(path.FromPosix(posix).Unwrap()...)
	lg := f.l.With(zap.Stringer("path", p))

	switch branchOf(p) {
	case path.Public:
		rel := p.RemoveBranch()
		if err := f.root.PublicTree().Add(ctx, rel, content); err != nil {
			return err
		}
		if err := f.root.PrettyTree().Add(ctx, rel, content); err != nil {
			return err
		}
		lg.Debug("wrote public file", zap.Int("size", len(content)))
		return f.updatePublic(ctx)

	case path.Private:
		err := f.applyPrivate(p, func(node private.Node, rel []string) error {
			switch n := node.(type) {
			case *private.Tree:
				return n.Add(ctx, rel, content)
			case *private.File:
				if len(rel) > 0 {
					return status.ErrNotADirectory.WrapMessage(p.ToPosix())
				}
				n.Update(content)
				_, err := n.Put(ctx)
				return err
			}
			return status.ErrInvalidPath.WrapMessage(p.ToPosix())
		})
		if err != nil {
			return err
		}
		lg.Debug("wrote private file", zap.Int("size", len(content)))
		return f.updatePrivate(ctx)
	}
	return status.ErrInvalidPath.WrapMessage(p.ToPosix())
}

// Mkdir creates a directory and its missing parents
func (f *FileSystem) Mkdir(ctx context.Context, posix string) error {
	p := path.Directory(path.FromPosix(posix).Unwrap()...)

	switch branchOf(p) {
	case path.Public:
		rel := p.RemoveBranch()
		if err := f.root.PublicTree().Mkdir(ctx, rel); err != nil {
			return err
		}
		if err := f.root.PrettyTree().Mkdir(ctx, rel); err != nil {
			return err
		}
		return f.updatePublic(ctx)

	case path.Private:
		err := f.applyPrivate(p, func(node private.Node, rel []string) error {
			tree, ok := node.(*private.Tree)
			if !ok {
				return status.ErrNotADirectory.WrapMessage(p.ToPosix())
			}
			if len(rel) == 0 {
				return nil
			}
			return tree.Mkdir(ctx, rel)
		})
		if err != nil {
			return err
		}
		return f.updatePrivate(ctx)
	}
	return status.ErrInvalidPath.WrapMessage(p.ToPosix())
}

// Rm removes a file or a directory
func (f *FileSystem) Rm(ctx context.Context, posix string) error {
	p := path.FromPosix(posix)

	switch branchOf(p) {
	case path.Public:
		rel := p.RemoveBranch()
		if err := f.root.PublicTree().Rm(ctx, rel); err != nil {
			return err
		}
		if err := f.root.PrettyTree().Rm(ctx, rel); err != nil {
			return err
		}
		return f.updatePublic(ctx)

	case path.Private:
		err := f.applyPrivate(p, func(node private.Node, rel []string) error {
			tree, ok := node.(*private.Tree)
			if !ok || len(rel) == 0 {
				// no loaded ancestor holds the node to remove: its parent was not granted
				return status.ErrNoPermission.WrapMessage(p.ToPosix())
			}
			return tree.Rm(ctx, rel)
		})
		if err != nil {
			return err
		}
		f.root.RemovePrivateNode(p)
		return f.updatePrivate(ctx)
	}
	return status.ErrInvalidPath.WrapMessage(p.ToPosix())
}

// Read the content of a file
func (f *FileSystem) Read(ctx context.Context, posix string) ([]byte, error) {
	p := path.File(path.FromPosix(posix).Unwrap()...)

	switch branchOf(p) {
	case path.Public:
		return f.root.PublicTree().Read(ctx, p.RemoveBranch())
	case path.Pretty:
		return f.root.PrettyTree().Read(ctx, p.RemoveBranch())
	case path.Private:
		node, rel, err := f.privateNode(p)
		if err != nil {
			return nil, err
		}
		switch n := node.(type) {
		case *private.Tree:
			return n.Read(ctx, rel)
		case *private.File:
			if len(rel) > 0 {
				return nil, status.ErrNotADirectory.WrapMessage(p.ToPosix())
			}
			return n.Content(), nil
		}
	}
	return nil, status.ErrInvalidPath.WrapMessage(p.ToPosix())
}

// Ls lists a directory
func (f *FileSystem) Ls(ctx context.Context, posix string) ([]model.Entry, error) {
	p := path.Directory(path.FromPosix(posix).Unwrap()...)

	switch branchOf(p) {
	case path.Public:
		return f.root.PublicTree().Ls(ctx, p.RemoveBranch())
	case path.Pretty:
		return f.root.PrettyTree().Ls(ctx, p.RemoveBranch())
	case path.Private:
		node, rel, err := f.privateNode(p)
		if err != nil {
			return nil, err
		}
		tree, ok := node.(*private.Tree)
		if !ok {
			return nil, status.ErrNotADirectory.WrapMessage(p.ToPosix())
		}
		return tree.Ls(ctx, rel)
	}
	return nil, status.ErrInvalidPath.WrapMessage(p.ToPosix())
}

// Exists tells if a file or a directory exists
func (f *FileSystem) Exists(ctx context.Context, posix string) (bool, error) {
	p := path.FromPosix(posix)

	switch branchOf(p) {
	case path.Public:
		return f.root.PublicTree().Exists(ctx, p.RemoveBranch())
	case path.Private:
		node, rel, err := f.privateNode(p)
		if err != nil {
			return false, err
		}
		tree, ok := node.(*private.Tree)
		if !ok {
			return len(rel) == 0, nil
		}
		return tree.Exists(ctx, rel)
	}
	return false, status.ErrInvalidPath.WrapMessage(p.ToPosix())
}

// Grant keeps the key of a private file or directory in the key store, and its bare name
// filter in the local cache. A later session restricted to this path may then load it.
func (f *FileSystem) Grant(ctx context.Context, posix string) error {
	p := path.FromPosix(posix)
	if !p.IsBranch(path.Private) {
		return status.ErrInvalidPath.WrapMessage(p.ToPosix())
	}

	node, rel, err := f.privateNode(p)
	if err != nil {
		return err
	}
	if len(rel) > 0 {
		tree, ok := node.(*private.Tree)
		if !ok {
			return status.ErrNotADirectory.WrapMessage(p.ToPosix())
		}
		if node, err = tree.Get(ctx, rel); err != nil {
			return err
		}
	}
	switch {
	case p.IsFile() && !node.IsFile():
		return status.ErrNotAFile.WrapMessage(p.ToPosix())
	case p.IsDirectory() && node.IsFile():
		return status.ErrNotADirectory.WrapMessage(p.ToPosix())
	}

	deps := f.root.Deps()
	header := node.Header()
	if err = deps.Keys.ImportSymmKey(ctx, identifiers.ReadKey(p), header.Key); err != nil {
		return err
	}
	if err = deps.Cache.SetItem(ctx, identifiers.BareNameFilter(p), []byte(header.BareNameFilter)); err != nil {
		return err
	}
	f.l.Debug("granted private path", zap.Stringer("path", p))
	return nil
}

// privateNode finds the nearest loaded private node above a path
func (f *FileSystem) privateNode(p path.Path) (private.Node, []string, error) {
	nodePath, node := f.root.FindPrivateNode(p)
	if node == nil {
		return nil, nil, status.ErrNoPermission.WrapMessage(p.ToPosix())
	}
	rel, _ := p.RelativeTo(nodePath)
	return node, rel, nil
}

// applyPrivate runs a change from the outermost loaded private node above a path,
// so that every loaded directory along the path is persisted with it.
func (f *FileSystem) applyPrivate(p path.Path, change func(private.Node, []string) error) error {
	for _, nodePath := range f.root.PrivatePaths() {
		rel, ok := p.RelativeTo(nodePath)
		if !ok {
			continue
		}
		node, _ := f.root.PrivateNode(nodePath)
		return change(node, rel)
	}
	return status.ErrNoPermission.WrapMessage(p.ToPosix())
}

// updatePublic links the new versions of the public and pretty trees
func (f *FileSystem) updatePublic(ctx context.Context) error {
	if err := f.root.UpdatePuttable(ctx, path.Public, f.root.PublicTree()); err != nil {
		return err
	}
	return f.root.UpdatePuttable(ctx, path.Pretty, f.root.PrettyTree())
}

// updatePrivate links the new version of the private index, and logs it
func (f *FileSystem) updatePrivate(ctx context.Context) error {
	mmpt := f.root.MMPT()
	if err := f.root.UpdatePuttable(ctx, path.Private, mmpt); err != nil {
		return err
	}
	return f.root.AddPrivateLogEntry(ctx, mmpt.ID())
}

func branchOf(p path.Path) path.Branch {
	branch, _ := p.Branch()
	return branch
}

package root

import (
	"context"

	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/fs/namefilter"
	"github.com/oneconcern/cairn/pkg/fs/private"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
	"github.com/oneconcern/cairn/pkg/path"
	"go.uber.org/zap"
)

// PermissionKeys fetches from the key store the keys of all private paths in perms.
// Public paths need no key and are skipped.
func PermissionKeys(ctx context.Context, keys keystore.KeyStore, perms model.Permissions) ([]model.PathKey, error) {
	var res []model.PathKey
	for _, p := range perms.Paths() {
		if p.IsBranch(path.Public) {
			continue
		}
		key, err := keys.ExportSymmKey(ctx, identifiers.ReadKey(p))
		if err != nil {
			return nil, status.ErrNoPermission.Wrap(err)
		}
		res = append(res, model.PathKey{Path: p, Key: key})
	}
	return res, nil
}

// PrivateNode returns the loaded private node at exactly this path
func (t *Tree) PrivateNode(p path.Path) (private.Node, bool) {
	v, ok := t.privateNodes.Get([]byte(p.ToPosix()))
	if !ok {
		return nil, false
	}
	return v.(private.Node), true
}

// SetPrivateNode registers a loaded private node at some path
func (t *Tree) SetPrivateNode(p path.Path, node private.Node) {
	t.privateNodes, _, _ = t.privateNodes.Insert([]byte(p.ToPosix()), node)
}

// PrivatePaths lists the paths of all loaded private nodes, sorted
func (t *Tree) PrivatePaths() []path.Path {
	res := make([]path.Path, 0, t.privateNodes.Len())
	t.privateNodes.Root().Walk(func(k []byte, _ interface{}) bool {
		res = append(res, path.FromPosix(string(k)))
		return false
	})
	return res
}

// FindPrivateNode returns the loaded private node at this path, or else at its nearest
// loaded ancestor. The node is nil when no ancestor is loaded.
func (t *Tree) FindPrivateNode(p path.Path) (path.Path, private.Node) {
	if node, ok := t.PrivateNode(p); ok {
		return p, node
	}
	parent, ok := p.Parent()
	if !ok {
		return p, nil
	}
	return t.FindPrivateNode(parent)
}

// LoadPrivateNodes loads the private nodes granted by keys.
//
// Keys are processed by path, so that ancestors are loaded before their descendants.
// The bare name filter of a path is looked up in the local cache first. On a miss, it
// is read from the nearest loaded ancestor, which creates the missing nodes on the way.
func (t *Tree) LoadPrivateNodes(ctx context.Context, keys []model.PathKey) error {
	sorted := make([]model.PathKey, len(keys))
	copy(sorted, keys)
	model.SortPathKeys(sorted)

	for _, pk := range sorted {
		lg := t.deps.Logger.With(zap.Stringer("path", pk.Path))

		if !pk.Path.IsBranch(path.Private) {
			lg.Debug("skipping non-private path")
			continue
		}

		var (
			node private.Node
			err  error
		)
		if pk.Path.IsBranchRoot() {
			node, err = private.FromBaseKey(ctx, t.mmpt, pk.Key)
		} else {
			node, err = t.loadGranted(ctx, pk)
		}
		if err != nil {
			return err
		}

		t.SetPrivateNode(pk.Path, node)
		if err = t.deps.Cache.SetItem(ctx, identifiers.BareNameFilter(pk.Path), []byte(node.Header().BareNameFilter)); err != nil {
			return err
		}
		lg.Debug("loaded private node")
	}
	return nil
}

func (t *Tree) loadGranted(ctx context.Context, pk model.PathKey) (private.Node, error) {
	filter, node, found, err := t.findBareNameFilter(ctx, pk)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, status.ErrMissingFilter.WrapMessage(pk.Path.ToPosix())
	}
	if node != nil && node.Header().Key == pk.Key && node.IsFile() == pk.Path.IsFile() {
		// share the node held by its loaded ancestor, so that both see the same writes
		return node, nil
	}

	if pk.Path.IsDirectory() {
		return private.FromBareNameFilter(ctx, t.mmpt, filter, pk.Key)
	}
	return private.LoadFile(ctx, t.mmpt, filter, pk.Key)
}

// findBareNameFilter resolves the filter of a granted path. When the path was resolved
// through a loaded ancestor, the node found there is returned too.
func (t *Tree) findBareNameFilter(ctx context.Context, pk model.PathKey) (namefilter.BareNameFilter, private.Node, bool, error) {
	cached, found, err := t.deps.Cache.GetItem(ctx, identifiers.BareNameFilter(pk.Path))
	if err != nil {
		return "", nil, false, err
	}
	if found {
		filter := namefilter.BareNameFilter(cached)
		if filter.Validate() == nil && t.mmpt.Exists(filter.Token()) {
			return filter, t.loadedDescendant(ctx, pk.Path, filter), true, nil
		}
		t.deps.Logger.Debug("ignoring stale cached bare name filter", zap.Stringer("path", pk.Path))
	}

	nodePath, node := t.FindPrivateNode(pk.Path)
	if node == nil {
		return "", nil, false, nil
	}

	rel, _ := pk.Path.RelativeTo(nodePath)
	tree, isTree := node.(*private.Tree)
	if !isTree {
		if len(rel) == 0 {
			return node.Header().BareNameFilter, node, true, nil
		}
		return "", nil, false, nil
	}

	exists, err := tree.Exists(ctx, rel)
	if err != nil {
		return "", nil, false, err
	}
	if !exists {
		if pk.Path.IsDirectory() {
			err = tree.MkdirWithKey(ctx, rel, pk.Key)
		} else {
			err = tree.AddWithKey(ctx, rel, []byte{}, pk.Key)
		}
		if err != nil {
			return "", nil, false, err
		}
	}

	child, err := tree.Get(ctx, rel)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return "", nil, false, nil
		}
		return "", nil, false, err
	}
	return child.Header().BareNameFilter, child, true, nil
}

// loadedDescendant returns the node indexed under filter at p when some loaded ancestor holds it
func (t *Tree) loadedDescendant(ctx context.Context, p path.Path, filter namefilter.BareNameFilter) private.Node {
	nodePath, node := t.FindPrivateNode(p)
	tree, ok := node.(*private.Tree)
	if !ok {
		return nil
	}
	rel, _ := p.RelativeTo(nodePath)
	if len(rel) == 0 {
		return nil
	}
	child, err := tree.Get(ctx, rel)
	if err != nil || child.Header().BareNameFilter != filter {
		return nil
	}
	return child
}

// RemovePrivateNode forgets the loaded private node at this path, and any loaded node below it
func (t *Tree) RemovePrivateNode(p path.Path) {
	t.privateNodes, _, _ = t.privateNodes.Delete([]byte(p.ToPosix()))
	dir := path.Directory(p.Unwrap()...).ToPosix()
	t.privateNodes, _ = t.privateNodes.DeletePrefix([]byte(dir))
}

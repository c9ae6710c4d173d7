package root

import (
	"context"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/fs/private"
	"github.com/oneconcern/cairn/pkg/fs/public"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
	"github.com/oneconcern/cairn/pkg/path"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Puttable knows how to persist itself
type Puttable interface {
	PutDetailed(context.Context) (cafs.PutRes, error)
}

// Tree is the root of a file system
type Tree struct {
	deps Deps

	links      cafs.Links
	mmpt       *private.MMPT
	privateLog []cafs.Link
	version    model.SemVer

	publicTree   *public.Tree
	prettyTree   *public.BareTree
	privateNodes *iradix.Tree // posix path -> private.Node, never persisted
}

// Empty builds a new file system, with its private root encrypted under rootKey
func Empty(ctx context.Context, deps Deps, rootKey string) (*Tree, error) {
	deps, err := deps.withDefaults(ctx)
	if err != nil {
		return nil, err
	}

	mmpt := private.Create(deps.Fs)
	privateRoot, err := private.CreateTree(mmpt, rootKey, nil)
	if err != nil {
		return nil, err
	}
	if _, err = privateRoot.Put(ctx); err != nil {
		return nil, err
	}

	nodes, _, _ := iradix.New().Insert([]byte(path.Directory(path.Private.String()).ToPosix()), private.Node(privateRoot))
	t := &Tree{
		deps:         deps,
		links:        make(cafs.Links),
		mmpt:         mmpt,
		publicTree:   public.Empty(deps.Fs),
		prettyTree:   public.EmptyBare(deps.Fs),
		privateNodes: nodes,
	}

	if err = StoreRootKey(ctx, deps.Keys, rootKey); err != nil {
		return nil, err
	}
	if err = t.SetVersion(ctx, model.CurrentVersion); err != nil {
		return nil, err
	}

	// sub-trees are disjoint: persist them concurrently, then link them all
	branches := []struct {
		name     path.Branch
		puttable Puttable
	}{
		{name: path.Public, puttable: t.publicTree},
		{name: path.Pretty, puttable: t.prettyTree},
		{name: path.Private, puttable: t.mmpt},
	}
	results := make([]cafs.PutRes, len(branches))
	errs := make([]error, len(branches))

	var wg sync.WaitGroup
	for i := range branches {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = branches[i].puttable.PutDetailed(ctx)
		}(i)
	}
	wg.Wait()

	if err = multierr.Combine(errs...); err != nil {
		return nil, err
	}
	for i, branch := range branches {
		t.UpdateLink(branch.name, results[i])
	}

	deps.Logger.Debug("created empty root tree")
	return t, nil
}

// FromCID loads a file system. Private nodes are loaded for the private paths in perms only.
func FromCID(ctx context.Context, deps Deps, id cafs.Key, perms *model.Permissions) (*Tree, error) {
	deps, err := deps.withDefaults(ctx)
	if err != nil {
		return nil, err
	}

	var keys []model.PathKey
	if perms != nil {
		if keys, err = PermissionKeys(ctx, deps.Keys, *perms); err != nil {
			return nil, err
		}
	}
	return FromCIDWithKeys(ctx, deps, id, keys)
}

// FromCIDWithKeys loads a file system, with the private nodes reachable from the given keys
func FromCIDWithKeys(ctx context.Context, deps Deps, id cafs.Key, keys []model.PathKey) (*Tree, error) {
	deps, err := deps.withDefaults(ctx)
	if err != nil {
		return nil, err
	}
	lg := deps.Logger.With(zap.Stringer("root", id))

	links, err := deps.Fs.GetLinks(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		deps:         deps,
		links:        links,
		privateNodes: iradix.New(),
	}

	if t.version, err = loadVersion(ctx, deps.Fs, links); err != nil {
		return nil, err
	}

	if link, ok := links.Get(path.Public.String()); ok {
		if t.publicTree, err = public.TreeFromCID(ctx, deps.Fs, link.ID); err != nil {
			return nil, err
		}
	} else {
		t.publicTree = public.Empty(deps.Fs)
	}

	if link, ok := links.Get(path.Pretty.String()); ok {
		if t.prettyTree, err = public.BareFromCID(ctx, deps.Fs, link.ID); err != nil {
			return nil, err
		}
	} else {
		t.prettyTree = public.EmptyBare(deps.Fs)
	}

	if link, ok := links.Get(path.Private.String()); ok {
		if t.mmpt, err = private.FromCID(ctx, deps.Fs, link.ID); err != nil {
			return nil, err
		}
		if err = t.LoadPrivateNodes(ctx, keys); err != nil {
			return nil, err
		}
	} else {
		t.mmpt = private.Create(deps.Fs)
	}

	if link, ok := links.Get(path.PrivateLog.String()); ok {
		if t.privateLog, err = deps.Fs.GetLinkedList(ctx, link.ID); err != nil {
			return nil, err
		}
	}

	lg.Debug("loaded root tree", zap.Int("private nodes", t.privateNodes.Len()), zap.Int("log chunks", len(t.privateLog)))
	return t, nil
}

func loadVersion(ctx context.Context, fs cafs.Fs, links cafs.Links) (model.SemVer, error) {
	link, ok := links.Get(path.Version.String())
	if !ok {
		return model.SemVer{}, status.ErrUnsupportedVersion.WrapMessage("root tree has no version")
	}
	data, err := fs.GetBytes(ctx, link.ID)
	if err != nil {
		return model.SemVer{}, err
	}
	version, err := model.ParseSemVer(string(data))
	if err != nil {
		return model.SemVer{}, status.ErrUnsupportedVersion.Wrap(err)
	}
	if !model.CurrentVersion.IsCompatible(version) {
		return model.SemVer{}, status.ErrUnsupportedVersion.WrapMessage(version.String())
	}
	return version, nil
}

// Put persists the root link table
func (t *Tree) Put(ctx context.Context) (cafs.Key, error) {
	res, err := t.PutDetailed(ctx)
	return res.Key, err
}

// PutDetailed persists the root link table
func (t *Tree) PutDetailed(ctx context.Context) (cafs.PutRes, error) {
	return t.deps.Fs.PutLinks(ctx, t.links)
}

// UpdateLink replaces a top-level link with a freshly persisted child
func (t *Tree) UpdateLink(name path.Branch, res cafs.PutRes) *Tree {
	t.links.Add(cafs.MakeLink(name.String(), res))
	return t
}

// UpdatePuttable persists a child and links it
func (t *Tree) UpdatePuttable(ctx context.Context, name path.Branch, puttable Puttable) error {
	res, err := puttable.PutDetailed(ctx)
	if err != nil {
		return err
	}
	t.UpdateLink(name, res)
	return nil
}

// SetVersion persists the version string and links it
func (t *Tree) SetVersion(ctx context.Context, version model.SemVer) error {
	res, err := t.deps.Fs.PutBytes(ctx, []byte(version.String()))
	if err != nil {
		return err
	}
	t.UpdateLink(path.Version, res)
	t.version = version
	return nil
}

// StoreRootKey keeps the key of the private root in the key store
func StoreRootKey(ctx context.Context, keys keystore.KeyStore, rootKey string) error {
	return keys.ImportSymmKey(ctx, identifiers.ReadKey(path.Directory(path.Private.String())), rootKey)
}

// Links of the root tree
func (t *Tree) Links() cafs.Links {
	return t.links.Copy()
}

// Version of the format of this tree
func (t *Tree) Version() model.SemVer {
	return t.version
}

// PublicTree of this file system
func (t *Tree) PublicTree() *public.Tree {
	return t.publicTree
}

// PrettyTree of this file system
func (t *Tree) PrettyTree() *public.BareTree {
	return t.prettyTree
}

// MMPT is the private index of this file system
func (t *Tree) MMPT() *private.MMPT {
	return t.mmpt
}

// Deps used by this tree
func (t *Tree) Deps() Deps {
	return t.deps
}

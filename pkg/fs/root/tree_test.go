package root

import (
	"context"
	"strings"
	"testing"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/identifiers"
	"github.com/oneconcern/cairn/pkg/fs/private"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
	"github.com/oneconcern/cairn/pkg/path"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func setupDeps(t testing.TB) Deps {
	ctx := context.Background()
	fs, err := cafs.New(cafs.Backend(localfs.New(afero.NewMemMapFs())))
	require.NoError(t, err)
	keys, err := keystore.New(ctx)
	require.NoError(t, err)
	return Deps{
		Fs:    fs,
		Keys:  keys,
		Cache: identifiers.NewCache(localfs.New(afero.NewMemMapFs())),
	}
}

func privateDir(segments ...string) path.Path {
	return path.Directory(append([]string{path.Private.String()}, segments...)...)
}

func TestEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	deps := setupDeps(t)
	rootKey := keystore.MustGenerateKey()

	tree, err := Empty(ctx, deps, rootKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"pretty", "private", "public", "version"}, tree.Links().Names())
	assert.Equal(t, model.V1, tree.Version())

	stored, err := deps.Keys.ExportSymmKey(ctx, identifiers.ReadKey(privateDir()))
	require.NoError(t, err)
	assert.Equal(t, rootKey, stored)

	_, node := tree.FindPrivateNode(path.File("private", "a", "b.txt"))
	require.NotNil(t, node)
	assert.Equal(t, rootKey, node.Header().Key)

	version, err := deps.Fs.GetBytes(ctx, tree.Links()["version"].ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", string(version))
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)
	rootKey := keystore.MustGenerateKey()

	tree, err := Empty(ctx, deps, rootKey)
	require.NoError(t, err)

	require.NoError(t, tree.PublicTree().Add(ctx, []string{"index.html"}, []byte("<h1>Hello</h1>")))
	require.NoError(t, tree.UpdatePuttable(ctx, path.Public, tree.PublicTree()))
	require.NoError(t, tree.PrettyTree().Add(ctx, []string{"index.html"}, []byte("<h1>Hello</h1>")))
	require.NoError(t, tree.UpdatePuttable(ctx, path.Pretty, tree.PrettyTree()))

	_, node := tree.FindPrivateNode(privateDir())
	require.NoError(t, node.(*private.Tree).Add(ctx, []string{"notes", "secret.md"}, []byte("private")))
	require.NoError(t, tree.UpdatePuttable(ctx, path.Private, tree.MMPT()))

	id, err := tree.Put(ctx)
	require.NoError(t, err)

	perms := model.Permissions{Private: []string{""}}
	loaded, err := FromCID(ctx, deps, id, &perms)
	require.NoError(t, err)

	assert.Equal(t, tree.PublicTree().ID(), loaded.PublicTree().ID())
	assert.Equal(t, tree.PrettyTree().ID(), loaded.PrettyTree().ID())
	assert.Equal(t, tree.MMPT().ID(), loaded.MMPT().ID())
	assert.Equal(t, tree.Links(), loaded.Links())

	content, err := loaded.PublicTree().Read(ctx, []string{"index.html"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>", string(content))

	privateRoot, ok := loaded.PrivateNode(privateDir())
	require.True(t, ok)
	content, err = privateRoot.(*private.Tree).Read(ctx, []string{"notes", "secret.md"})
	require.NoError(t, err)
	assert.Equal(t, "private", string(content))

	// without permissions, nothing private is decrypted
	anonymous, err := FromCID(ctx, deps, id, nil)
	require.NoError(t, err)
	assert.Empty(t, anonymous.PrivatePaths())
	assert.Equal(t, tree.MMPT().Len(), anonymous.MMPT().Len())
}

func TestFromCID_NoPermission(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)

	tree, err := Empty(ctx, deps, keystore.MustGenerateKey())
	require.NoError(t, err)
	id, err := tree.Put(ctx)
	require.NoError(t, err)

	perms := model.Permissions{Private: []string{"Documents/"}}
	_, err = FromCID(ctx, deps, id, &perms)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNoPermission))
	assert.True(t, errors.Is(err, keystore.ErrKeyNotFound))
}

func TestFromCID_UnsupportedVersion(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)

	tree, err := Empty(ctx, deps, keystore.MustGenerateKey())
	require.NoError(t, err)
	require.NoError(t, tree.SetVersion(ctx, model.SemVer{Major: 2}))
	id, err := tree.Put(ctx)
	require.NoError(t, err)

	_, err = FromCID(ctx, deps, id, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnsupportedVersion))

	require.NoError(t, tree.SetVersion(ctx, model.SemVer{Major: 1, Minor: 3}))
	id, err = tree.Put(ctx)
	require.NoError(t, err)
	_, err = FromCID(ctx, deps, id, nil)
	require.NoError(t, err)
}

func TestPrivateLog_Chunking(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)

	tree, err := Empty(ctx, deps, keystore.MustGenerateKey())
	require.NoError(t, err)

	for i := 0; i < LogChunkSize; i++ {
		require.NoError(t, tree.AddPrivateLogEntry(ctx, cafs.Sum([]byte{byte(i), byte(i >> 8)})))
	}
	log := tree.PrivateLog()
	require.Len(t, log, 1)
	full := log[0]

	require.NoError(t, tree.AddPrivateLogEntry(ctx, cafs.Sum([]byte("one more"))))
	log = tree.PrivateLog()
	require.Len(t, log, 2)
	assert.Equal(t, full, log[0], "a full chunk is never rewritten")
	assert.Equal(t, "0", log[0].Name)
	assert.Equal(t, "1", log[1].Name)

	first, err := deps.Fs.GetBytes(ctx, log[0].ID)
	require.NoError(t, err)
	assert.Len(t, splitEntries(string(first)), LogChunkSize)

	second, err := deps.Fs.GetBytes(ctx, log[1].ID)
	require.NoError(t, err)
	assert.Len(t, splitEntries(string(second)), 1)
	assert.Equal(t, hashEntry(cafs.Sum([]byte("one more"))), string(second))

	id, err := tree.Put(ctx)
	require.NoError(t, err)
	loaded, err := FromCID(ctx, deps, id, nil)
	require.NoError(t, err)
	assert.Equal(t, log, loaded.PrivateLog())

	entries, err := loaded.PrivateLogEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, LogChunkSize+1)
}

func TestLazyAuthorization(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)
	rootKey := keystore.MustGenerateKey()

	tree, err := Empty(ctx, deps, rootKey)
	require.NoError(t, err)
	id, err := tree.Put(ctx)
	require.NoError(t, err)

	// a key is granted for a deep directory which does not exist yet
	granted := privateDir("a", "b")
	grantedKey := keystore.MustGenerateKey()
	require.NoError(t, deps.Keys.ImportSymmKey(ctx, identifiers.ReadKey(granted), grantedKey))

	perms := model.Permissions{Private: []string{"", "a/b/"}}
	loaded, err := FromCID(ctx, deps, id, &perms)
	require.NoError(t, err)

	node, ok := loaded.PrivateNode(granted)
	require.True(t, ok)
	assert.Equal(t, grantedKey, node.Header().Key)
	assert.False(t, node.IsFile())

	privateRoot, ok := loaded.PrivateNode(privateDir())
	require.True(t, ok)
	exists, err := privateRoot.(*private.Tree).Exists(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, exists, "missing ancestors are created")

	require.NoError(t, loaded.UpdatePuttable(ctx, path.Private, loaded.MMPT()))
	id, err = loaded.Put(ctx)
	require.NoError(t, err)

	// the filter is now cached locally: the deep key alone is enough
	deep, err := FromCIDWithKeys(ctx, deps, id, []model.PathKey{{Path: granted, Key: grantedKey}})
	require.NoError(t, err)
	_, ok = deep.PrivateNode(granted)
	assert.True(t, ok)
	_, ok = deep.PrivateNode(privateDir())
	assert.False(t, ok)

	// on another device, without the cache nor any ancestor, the filter cannot be found
	other := deps
	other.Cache = identifiers.NewCache(localfs.New(afero.NewMemMapFs()))
	_, err = FromCIDWithKeys(ctx, other, id, []model.PathKey{{Path: granted, Key: grantedKey}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrMissingFilter))
}

func TestLazyAuthorization_File(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)
	rootKey := keystore.MustGenerateKey()

	tree, err := Empty(ctx, deps, rootKey)
	require.NoError(t, err)
	id, err := tree.Put(ctx)
	require.NoError(t, err)

	granted := path.File("private", "shared", "note.txt")
	grantedKey := keystore.MustGenerateKey()

	loaded, err := FromCIDWithKeys(ctx, deps, id, []model.PathKey{
		{Path: granted, Key: grantedKey},
		{Path: privateDir(), Key: rootKey},
	})
	require.NoError(t, err)

	node, ok := loaded.PrivateNode(granted)
	require.True(t, ok)
	require.True(t, node.IsFile())
	assert.Empty(t, node.(*private.File).Content())
}

func TestLazyAuthorization_SharedKey(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)
	rootKey := keystore.MustGenerateKey()

	tree, err := Empty(ctx, deps, rootKey)
	require.NoError(t, err)
	id, err := tree.Put(ctx)
	require.NoError(t, err)

	key := keystore.MustGenerateKey()
	_, err = FromCIDWithKeys(ctx, deps, id, []model.PathKey{
		{Path: privateDir(), Key: rootKey},
		{Path: privateDir("a"), Key: key},
		{Path: privateDir("b"), Key: key},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFilterCollision))
}

func TestLazyAuthorization_SharesAncestorNode(t *testing.T) {
	ctx := context.Background()
	deps := setupDeps(t)
	rootKey := keystore.MustGenerateKey()

	tree, err := Empty(ctx, deps, rootKey)
	require.NoError(t, err)
	id, err := tree.Put(ctx)
	require.NoError(t, err)

	granted := privateDir("a", "b")
	grantedKey := keystore.MustGenerateKey()
	keys := []model.PathKey{
		{Path: privateDir(), Key: rootKey},
		{Path: granted, Key: grantedKey},
	}

	assertShared := func(loaded *Tree) {
		node, ok := loaded.PrivateNode(granted)
		require.True(t, ok)
		privateRoot, ok := loaded.PrivateNode(privateDir())
		require.True(t, ok)
		held, err := privateRoot.(*private.Tree).Get(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Same(t, held, node)
	}

	// the filter is resolved through the ancestor
	loaded, err := FromCIDWithKeys(ctx, deps, id, keys)
	require.NoError(t, err)
	assertShared(loaded)

	require.NoError(t, loaded.UpdatePuttable(ctx, path.Private, loaded.MMPT()))
	id, err = loaded.Put(ctx)
	require.NoError(t, err)

	// the filter is found in the local cache
	loaded, err = FromCIDWithKeys(ctx, deps, id, keys)
	require.NoError(t, err)
	assertShared(loaded)
}

func TestRemovePrivateNode(t *testing.T) {
	ctx := context.Background()
	tree, err := Empty(ctx, setupDeps(t), keystore.MustGenerateKey())
	require.NoError(t, err)

	node, _ := tree.PrivateNode(privateDir())
	tree.SetPrivateNode(privateDir("docs"), node)
	tree.SetPrivateNode(privateDir("docs", "deep"), node)
	tree.SetPrivateNode(path.File("private", "docs.txt"), node)

	tree.RemovePrivateNode(path.File("private", "docs"))
	assert.Equal(t, []string{"private/", "private/docs.txt"}, posixPaths(tree.PrivatePaths()))
}

func posixPaths(paths []path.Path) []string {
	res := make([]string, 0, len(paths))
	for _, p := range paths {
		res = append(res, p.ToPosix())
	}
	return res
}

func TestFindPrivateNode(t *testing.T) {
	ctx := context.Background()
	tree, err := Empty(ctx, setupDeps(t), keystore.MustGenerateKey())
	require.NoError(t, err)

	at, node := tree.FindPrivateNode(path.File("private", "x", "y.txt"))
	require.NotNil(t, node)
	assert.Equal(t, "private/", at.ToPosix())

	at, node = tree.FindPrivateNode(path.File("public", "x.txt"))
	assert.Nil(t, node)
	assert.True(t, at.IsRoot())
}

func TestConcurrentEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	deps := setupDeps(t)

	done := make(chan error)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := Empty(ctx, deps, keystore.MustGenerateKey())
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}
}

func splitEntries(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, logSeparator)
}

package private

import (
	"context"
	"testing"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFs(t testing.TB) cafs.Fs {
	fs, err := cafs.New(cafs.Backend(localfs.New(afero.NewMemMapFs())))
	require.NoError(t, err)
	return fs
}

func setupRoot(t testing.TB) (*MMPT, *Tree, string) {
	mmpt := Create(setupFs(t))
	key := keystore.MustGenerateKey()
	root, err := CreateTree(mmpt, key, nil)
	require.NoError(t, err)
	_, err = root.Put(context.Background())
	require.NoError(t, err)
	return mmpt, root, key
}

func TestTree_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mmpt, root, key := setupRoot(t)

	require.NoError(t, root.Add(ctx, []string{"a", "b", "c.txt"}, []byte("content")))
	require.NoError(t, root.Mkdir(ctx, []string{"docs"}))

	id, err := mmpt.Put(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, mmpt.ID())

	reloaded, err := FromCID(ctx, mmpt.Fs(), id)
	require.NoError(t, err)
	assert.Equal(t, mmpt.Len(), reloaded.Len())
	assert.Equal(t, 5, reloaded.Len(), "root, a, b, c.txt and docs are indexed")

	tree, err := FromBaseKey(ctx, reloaded, key)
	require.NoError(t, err)

	content, err := tree.Read(ctx, []string{"a", "b", "c.txt"})
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))

	entries, err := tree.Ls(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.False(t, entries[0].IsFile)
	assert.Equal(t, "docs", entries[1].Name)

	entries, err = tree.Ls(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsFile)
	assert.True(t, entries[0].Size > 0)
}

func TestTree_WrongKey(t *testing.T) {
	ctx := context.Background()
	mmpt, root, _ := setupRoot(t)

	_, err := FromBareNameFilter(ctx, mmpt, root.Header().BareNameFilter, keystore.MustGenerateKey())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDecryption))
}

func TestTree_MissingEntry(t *testing.T) {
	ctx := context.Background()
	mmpt := Create(setupFs(t))

	_, err := FromBaseKey(ctx, mmpt, keystore.MustGenerateKey())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestTree_ExistsRm(t *testing.T) {
	ctx := context.Background()
	_, root, _ := setupRoot(t)

	require.NoError(t, root.Add(ctx, []string{"notes", "todo.md"}, []byte("- write tests")))

	exists, err := root.Exists(ctx, []string{"notes", "todo.md"})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = root.Exists(ctx, []string{"notes", "todo.md", "below"})
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, root.Rm(ctx, []string{"notes", "todo.md"}))
	exists, err = root.Exists(ctx, []string{"notes", "todo.md"})
	require.NoError(t, err)
	assert.False(t, exists)

	err = root.Rm(ctx, []string{"notes", "todo.md"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	err = root.Rm(ctx, []string{"nowhere", "todo.md"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestTree_KindMismatch(t *testing.T) {
	ctx := context.Background()
	_, root, _ := setupRoot(t)

	require.NoError(t, root.Add(ctx, []string{"file.txt"}, []byte("x")))
	require.NoError(t, root.Mkdir(ctx, []string{"dir"}))

	err := root.Mkdir(ctx, []string{"file.txt"})
	assert.True(t, errors.Is(err, status.ErrNotADirectory))

	err = root.Add(ctx, []string{"dir"}, []byte("y"))
	assert.True(t, errors.Is(err, status.ErrNotAFile))

	err = root.Add(ctx, []string{"file.txt", "below"}, []byte("y"))
	assert.True(t, errors.Is(err, status.ErrNotADirectory))

	_, err = root.Read(ctx, []string{"dir"})
	assert.True(t, errors.Is(err, status.ErrNotAFile))

	require.NoError(t, root.Mkdir(ctx, []string{"dir"}), "mkdir on an existing directory is a no-op")
}

func TestTree_WithKey(t *testing.T) {
	ctx := context.Background()
	mmpt, root, _ := setupRoot(t)

	dirKey := keystore.MustGenerateKey()
	fileKey := keystore.MustGenerateKey()
	require.NoError(t, root.MkdirWithKey(ctx, []string{"shared", "granted"}, dirKey))
	require.NoError(t, root.AddWithKey(ctx, []string{"shared", "granted.txt"}, []byte("hi"), fileKey))

	node, err := root.Get(ctx, []string{"shared", "granted"})
	require.NoError(t, err)
	assert.Equal(t, dirKey, node.Header().Key)

	// the holder of the granted key alone can load the node, knowing its filter
	dir, err := FromBareNameFilter(ctx, mmpt, node.Header().BareNameFilter, dirKey)
	require.NoError(t, err)
	assert.Empty(t, dir.Links())

	fileNode, err := root.Get(ctx, []string{"shared", "granted.txt"})
	require.NoError(t, err)
	file, err := LoadFile(ctx, mmpt, fileNode.Header().BareNameFilter, fileKey)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(file.Content()))

	_, err = LoadFile(ctx, mmpt, node.Header().BareNameFilter, dirKey)
	assert.True(t, errors.Is(err, status.ErrNotAFile))

	shared, err := root.Get(ctx, []string{"shared"})
	require.NoError(t, err)
	assert.NotEqual(t, dirKey, shared.Header().Key, "intermediate directories get fresh keys")
	assert.True(t, node.Header().BareNameFilter.Descends(shared.Header().BareNameFilter))
}

func TestFile_History(t *testing.T) {
	ctx := context.Background()
	_, root, _ := setupRoot(t)

	require.NoError(t, root.Add(ctx, []string{"log.txt"}, []byte("v1")))
	node, err := root.Get(ctx, []string{"log.txt"})
	require.NoError(t, err)
	first, ok := node.ID()
	require.True(t, ok)
	assert.Nil(t, node.Header().Previous)

	require.NoError(t, root.Add(ctx, []string{"log.txt"}, []byte("v2")))
	node, err = root.Get(ctx, []string{"log.txt"})
	require.NoError(t, err)
	require.NotNil(t, node.Header().Previous)
	assert.Equal(t, first, *node.Header().Previous)

	content, err := root.Read(ctx, []string{"log.txt"})
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))
}

func TestMMPT_Collision(t *testing.T) {
	mmpt := Create(setupFs(t))
	link := cafs.Link{ID: cafs.Sum([]byte("blob")), Size: 4}

	require.NoError(t, mmpt.Add("token", link, fingerprint("k1")))
	require.NoError(t, mmpt.Add("token", link, fingerprint("k1")))

	err := mmpt.Add("token", link, fingerprint("k2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFilterCollision))

	got, ok := mmpt.Get("token")
	require.True(t, ok)
	assert.Equal(t, "token", got.Name)
	assert.True(t, mmpt.Exists("token"))
	assert.False(t, mmpt.Exists("other"))
	assert.Len(t, mmpt.Members(), 1)
}

func TestMMPT_SameKeyTwoNodes(t *testing.T) {
	ctx := context.Background()
	mmpt, root, key := setupRoot(t)

	// another root node under the same key claims the same entry: that is the same node
	again, err := CreateTree(mmpt, key, nil)
	require.NoError(t, err)
	assert.Equal(t, root.Header().BareNameFilter, again.Header().BareNameFilter)
	_, err = again.Put(ctx)
	require.NoError(t, err)
}

func TestTree_SiblingsSharingKey(t *testing.T) {
	ctx := context.Background()
	mmpt, root, rootKey := setupRoot(t)
	key := keystore.MustGenerateKey()

	require.NoError(t, root.AddWithKey(ctx, []string{"a.txt"}, []byte("content of a"), key))

	err := root.AddWithKey(ctx, []string{"b.txt"}, []byte("content of b"), key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFilterCollision))

	err = root.MkdirWithKey(ctx, []string{"c"}, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrFilterCollision))

	ok, err := root.Exists(ctx, []string{"b.txt"})
	require.NoError(t, err)
	assert.False(t, ok)

	// the first node is left intact
	id, err := mmpt.Put(ctx)
	require.NoError(t, err)
	reloaded, err := FromCID(ctx, mmpt.Fs(), id)
	require.NoError(t, err)
	tree, err := FromBaseKey(ctx, reloaded, rootKey)
	require.NoError(t, err)
	content, err := tree.Read(ctx, []string{"a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "content of a", string(content))

	// updating the existing file under its own key is not a collision
	require.NoError(t, root.AddWithKey(ctx, []string{"a.txt"}, []byte("a, again"), key))
}

package public

import (
	"context"
	"testing"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/status"
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

func TestTree_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := setupFs(t)

	tree := Empty(fs)
	require.NoError(t, tree.Add(ctx, []string{"index.html"}, []byte("<h1>Hello</h1>")))
	require.NoError(t, tree.Add(ctx, []string{"test", "doc.md"}, []byte("---")))
	require.NoError(t, tree.Mkdir(ctx, []string{"empty", "dir"}))

	id, err := tree.Put(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, tree.ID())

	loaded, err := TreeFromCID(ctx, fs, id)
	require.NoError(t, err)

	content, err := loaded.Read(ctx, []string{"test", "doc.md"})
	require.NoError(t, err)
	assert.Equal(t, "---", string(content))

	entries, err := loaded.Ls(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "empty", entries[0].Name)
	assert.Equal(t, "index.html", entries[1].Name)
	assert.True(t, entries[1].IsFile)
	assert.Equal(t, "test", entries[2].Name)

	exists, err := loaded.Exists(ctx, []string{"empty", "dir"})
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = TreeFromCID(ctx, fs, loaded.Links()["index.html"].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotADirectory))
}

func TestTree_History(t *testing.T) {
	ctx := context.Background()
	fs := setupFs(t)

	tree := Empty(fs)
	first, err := tree.Put(ctx)
	require.NoError(t, err)
	_, hasPrevious := tree.Previous()
	assert.False(t, hasPrevious)

	require.NoError(t, tree.Add(ctx, []string{"index.html"}, []byte("v1")))
	second := tree.ID()
	previous, hasPrevious := tree.Previous()
	require.True(t, hasPrevious)
	assert.Equal(t, first, previous)

	require.NoError(t, tree.Add(ctx, []string{"index.html"}, []byte("v2")))

	loaded, err := TreeFromCID(ctx, fs, tree.ID())
	require.NoError(t, err)
	previous, hasPrevious = loaded.Previous()
	require.True(t, hasPrevious)
	assert.Equal(t, second, previous)

	older, err := TreeFromCID(ctx, fs, previous)
	require.NoError(t, err)
	content, err := older.Read(ctx, []string{"index.html"})
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	file, err := loaded.Get(ctx, []string{"index.html"})
	require.NoError(t, err)
	_, fileHasPrevious := file.Previous()
	assert.True(t, fileHasPrevious, "files keep their own history")
}

func TestTree_UnchangedPutKeepsVersion(t *testing.T) {
	ctx := context.Background()
	tree := Empty(setupFs(t))

	require.NoError(t, tree.Add(ctx, []string{"index.html"}, []byte("v1")))
	written := tree.ID()
	previous, _ := tree.Previous()

	again, err := tree.Put(ctx)
	require.NoError(t, err)
	assert.Equal(t, written, again)
	stillPrevious, _ := tree.Previous()
	assert.Equal(t, previous, stillPrevious)
}

func TestTree_EmptyTreesAreDistinct(t *testing.T) {
	ctx := context.Background()
	fs := setupFs(t)

	a, err := Empty(fs).Put(ctx)
	require.NoError(t, err)
	b, err := Empty(fs).Put(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTree_Errors(t *testing.T) {
	ctx := context.Background()
	tree := Empty(setupFs(t))

	require.NoError(t, tree.Add(ctx, []string{"file.txt"}, []byte("x")))

	err := tree.Mkdir(ctx, []string{"file.txt"})
	assert.True(t, errors.Is(err, status.ErrNotADirectory))

	err = tree.Add(ctx, []string{"file.txt", "below"}, []byte("x"))
	assert.True(t, errors.Is(err, status.ErrNotADirectory))

	_, err = tree.Read(ctx, []string{"missing"})
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = tree.Read(ctx, nil)
	assert.True(t, errors.Is(err, status.ErrNotAFile))

	_, err = tree.Ls(ctx, []string{"file.txt"})
	assert.True(t, errors.Is(err, status.ErrNotADirectory))

	err = tree.Add(ctx, nil, []byte("x"))
	assert.True(t, errors.Is(err, status.ErrInvalidPath))

	require.NoError(t, tree.Rm(ctx, []string{"file.txt"}))
	err = tree.Rm(ctx, []string{"file.txt"})
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestBareTree(t *testing.T) {
	ctx := context.Background()
	fs := setupFs(t)

	bare := EmptyBare(fs)
	require.NoError(t, bare.Add(ctx, []string{"a", "b", "c.txt"}, []byte("content")))
	require.NoError(t, bare.Mkdir(ctx, []string{"docs"}))

	loaded, err := BareFromCID(ctx, fs, bare.ID())
	require.NoError(t, err)

	content, err := loaded.Read(ctx, []string{"a", "b", "c.txt"})
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))

	// files link raw content blocks
	links, err := fs.GetLinks(ctx, bare.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "docs"}, links.Names())

	entries, err := loaded.Ls(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(len("content")), entries[0].Size)

	require.NoError(t, loaded.Rm(ctx, []string{"a", "b", "c.txt"}))
	_, err = loaded.Read(ctx, []string{"a", "b", "c.txt"})
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = loaded.Read(ctx, []string{"a"})
	assert.True(t, errors.Is(err, status.ErrNotAFile))

	err = loaded.Mkdir(ctx, []string{"a", "b"})
	require.NoError(t, err)
}

package reconcile

import (
	"context"
	"sync"
	"testing"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/fs/root"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/path"
	"github.com/oneconcern/cairn/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type file struct {
	path    []string
	content string
}

var (
	setupFiles = []file{
		{path: []string{"index.html"}, content: "<h1>Hello</h1>"},
		{path: []string{"doc.md"}, content: "# Hello"},
		{path: []string{"test", "doc.md"}, content: "---"},
	}
	remoteFiles = []file{
		{path: []string{"index.html"}, content: "remote v1"},
		{path: []string{"index.html"}, content: "remote v2"},
	}
	localFiles = []file{
		{path: []string{"doc.md"}, content: "local"},
	}
)

type scenario struct {
	fs           cafs.Fs
	deps         root.Deps
	a, b, c      cafs.Key
	commonPublic cafs.Key
}

func writeFiles(ctx context.Context, t testing.TB, tree *root.Tree, files []file) cafs.Key {
	for _, f := range files {
		require.NoError(t, tree.PublicTree().Add(ctx, f.path, []byte(f.content)))
		require.NoError(t, tree.UpdatePuttable(ctx, path.Public, tree.PublicTree()))
	}
	id, err := tree.Put(ctx)
	require.NoError(t, err)
	return id
}

// setupScenario derives B (two remote writes) and C (one local write) from a common root A
func setupScenario(t testing.TB) scenario {
	ctx := context.Background()
	fs, err := cafs.New(cafs.Backend(localfs.New(afero.NewMemMapFs())))
	require.NoError(t, err)
	s := scenario{fs: fs, deps: root.Deps{Fs: fs}}

	common, err := root.Empty(ctx, s.deps, keystore.MustGenerateKey())
	require.NoError(t, err)
	s.a = writeFiles(ctx, t, common, setupFiles)
	s.commonPublic = common.PublicTree().ID()

	remote, err := root.FromCID(ctx, s.deps, s.a, nil)
	require.NoError(t, err)
	s.b = writeFiles(ctx, t, remote, remoteFiles)

	local, err := root.FromCID(ctx, s.deps, s.a, nil)
	require.NoError(t, err)
	s.c = writeFiles(ctx, t, local, localFiles)

	return s
}

func TestRoots_Diverged(t *testing.T) {
	s := setupScenario(t)

	point, err := Roots(context.Background(), s.fs, s.c, s.b)
	require.NoError(t, err)
	assert.Equal(t, s.commonPublic, point.Common.ID())
	assert.Len(t, point.FutureLocal, 1)
	assert.Len(t, point.FutureRemote, 2)
	assert.Equal(t, Diverged, point.Relation())
}

func TestRoots_FastForward(t *testing.T) {
	s := setupScenario(t)

	point, err := Roots(context.Background(), s.fs, s.a, s.b)
	require.NoError(t, err)
	assert.Equal(t, s.commonPublic, point.Common.ID())
	assert.Empty(t, point.FutureLocal)
	assert.NotEmpty(t, point.FutureRemote)
	assert.Equal(t, FastForward, point.Relation())
}

func TestRoots_Push(t *testing.T) {
	s := setupScenario(t)

	point, err := Roots(context.Background(), s.fs, s.c, s.a)
	require.NoError(t, err)
	assert.Equal(t, s.commonPublic, point.Common.ID())
	assert.Empty(t, point.FutureRemote)
	assert.NotEmpty(t, point.FutureLocal)
	assert.Equal(t, Push, point.Relation())
}

func TestRoots_UpToDate(t *testing.T) {
	s := setupScenario(t)

	point, err := Roots(context.Background(), s.fs, s.b, s.b)
	require.NoError(t, err)
	assert.Equal(t, UpToDate, point.Relation())
	assert.Equal(t, "up-to-date", point.Relation().String())
}

func TestRoots_Unrelated(t *testing.T) {
	ctx := context.Background()
	fs, err := cafs.New(cafs.Backend(localfs.New(afero.NewMemMapFs())))
	require.NoError(t, err)
	deps := root.Deps{Fs: fs}

	first, err := root.Empty(ctx, deps, keystore.MustGenerateKey())
	require.NoError(t, err)
	firstID, err := first.Put(ctx)
	require.NoError(t, err)

	second, err := root.Empty(ctx, deps, keystore.MustGenerateKey())
	require.NoError(t, err)
	secondID := writeFiles(ctx, t, second, localFiles)

	_, err = Roots(ctx, fs, firstID, secondID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnrelatedHistory))
}

func TestRoots_Cancelled(t *testing.T) {
	s := setupScenario(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Roots(ctx, s.fs, s.c, s.b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRoots_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)
	s := setupScenario(t)

	pairs := [][2]cafs.Key{{s.c, s.b}, {s.a, s.b}, {s.c, s.a}, {s.b, s.b}}
	expected := []Relation{Diverged, FastForward, Push, UpToDate}

	var wg sync.WaitGroup
	results := make([]Relation, 4*len(pairs))
	errs := make([]error, 4*len(pairs))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair := pairs[i%len(pairs)]
			point, err := Roots(context.Background(), s.fs, pair[0], pair[1])
			errs[i] = err
			results[i] = point.Relation()
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, expected[i%len(pairs)], results[i])
	}
}

type fakeNode struct {
	id       cafs.Key
	previous *cafs.Key
}

func (n fakeNode) ID() cafs.Key { return n.id }

func (n fakeNode) Previous() (cafs.Key, bool) {
	if n.previous == nil {
		return cafs.NilKey, false
	}
	return *n.previous, true
}

func chain(names ...string) map[cafs.Key]Node {
	nodes := make(map[cafs.Key]Node, len(names))
	var previous *cafs.Key
	for _, name := range names {
		id := cafs.Sum([]byte(name))
		nodes[id] = fakeNode{id: id, previous: previous}
		p := id
		previous = &p
	}
	return nodes
}

func TestDivergencePoint_UnevenDepths(t *testing.T) {
	// shared: a <- b ; local: b <- l1 ; remote: b <- r1 <- r2 <- r3 <- r4
	nodes := chain("a", "b", "l1")
	remote := chain("a", "b", "r1", "r2", "r3", "r4")
	for k, v := range remote {
		nodes[k] = v
	}
	load := func(_ context.Context, id cafs.Key) (Node, error) {
		return nodes[id], nil
	}

	point, err := DivergencePoint(context.Background(), nodes[cafs.Sum([]byte("l1"))], nodes[cafs.Sum([]byte("r4"))], load)
	require.NoError(t, err)
	assert.Equal(t, cafs.Sum([]byte("b")), point.Common.ID())
	assert.Len(t, point.FutureLocal, 1)
	assert.Len(t, point.FutureRemote, 4)
	assert.Equal(t, cafs.Sum([]byte("r4")), point.FutureRemote[0].ID())
}

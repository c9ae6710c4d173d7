// Package reconcile locates the divergence point of two histories.
//
// Given two heads, it walks back their "previous" chains until a version common to
// both is found, and reports the versions unique to each side. It never merges content.
package reconcile

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/public"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/path"
)

// Node is a version in a history
type Node interface {
	ID() cafs.Key
	Previous() (cafs.Key, bool)
}

// Loader fetches a version by id
type Loader func(context.Context, cafs.Key) (Node, error)

// Relation between a local and a remote history
type Relation uint8

// Relations
const (
	UpToDate Relation = iota
	Push
	FastForward
	Diverged
)

func (r Relation) String() string {
	switch r {
	case UpToDate:
		return "up-to-date"
	case Push:
		return "push"
	case FastForward:
		return "fast-forward"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// Point is the divergence point of two histories.
//
// Futures are ordered from the most recent version, and exclude the common ancestor.
type Point struct {
	Common       Node
	FutureLocal  []Node
	FutureRemote []Node
}

// Relation classifies the two histories
func (p Point) Relation() Relation {
	switch {
	case len(p.FutureLocal) == 0 && len(p.FutureRemote) == 0:
		return UpToDate
	case len(p.FutureRemote) == 0:
		return Push
	case len(p.FutureLocal) == 0:
		return FastForward
	default:
		return Diverged
	}
}

type history struct {
	nodes []Node
	index map[cafs.Key]int
}

func newHistory(head Node) *history {
	return &history{
		nodes: []Node{head},
		index: map[cafs.Key]int{head.ID(): 0},
	}
}

func (h *history) head() Node {
	return h.nodes[len(h.nodes)-1]
}

func (h *history) find(id cafs.Key) (int, bool) {
	i, ok := h.index[id]
	return i, ok
}

// advance loads the previous version of the head. It returns false when the head has no previous version.
func (h *history) advance(ctx context.Context, load Loader) (bool, error) {
	previous, ok := h.head().Previous()
	if !ok {
		return false, nil
	}
	node, err := load(ctx, previous)
	if err != nil {
		return false, err
	}
	if _, seen := h.index[node.ID()]; !seen {
		h.index[node.ID()] = len(h.nodes)
	}
	h.nodes = append(h.nodes, node)
	return true, nil
}

func (h *history) before(i int) []Node {
	res := make([]Node, i)
	copy(res, h.nodes[:i])
	return res
}

// DivergencePoint walks back both histories in lockstep, until the head of one is found in the other.
//
// A history without previous version stops, while the other one keeps walking.
// When neither may walk further, the histories are unrelated.
func DivergencePoint(ctx context.Context, local, remote Node, load Loader) (Point, error) {
	historyLocal := newHistory(local)
	historyRemote := newHistory(remote)

	for {
		if err := ctx.Err(); err != nil {
			return Point{}, err
		}

		currentLocal := historyLocal.head()
		if j, ok := historyRemote.find(currentLocal.ID()); ok {
			return Point{
				Common:       currentLocal,
				FutureLocal:  historyLocal.before(len(historyLocal.nodes) - 1),
				FutureRemote: historyRemote.before(j),
			}, nil
		}

		currentRemote := historyRemote.head()
		if i, ok := historyLocal.find(currentRemote.ID()); ok {
			return Point{
				Common:       currentRemote,
				FutureLocal:  historyLocal.before(i),
				FutureRemote: historyRemote.before(len(historyRemote.nodes) - 1),
			}, nil
		}

		advancedLocal, err := historyLocal.advance(ctx, load)
		if err != nil {
			return Point{}, err
		}
		advancedRemote, err := historyRemote.advance(ctx, load)
		if err != nil {
			return Point{}, err
		}
		if !advancedLocal && !advancedRemote {
			return Point{}, status.ErrUnrelatedHistory
		}
	}
}

// PublicLoader loads versions of public trees
func PublicLoader(fs cafs.Fs) Loader {
	return func(ctx context.Context, id cafs.Key) (Node, error) {
		node, err := public.FromCID(ctx, fs, id)
		if err != nil {
			return nil, err
		}
		return node, nil
	}
}

// Roots locates the divergence point of the public trees of two root trees
func Roots(ctx context.Context, fs cafs.Fs, localRoot, remoteRoot cafs.Key) (Point, error) {
	load := PublicLoader(fs)

	local, err := publicTreeOf(ctx, fs, localRoot, load)
	if err != nil {
		return Point{}, err
	}
	remote, err := publicTreeOf(ctx, fs, remoteRoot, load)
	if err != nil {
		return Point{}, err
	}
	return DivergencePoint(ctx, local, remote, load)
}

func publicTreeOf(ctx context.Context, fs cafs.Fs, root cafs.Key, load Loader) (Node, error) {
	links, err := fs.GetLinks(ctx, root)
	if err != nil {
		return nil, err
	}
	link, ok := links.Get(path.Public.String())
	if !ok {
		return nil, status.ErrNotFound.WrapMessage("root tree has no public tree: " + root.String())
	}
	return load(ctx, link.ID)
}

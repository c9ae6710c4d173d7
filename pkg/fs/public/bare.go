package public

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/model"
)

// BareTree is a plain directory: a link table, without metadata nor history.
// Files are linked as raw content blocks.
type BareTree struct {
	fs       cafs.Fs
	links    cafs.Links
	children map[string]*BareTree
	id       cafs.Key
}

// EmptyBare builds an empty bare directory
func EmptyBare(fs cafs.Fs) *BareTree {
	return &BareTree{
		fs:       fs,
		links:    make(cafs.Links),
		children: make(map[string]*BareTree),
	}
}

// BareFromCID loads a bare directory
func BareFromCID(ctx context.Context, fs cafs.Fs, id cafs.Key) (*BareTree, error) {
	links, err := fs.GetLinks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BareTree{
		fs:       fs,
		links:    links,
		children: make(map[string]*BareTree),
		id:       id,
	}, nil
}

// ID of the last persisted version, or the nil key
func (b *BareTree) ID() cafs.Key {
	return b.id
}

// PutDetailed persists the directory
func (b *BareTree) PutDetailed(ctx context.Context) (cafs.PutRes, error) {
	res, err := b.fs.PutLinks(ctx, b.links)
	if err != nil {
		return cafs.PutRes{}, err
	}
	b.id = res.Key
	return res, nil
}

// Ls lists a directory
func (b *BareTree) Ls(ctx context.Context, rel []string) ([]model.Entry, error) {
	dir, err := b.dir(ctx, rel, false)
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(dir.links))
	for _, link := range dir.links.Sorted() {
		entries = append(entries, model.Entry{Name: link.Name, IsFile: link.IsFile, Size: link.Size})
	}
	return entries, nil
}

// Read the content of a file
func (b *BareTree) Read(ctx context.Context, rel []string) ([]byte, error) {
	if len(rel) == 0 {
		return nil, status.ErrNotAFile
	}
	dir, err := b.dir(ctx, rel[:len(rel)-1], false)
	if err != nil {
		return nil, err
	}
	link, ok := dir.links.Get(rel[len(rel)-1])
	if !ok {
		return nil, status.ErrNotFound.WrapMessage(rel[len(rel)-1])
	}
	if !link.IsFile {
		return nil, status.ErrNotAFile
	}
	return b.fs.GetBytes(ctx, link.ID)
}

// Add writes a file, creating missing directories
func (b *BareTree) Add(ctx context.Context, rel []string, content []byte) error {
	return b.apply(ctx, rel, true, func(ctx context.Context, parent *BareTree, name string) (*cafs.Link, error) {
		if link, ok := parent.links.Get(name); ok && !link.IsFile {
			return nil, status.ErrNotAFile
		}
		res, err := parent.fs.PutBytes(ctx, content)
		if err != nil {
			return nil, err
		}
		link := cafs.MakeLink(name, res)
		return &link, nil
	})
}

// Mkdir creates a directory and its missing ancestors
func (b *BareTree) Mkdir(ctx context.Context, rel []string) error {
	if len(rel) == 0 {
		return nil
	}
	return b.apply(ctx, rel, true, func(ctx context.Context, parent *BareTree, name string) (*cafs.Link, error) {
		dir, err := parent.subdir(ctx, name, true)
		if err != nil {
			return nil, err
		}
		res, err := dir.PutDetailed(ctx)
		if err != nil {
			return nil, err
		}
		parent.children[name] = dir
		link := cafs.MakeLink(name, res)
		return &link, nil
	})
}

// Rm removes a file or directory
func (b *BareTree) Rm(ctx context.Context, rel []string) error {
	return b.apply(ctx, rel, false, func(_ context.Context, parent *BareTree, name string) (*cafs.Link, error) {
		if _, ok := parent.links.Get(name); !ok {
			return nil, status.ErrNotFound.WrapMessage(name)
		}
		return nil, nil
	})
}

func (b *BareTree) apply(ctx context.Context, rel []string, create bool, change func(context.Context, *BareTree, string) (*cafs.Link, error)) error {
	if len(rel) == 0 {
		return status.ErrInvalidPath.WrapMessage("empty relative path")
	}
	if err := b.applyBelow(ctx, rel, create, change); err != nil {
		return err
	}
	_, err := b.PutDetailed(ctx)
	return err
}

func (b *BareTree) applyBelow(ctx context.Context, rel []string, create bool, change func(context.Context, *BareTree, string) (*cafs.Link, error)) error {
	name := rel[0]

	if len(rel) == 1 {
		link, err := change(ctx, b, name)
		if err != nil {
			return err
		}
		if link == nil {
			delete(b.links, name)
			delete(b.children, name)
			return nil
		}
		b.links.Add(*link)
		return nil
	}

	dir, err := b.subdir(ctx, name, create)
	if err != nil {
		return err
	}
	if err = dir.applyBelow(ctx, rel[1:], create, change); err != nil {
		return err
	}
	res, err := dir.PutDetailed(ctx)
	if err != nil {
		return err
	}
	b.links.Add(cafs.MakeLink(name, res))
	b.children[name] = dir
	return nil
}

func (b *BareTree) dir(ctx context.Context, rel []string, create bool) (*BareTree, error) {
	dir := b
	for _, name := range rel {
		next, err := dir.subdir(ctx, name, create)
		if err != nil {
			return nil, err
		}
		dir = next
	}
	return dir, nil
}

func (b *BareTree) subdir(ctx context.Context, name string, create bool) (*BareTree, error) {
	if child, ok := b.children[name]; ok {
		return child, nil
	}
	link, ok := b.links.Get(name)
	if !ok {
		if !create {
			return nil, status.ErrNotFound.WrapMessage(name)
		}
		return EmptyBare(b.fs), nil
	}
	if link.IsFile {
		return nil, status.ErrNotADirectory.WrapMessage(name)
	}
	child, err := BareFromCID(ctx, b.fs, link.ID)
	if err != nil {
		return nil, err
	}
	b.children[name] = child
	return child, nil
}

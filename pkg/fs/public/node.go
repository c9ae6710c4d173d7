package public

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/model"
)

const (
	metadataLink = "metadata"
	userlandLink = "userland"
	previousLink = "previous"
)

// Header of a public node
type Header struct {
	Metadata model.Metadata
	Previous *cafs.Key
}

// Node is a public directory or file
type Node interface {
	Header() Header
	IsFile() bool
	ID() cafs.Key
	Previous() (cafs.Key, bool)
	PutDetailed(context.Context) (cafs.PutRes, error)
}

// FromCID loads a public directory or file
func FromCID(ctx context.Context, fs cafs.Fs, id cafs.Key) (Node, error) {
	header, userland, err := loadHeader(ctx, fs, id)
	if err != nil {
		return nil, err
	}
	if header.Metadata.IsFile {
		return fileFromCID(ctx, fs, id, header, userland)
	}
	return treeFromCID(ctx, fs, id, header, userland)
}

// TreeFromCID loads a public directory
func TreeFromCID(ctx context.Context, fs cafs.Fs, id cafs.Key) (*Tree, error) {
	node, err := FromCID(ctx, fs, id)
	if err != nil {
		return nil, err
	}
	tree, ok := node.(*Tree)
	if !ok {
		return nil, status.ErrNotADirectory.WrapMessage(id.String())
	}
	return tree, nil
}

func loadHeader(ctx context.Context, fs cafs.Fs, id cafs.Key) (Header, cafs.Link, error) {
	links, err := fs.GetLinks(ctx, id)
	if err != nil {
		return Header{}, cafs.Link{}, err
	}
	metaLink, ok := links.Get(metadataLink)
	if !ok {
		return Header{}, cafs.Link{}, model.ErrBadMetadata.WrapMessage("public node without metadata: " + id.String())
	}
	userland, ok := links.Get(userlandLink)
	if !ok {
		return Header{}, cafs.Link{}, model.ErrBadMetadata.WrapMessage("public node without userland: " + id.String())
	}

	data, err := fs.GetBytes(ctx, metaLink.ID)
	if err != nil {
		return Header{}, cafs.Link{}, err
	}
	meta, err := model.UnmarshalMetadata(data)
	if err != nil {
		return Header{}, cafs.Link{}, err
	}

	header := Header{Metadata: meta}
	if prev, ok := links.Get(previousLink); ok {
		previous := prev.ID
		header.Previous = &previous
	}
	return header, userland, nil
}

// persist writes a node: metadata, userland and previous link
func persist(ctx context.Context, fs cafs.Fs, header Header, userland cafs.PutRes) (cafs.PutRes, error) {
	data, err := model.MarshalMetadata(header.Metadata)
	if err != nil {
		return cafs.PutRes{}, err
	}
	meta, err := fs.PutBytes(ctx, data)
	if err != nil {
		return cafs.PutRes{}, err
	}

	links := make(cafs.Links, 3)
	links.Add(cafs.MakeLink(metadataLink, meta))
	links.Add(cafs.MakeLink(userlandLink, userland))
	if header.Previous != nil {
		links.Add(cafs.Link{Name: previousLink, ID: *header.Previous})
	}

	res, err := fs.PutLinks(ctx, links)
	if err != nil {
		return cafs.PutRes{}, err
	}
	res.IsFile = header.Metadata.IsFile
	return res, nil
}

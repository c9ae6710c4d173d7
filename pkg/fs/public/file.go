package public

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/model"
)

var _ Node = &File{}

// File is a public file
type File struct {
	fs      cafs.Fs
	header  Header
	content []byte
	id      cafs.Key
}

// NewFile builds a file. It is not persisted until PutDetailed.
func NewFile(fs cafs.Fs, content []byte) *File {
	return &File{
		fs:      fs,
		header:  Header{Metadata: model.NewMetadata(true)},
		content: content,
	}
}

func fileFromCID(ctx context.Context, fs cafs.Fs, id cafs.Key, header Header, userland cafs.Link) (*File, error) {
	content, err := fs.GetBytes(ctx, userland.ID)
	if err != nil {
		return nil, err
	}
	return &File{fs: fs, header: header, content: content, id: id}, nil
}

// Header of the file
func (f *File) Header() Header {
	return f.header
}

// IsFile is always true
func (f *File) IsFile() bool {
	return true
}

// ID of the last persisted version, or the nil key
func (f *File) ID() cafs.Key {
	return f.id
}

// Previous version of this file
func (f *File) Previous() (cafs.Key, bool) {
	if f.header.Previous == nil {
		return cafs.NilKey, false
	}
	return *f.header.Previous, true
}

// Content of the file
func (f *File) Content() []byte {
	return f.content
}

// Update the content. It is not persisted until PutDetailed.
func (f *File) Update(content []byte) {
	f.content = content
	f.header.Metadata = f.header.Metadata.Touch()
}

// PutDetailed persists a new version of the file
func (f *File) PutDetailed(ctx context.Context) (cafs.PutRes, error) {
	if !f.id.IsNil() {
		previous := f.id
		f.header.Previous = &previous
	}
	content, err := f.fs.PutBytes(ctx, f.content)
	if err != nil {
		return cafs.PutRes{}, err
	}
	res, err := persist(ctx, f.fs, f.header, content)
	if err != nil {
		return cafs.PutRes{}, err
	}
	f.id = res.Key
	return res, nil
}

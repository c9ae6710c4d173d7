package private

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/namefilter"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/model"
)

var _ Node = &File{}

// File is a decrypted private file
type File struct {
	mmpt    *MMPT
	header  Header
	content []byte
	id      *cafs.Key
}

// CreateFile builds a new file under a parent filter. It is not persisted until Put.
func CreateFile(mmpt *MMPT, key string, parentFilter *namefilter.BareNameFilter, content []byte) (*File, error) {
	filter, err := deriveFilter(parentFilter, key)
	if err != nil {
		return nil, err
	}
	return &File{
		mmpt: mmpt,
		header: Header{
			BareNameFilter: filter,
			Key:            key,
			Metadata:       model.NewMetadata(true),
		},
		content: content,
	}, nil
}

// LoadFile loads the file indexed under a filter
func LoadFile(ctx context.Context, mmpt *MMPT, filter namefilter.BareNameFilter, key string) (*File, error) {
	env, id, err := open(ctx, mmpt, filter, key)
	if err != nil {
		return nil, err
	}
	if env.Type != fileType {
		return nil, status.ErrNotAFile.WrapMessage(filter.Token())
	}
	return fileFromEnvelope(mmpt, env, id), nil
}

func fileFromEnvelope(mmpt *MMPT, env envelope, id cafs.Key) *File {
	return &File{
		mmpt:    mmpt,
		header:  env.Header,
		content: env.Content,
		id:      &id,
	}
}

// Header of the file
func (f *File) Header() Header {
	return f.header
}

// IsFile is always true
func (f *File) IsFile() bool {
	return true
}

// ID of the last persisted version of the file
func (f *File) ID() (cafs.Key, bool) {
	if f.id == nil {
		return cafs.NilKey, false
	}
	return *f.id, true
}

// Content of the file
func (f *File) Content() []byte {
	return f.content
}

// Update the content of the file. It is not persisted until Put.
func (f *File) Update(content []byte) {
	f.content = content
	f.header.Metadata = f.header.Metadata.Touch()
}

// Put encrypts the file and indexes it
func (f *File) Put(ctx context.Context) (cafs.PutRes, error) {
	f.header.Previous = f.id
	res, err := seal(ctx, f.mmpt, envelope{
		Type:    fileType,
		Header:  f.header,
		Content: f.content,
	})
	if err != nil {
		return cafs.PutRes{}, err
	}
	f.id = &res.Key
	return res, nil
}

package private

import (
	"context"
	"encoding/hex"

	iradix "github.com/hashicorp/go-immutable-radix"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/status"
)

// MMPT indexes encrypted private nodes by bare name filter token
type MMPT struct {
	fs     cafs.Fs
	index  *iradix.Tree // token -> cafs.Link to the encrypted node
	owners *iradix.Tree // token -> fingerprint of the key of the node written in this session
	id     cafs.Key
}

// Create an empty index
func Create(fs cafs.Fs) *MMPT {
	return &MMPT{
		fs:     fs,
		index:  iradix.New(),
		owners: iradix.New(),
	}
}

// FromCID loads a persisted index
func FromCID(ctx context.Context, fs cafs.Fs, id cafs.Key) (*MMPT, error) {
	links, err := fs.GetLinks(ctx, id)
	if err != nil {
		return nil, err
	}

	txn := iradix.New().Txn()
	for token, link := range links {
		txn.Insert([]byte(token), link)
	}

	return &MMPT{
		fs:     fs,
		index:  txn.Commit(),
		owners: iradix.New(),
		id:     id,
	}, nil
}

// Fs is the block store holding the encrypted nodes
func (m *MMPT) Fs() cafs.Fs {
	return m.fs
}

// Get the link to the encrypted node indexed under a token
func (m *MMPT) Get(token string) (cafs.Link, bool) {
	v, ok := m.index.Get([]byte(token))
	if !ok {
		return cafs.Link{}, false
	}
	return v.(cafs.Link), true
}

// Exists tells if a token is indexed
func (m *MMPT) Exists(token string) bool {
	_, ok := m.index.Get([]byte(token))
	return ok
}

// Add or replace the entry for a token.
//
// Within a session, a token belongs to the first node key that claimed it:
// adding an entry on behalf of another key is a collision.
func (m *MMPT) Add(token string, link cafs.Link, owner string) error {
	if err := m.claim(token, owner); err != nil {
		return err
	}
	link.Name = token
	m.index, _, _ = m.index.Insert([]byte(token), link)
	return nil
}

func (m *MMPT) claim(token, owner string) error {
	if current, ok := m.owners.Get([]byte(token)); ok {
		if current.(string) != owner {
			return status.ErrFilterCollision.WrapMessage(token)
		}
		return nil
	}
	m.owners, _, _ = m.owners.Insert([]byte(token), owner)
	return nil
}

// Members lists all entries, sorted by token
func (m *MMPT) Members() []cafs.Link {
	members := make([]cafs.Link, 0, m.index.Len())
	m.index.Root().Walk(func(_ []byte, v interface{}) bool {
		members = append(members, v.(cafs.Link))
		return false
	})
	return members
}

// Len is the number of indexed nodes
func (m *MMPT) Len() int {
	return m.index.Len()
}

// ID of the last persisted version of this index
func (m *MMPT) ID() cafs.Key {
	return m.id
}

// PutDetailed persists the index as a link table
func (m *MMPT) PutDetailed(ctx context.Context) (cafs.PutRes, error) {
	links := make(cafs.Links, m.index.Len())
	for _, link := range m.Members() {
		links.Add(link)
	}
	res, err := m.fs.PutLinks(ctx, links)
	if err != nil {
		return cafs.PutRes{}, err
	}
	m.id = res.Key
	return res, nil
}

// Put persists the index
func (m *MMPT) Put(ctx context.Context) (cafs.Key, error) {
	res, err := m.PutDetailed(ctx)
	return res.Key, err
}

// fingerprint identifies a node key without revealing it
func fingerprint(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

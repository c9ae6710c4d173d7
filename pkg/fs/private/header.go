package private

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/fs/namefilter"
	"github.com/oneconcern/cairn/pkg/fs/status"
	"github.com/oneconcern/cairn/pkg/keystore"
	"github.com/oneconcern/cairn/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	treeType = "tree"
	fileType = "file"
)

// Header of a private node. It is only ever stored encrypted.
type Header struct {
	BareNameFilter namefilter.BareNameFilter `json:"bareNameFilter"`
	Key            string                    `json:"key"`
	Previous       *cafs.Key                 `json:"previous,omitempty"`
	Metadata       model.Metadata            `json:"metadata"`
}

// Link from a private directory to a child node
type Link struct {
	Name           string                    `json:"name"`
	Key            string                    `json:"key"`
	BareNameFilter namefilter.BareNameFilter `json:"bareNameFilter"`
	IsFile         bool                      `json:"isFile"`
	Size           uint64                    `json:"size"`
}

// envelope is the plaintext form of an encrypted node
type envelope struct {
	Type    string          `json:"type"`
	Header  Header          `json:"header"`
	Links   map[string]Link `json:"links,omitempty"`
	Content []byte          `json:"content,omitempty"`
}

// Node is a private directory or file
type Node interface {
	Header() Header
	IsFile() bool
	ID() (cafs.Key, bool)
	Put(context.Context) (cafs.PutRes, error)
}

// seal encrypts an envelope, stores it and indexes it under its filter token
func seal(ctx context.Context, mmpt *MMPT, env envelope) (cafs.PutRes, error) {
	plaintext, err := json.Marshal(env)
	if err != nil {
		return cafs.PutRes{}, err
	}
	ciphertext, err := keystore.Encrypt(env.Header.Key, plaintext)
	if err != nil {
		return cafs.PutRes{}, err
	}
	res, err := mmpt.fs.PutBytes(ctx, ciphertext)
	if err != nil {
		return cafs.PutRes{}, err
	}
	res.IsFile = env.Type == fileType

	token := env.Header.BareNameFilter.Token()
	if err = mmpt.Add(token, cafs.MakeLink(token, res), fingerprint(env.Header.Key)); err != nil {
		return cafs.PutRes{}, err
	}
	return res, nil
}

// open fetches the node indexed under a filter and decrypts it
func open(ctx context.Context, mmpt *MMPT, filter namefilter.BareNameFilter, key string) (envelope, cafs.Key, error) {
	token := filter.Token()
	link, ok := mmpt.Get(token)
	if !ok {
		return envelope{}, cafs.NilKey, status.ErrNotFound.WrapMessage("no private node indexed under " + token)
	}
	ciphertext, err := mmpt.fs.GetBytes(ctx, link.ID)
	if err != nil {
		return envelope{}, cafs.NilKey, err
	}
	plaintext, err := keystore.Decrypt(key, ciphertext)
	if err != nil {
		return envelope{}, cafs.NilKey, status.ErrDecryption.Wrap(err)
	}

	var env envelope
	if err = json.Unmarshal(plaintext, &env); err != nil {
		return envelope{}, cafs.NilKey, status.ErrDecryption.Wrap(err)
	}
	if err = mmpt.claim(token, fingerprint(key)); err != nil {
		return envelope{}, cafs.NilKey, err
	}
	return env, link.ID, nil
}

// LoadNode loads the directory or file indexed under a filter
func LoadNode(ctx context.Context, mmpt *MMPT, filter namefilter.BareNameFilter, key string) (Node, error) {
	env, id, err := open(ctx, mmpt, filter, key)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case treeType:
		return treeFromEnvelope(mmpt, env, id), nil
	case fileType:
		return fileFromEnvelope(mmpt, env, id), nil
	default:
		return nil, status.ErrDecryption.WrapMessage("unknown private node type " + env.Type)
	}
}

func deriveFilter(parent *namefilter.BareNameFilter, key string) (namefilter.BareNameFilter, error) {
	if parent == nil {
		return namefilter.Root(key)
	}
	return namefilter.Child(*parent, key)
}

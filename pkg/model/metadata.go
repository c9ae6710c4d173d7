package model

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Node kinds
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// Default modes
const (
	FileMode      os.FileMode = 0644
	DirectoryMode os.FileMode = 0755
)

// UnixMeta holds unix-like attributes. Timestamps are nanoseconds since the epoch.
type UnixMeta struct {
	Ctime int64       `json:"ctime" yaml:"ctime"`
	Mtime int64       `json:"mtime" yaml:"mtime"`
	Mode  os.FileMode `json:"mode" yaml:"mode"`
	Kind  string      `json:"_type" yaml:"_type"`
	_     struct{}
}

// Metadata describes a public or private node
type Metadata struct {
	IsFile   bool     `json:"isFile" yaml:"isFile"`
	Version  SemVer   `json:"version" yaml:"version"`
	UnixMeta UnixMeta `json:"unixMeta" yaml:"unixMeta"`
	_        struct{}
}

// NewMetadata for a node created now
func NewMetadata(isFile bool) Metadata {
	now := time.Now().UnixNano()
	meta := Metadata{
		IsFile:  isFile,
		Version: CurrentVersion,
		UnixMeta: UnixMeta{
			Ctime: now,
			Mtime: now,
			Mode:  DirectoryMode,
			Kind:  KindDirectory,
		},
	}
	if isFile {
		meta.UnixMeta.Mode = FileMode
		meta.UnixMeta.Kind = KindFile
	}
	return meta
}

// Touch updates the modification time
func (m Metadata) Touch() Metadata {
	m.UnixMeta.Mtime = time.Now().UnixNano()
	if m.UnixMeta.Mtime <= m.UnixMeta.Ctime {
		m.UnixMeta.Mtime = m.UnixMeta.Ctime + 1
	}
	return m
}

// ModTime as a time
func (m Metadata) ModTime() time.Time {
	return time.Unix(0, m.UnixMeta.Mtime)
}

// MarshalMetadata encodes metadata as yaml
func MarshalMetadata(m Metadata) ([]byte, error) {
	return yaml.Marshal(m)
}

// UnmarshalMetadata decodes yaml metadata
func UnmarshalMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return Metadata{}, ErrBadMetadata.Wrap(err)
	}
	return m, nil
}

package model

// Entry describes a directory entry
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	IsFile bool   `json:"isFile" yaml:"isFile"`
	Size   uint64 `json:"size" yaml:"size"`
}

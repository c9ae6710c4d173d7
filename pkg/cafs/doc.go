// Package cafs provides a content-addressable block store.
//
// All content is indexed according to its Blake2b hash: the 64 bytes digest of
// a block is its key, or content id.
//
// Three kinds of blocks are handled:
//   - raw bytes (file content, metadata, encrypted private nodes)
//   - link tables, mapping unique names to the keys of child blocks
//   - linked lists, ordered sequences of links named after their position
//
// Each block is stored on the backend store using the hex key as an object reference,
// sharded by the first byte of the key.
//
// Since blocks are immutable, they are cached in memory once read.
package cafs

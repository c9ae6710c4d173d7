// Package public implements the plaintext part of the file system.
//
// Public nodes are persisted as link tables:
//
//	metadata: yaml encoded metadata of the node
//	userland: the link table of the children of a directory, or the content of a file
//	previous: the previous version of this node, if any
//
// Every persisted version of a node links to the one before it, so that the
// history of any subtree may be walked back.
//
// The bare tree is a plain mirror of the public tree, without metadata nor history,
// for browsing.
package public

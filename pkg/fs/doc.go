// Package fs exposes a personal file system, with a public and a private branch.
//
// Paths are posix paths starting with their branch:
//
//	public/index.html
//	private/Documents/notes.md
//
// Public content is stored in the clear and mirrored in a "pretty" tree without history.
// Private content is encrypted, and indexed by bare name filters so that the block store
// learns neither the content nor the structure of the private branch.
//
// Every write persists the touched sub-trees. Publish links them in a new root.
package fs

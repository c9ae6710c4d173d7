// Package root composes the root tree of a file system.
//
// A root tree is a link table with well-known names:
//
//	public:     the public tree, with history
//	pretty:     a bare mirror of the public tree
//	private:    the private index (MMPT)
//	privateLog: the log of the successive versions of the private index
//	version:    the version of the format
//
// Private nodes are loaded lazily, from the set of paths a session holds keys for.
// The plaintext paths of private nodes are only ever known to the session.
package root

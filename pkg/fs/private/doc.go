// Package private implements the encrypted part of the file system.
//
// Private directories and files are not nested in the block store. Each node is
// encrypted with its own symmetric key, then indexed in a flat map (the MMPT) under
// the token of its bare name filter. A directory holds, for each child, the key and
// bare name filter needed to locate and decrypt it: access to a directory grants
// access to its whole subtree, and nothing above it.
package private

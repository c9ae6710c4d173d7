// Package keystore holds the symmetric keys granting access to private nodes,
// along with the signing key of the file system owner.
//
// Symmetric keys are exchanged as base64 encoded strings. Blocks are sealed with
// XChaCha20-Poly1305, the random nonce being prepended to the ciphertext.
package keystore

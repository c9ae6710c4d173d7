// Package model describes the base objects manipulated by cairn.
//
// The object model for cairn is composed of:
//
//	Version:
//	  The semantic version of the on-store format, recorded once in every root tree.
//
//	Metadata:
//	  Unix-like attributes carried by every public and private node.
//
//	Permissions:
//	  The set of public and private paths a session is entitled to access.
//	  Private paths come with the symmetric key granting access to them.
package model

// Package gitref resolves branch and tag names of a remote repository to
// commit hashes without cloning it.
package gitref

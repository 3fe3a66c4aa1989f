// Package keygen generates throwaway SSH key pairs.
//
// Keys are produced as OpenSSH PEM (private) and authorized_keys lines
// (public). They serve as host and client keys wherever an in-process SSH
// server is stood up.
package keygen

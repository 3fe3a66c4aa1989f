// Package ssh provides an SSH client for executing commands on remote servers.
//
// It is used to drive the build on the freshly provisioned instance: one
// connection, one session, one chained command. The client authenticates
// with a private key read from disk and captures stdout and stderr
// separately so the caller can redact and log them.
package ssh

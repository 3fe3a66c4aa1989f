// Package image builds and pushes a container image on a throwaway
// compute instance.
//
// A [Builder] run requests one instance from a [Provisioner], waits for it
// to run, connects with a [Dialer], executes a [Script] that installs
// docker, clones the source, logs in to the registry and pushes the image,
// and finally terminates the instance. Termination is attempted on every
// exit path once an instance ID is known, including context cancellation.
//
// Registry passwords never appear in the rendered command line. They are
// written to the remote shell's standard input and read into a shell
// variable by the first command, and captured output is redacted before
// it is logged or archived.
package image

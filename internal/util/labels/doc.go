// Package labels defines the tags spotbuild attaches to cloud resources.
//
// The same keys serve as EC2 tags and Hetzner Cloud labels. Keys use the
// "spotbuild/" prefix, which both providers accept.
package labels

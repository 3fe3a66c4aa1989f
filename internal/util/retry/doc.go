// Package retry provides bounded retry with exponential backoff.
//
// [WithExponentialBackoff] retries an operation with growing delays and is
// used for SSH connection attempts. Errors wrapped with [Fatal] end the
// retry loop immediately.
package retry

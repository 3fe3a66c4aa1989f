// Package async runs independent operations concurrently.
package async

// Package s3 uploads build transcripts to S3-compatible object storage.
//
// Any endpoint that speaks the S3 protocol works, including AWS S3 and
// Hetzner Object Storage. Set ClientConfig.Endpoint for non-AWS services.
package s3

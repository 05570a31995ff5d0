// Package sourcebucket lists the objects in the S3 bucket that backs the
// Unstructured source connector. It talks to S3 directly through
// minio-go, so listings work against AWS and any S3-compatible endpoint.
package sourcebucket

// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("pandora/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	report, err := pipeline.Build(ctx, store, job)
//
// # Features
//
//   - Multipart uploads with CRC32C checksums for large artifacts
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3

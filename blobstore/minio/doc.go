// Package minio stores pipeline artifacts in MinIO or any other
// S3-compatible service (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "images", "run-1/")
//	report, err := pipeline.Build(ctx, store, job)
//
// Blobs are small text artifacts, so Get and Put move whole objects. Objects
// are written with content type text/plain. Missing keys map to
// blobstore.ErrNotFound, including the lazy not-found error MinIO reports on
// the first read of an object.
//
// With pipeline.OpenStore the same store is configured from YAML:
//
//	storage:
//	  backend: minio
//	  endpoint: localhost:9000
//	  bucket: images
//	  access_key: minioadmin
//	  secret_key: minioadmin
package minio

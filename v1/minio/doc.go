// Package minio ships backup files to an S3-compatible object store.
//
// The manager uploads each successful local backup through Client.Upload when
// a minio endpoint is configured. Objects are keyed by Prefix plus the backup's
// file name, so the timestamped names produced by the manager stay unique.
//
//	c, err := minio.NewClient(ctx, minio.Config{
//		Endpoint:        "localhost:9000",
//		AccessKeyID:     "minio",
//		SecretAccessKey: "minio123",
//		BucketName:      "db-backups",
//		CreateBucket:    true,
//		Prefix:          "prod/",
//	}, log)
//	key, err := c.Upload(ctx, "backups/main_20240101_030000.backup")
package minio

package minio

import "errors"

var (
	ErrEmptyEndpoint = errors.New("minio endpoint cannot be empty")
	ErrEmptyBucket   = errors.New("bucket name is empty")
	ErrBucketMissing = errors.New("bucket does not exist")
)

package minio

import "time"

const (
	DefaultUploadTimeout = 10 * time.Minute
	defaultContentType   = "application/octet-stream"
)

// Config describes the object store that receives backup files.
type Config struct {
	// Endpoint is host:port of the S3-compatible server, e.g. "localhost:9000".
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" split_words:"true"`
	SecretAccessKey string `yaml:"secret_access_key" split_words:"true"`
	UseSSL          bool   `yaml:"use_ssl" split_words:"true"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket"`

	// CreateBucket creates BucketName when it does not exist.
	CreateBucket bool `yaml:"create_bucket" split_words:"true"`

	// Prefix is prepended to every object key, e.g. "backups/".
	Prefix string `yaml:"prefix"`

	UploadTimeout time.Duration `yaml:"upload_timeout" split_words:"true"`
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

func (c Config) withDefaults() Config {
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = DefaultUploadTimeout
	}
	return c
}

package kvstore

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// S3Env is the bucket configuration read from INK_S3_* variables. The server
// and the admin CLI both parse it so a slot opens the same way from either.
type S3Env struct {
	Endpoint  string `env:"INK_S3_ENDPOINT"`
	Bucket    string `env:"INK_S3_BUCKET"`
	AccessKey string `env:"INK_S3_ACCESS_KEY_ID"`
	SecretKey string `env:"INK_S3_SECRET_ACCESS_KEY"`
	Prefix    string `env:"INK_S3_PREFIX"`
}

func ParseS3Env() (S3Env, error) {
	var e S3Env
	if err := env.Parse(&e); err != nil {
		return S3Env{}, fmt.Errorf("parse s3 env: %w", err)
	}
	return e, nil
}

// Apply copies the bucket settings into opts.
func (e S3Env) Apply(opts *Options) {
	opts.S3Endpoint = e.Endpoint
	opts.S3Bucket = e.Bucket
	opts.S3AccessKey = e.AccessKey
	opts.S3SecretKey = e.SecretKey
	opts.S3Prefix = e.Prefix
}

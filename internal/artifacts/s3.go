package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Putter is the subset of *s3.Client used by S3.
type S3Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Presigner is the subset of *s3.PresignClient used by S3.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 uploads artifacts to a bucket and returns presigned GET URLs.
type S3 struct {
	client    S3Putter
	presigner S3Presigner
	bucket    string
	prefix    string
	expiry    time.Duration
}

// NewS3 stores objects under bucket/prefix. Links expire after expiry.
func NewS3(client S3Putter, presigner S3Presigner, bucket, prefix string, expiry time.Duration) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("artifacts: s3 backend needs a bucket")
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &S3{client: client, presigner: presigner, bucket: bucket, prefix: prefix, expiry: expiry}, nil
}

func (s *S3) Put(ctx context.Context, kind, contentType string, data []byte) (string, error) {
	name, err := objectName(kind, contentType)
	if err != nil {
		return "", err
	}
	key := s.prefix + name

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	result, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket, Key: &key,
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	log.Debug().Str("key", key).Int("size", len(data)).Msg("Artifact uploaded to S3")
	return result.URL, nil
}

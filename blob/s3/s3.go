package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3BlobStore struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

func NewS3BlobStore(ctx context.Context, devMode bool, s3Endpoint string, bucket string, region string) (*S3BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	var cfg aws.Config
	var err error

	if devMode {
		// Local dev uses MinIO with dummy credentials
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
			),
		)
		if err != nil {
			return nil, err
		}

		client := s3.New(s3.Options{
			Credentials:      cfg.Credentials,
			Region:           cfg.Region,
			EndpointResolver: s3.EndpointResolverFromURL(s3Endpoint),
			// MinIO does not support virtual-hosted bucket addressing
			UsePathStyle: true,
		})
		return &S3BlobStore{client: client, bucket: bucket, region: region, endpoint: s3Endpoint}, nil
	}

	cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &S3BlobStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

func (b *S3BlobStore) Put(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return b.URL(key), nil
}

func (b *S3BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (b *S3BlobStore) URL(key string) string {
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(b.endpoint, "/"), b.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}

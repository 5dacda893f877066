package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type s3Storage struct {
	client *s3.Client
	config S3Config
}

type S3Config struct {
	Bucket string
	// EndpointURL points the client at an S3 compatible server such as MinIO.
	// S3_ENDPOINT_URL is used when empty.
	EndpointURL string
	Region      string
	// Static credentials. The default AWS credential chain is used when empty.
	AccessKeyID     string
	SecretAccessKey string
	HTTPClient      *http.Client
}

func NewS3Storage(ctx context.Context, s S3Config) (Storage, error) {
	if s.Bucket == "" {
		return nil, errors.New("S3 bucket is not specified")
	}

	var optsFunc []func(*config.LoadOptions) error
	if s.Region != "" {
		optsFunc = append(optsFunc, config.WithRegion(s.Region))
	}
	if s.AccessKeyID != "" {
		optsFunc = append(optsFunc, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}
	if s.HTTPClient != nil {
		optsFunc = append(optsFunc, config.WithHTTPClient(s.HTTPClient))
	}

	c, err := config.LoadDefaultConfig(ctx, optsFunc...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}

	endpointURL := s.EndpointURL
	if endpointURL == "" {
		endpointURL = os.Getenv("S3_ENDPOINT_URL")
	}
	s3Client := s3.NewFromConfig(c, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})

	return &s3Storage{
		client: s3Client,
		config: s,
	}, nil
}

// key accepts both plain keys and the s3:// URLs returned by Put.
func (s *s3Storage) key(key string) string {
	return strings.TrimPrefix(key, fmt.Sprintf("s3://%s/", s.config.Bucket))
}

func (s *s3Storage) Put(ctx context.Context, key string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(s.key(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.config.Bucket, s.key(key)), nil
}

func (s *s3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("failed to download %s from S3: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	var buffer bytes.Buffer
	_, err = buffer.ReadFrom(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}

	return buffer.Bytes(), nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.key(key)),
	}); err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *s3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}
	return keys, nil
}

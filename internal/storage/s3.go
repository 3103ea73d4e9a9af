package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/OFFIS-RIT/sysmlfuse/internal/util"
)

// NewS3Client builds a path-style S3 client from AWS_REGION, AWS_ENDPOINT,
// AWS_ACCESS_KEY and AWS_SECRET_KEY. Static credentials are only used when
// both keys are set; otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(util.GetEnvString("AWS_REGION", "us-east-1")),
	}
	if endpoint := util.GetEnv("AWS_ENDPOINT"); endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// splitS3URL turns s3://bucket/key into its bucket and key.
func splitS3URL(location string) (string, string, error) {
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: want s3://bucket/key", location)
	}
	return bucket, key, nil
}

func getObject(ctx context.Context, client *s3.Client, location string) ([]byte, error) {
	bucket, key, err := splitS3URL(location)
	if err != nil {
		return nil, err
	}
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from S3: %w", location, err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return buf.Bytes(), nil
}

func putObject(ctx context.Context, client *s3.Client, location string, data []byte) error {
	bucket, key, err := splitS3URL(location)
	if err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if mimeType := mime.TypeByExtension(path.Ext(key)); mimeType != "" {
		in.ContentType = aws.String(mimeType)
	}
	if _, err := client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", location, err)
	}
	return nil
}

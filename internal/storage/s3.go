package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3Options configures the S3 object store. Endpoint is optional and points
// the client at an S3-compatible service.
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string
}

// S3Store uploads objects to an S3 bucket with public-read ACL.
type S3Store struct {
	bucket   string
	uploader s3manageriface.UploaderAPI
	client   s3iface.S3API
}

// NewS3Store creates a store using the default AWS credential chain.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg := aws.NewConfig().WithRegion(opts.Region)
	if opts.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}

	client := s3.New(sess)
	return NewS3StoreWithClients(opts.Bucket, s3manager.NewUploaderWithClient(client), client), nil
}

// NewS3StoreWithClients wires explicit clients, used by tests.
func NewS3StoreWithClients(bucket string, uploader s3manageriface.UploaderAPI, client s3iface.S3API) *S3Store {
	return &S3Store{bucket: bucket, uploader: uploader, client: client}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		ACL:          aws.String(s3.ObjectCannedACLPublicRead),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return out.Location, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

package usage

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// csvContentType is set on every table written to S3.
const csvContentType = "text/csv"

// NewS3Store configures an S3 client and returns a store for the given bucket.
func NewS3Store(p client.ConfigProvider, bucket string) S3Store {
	return S3Store{
		Bucket: bucket,
		s3:     s3.New(p),
	}
}

// S3Store is an S3 backed ObjectStore.
type S3Store struct {
	Bucket string
	s3     s3iface.S3API
}

// S3Store must implement the ObjectStore interface
var _ ObjectStore = S3Store{}

func (s S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to retrieve '%s': %w", s.Location(key), err)
	}
	defer out.Body.Close()

	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from S3 response for '%s': %w", s.Location(key), err)
	}
	return data, nil
}

// Put overwrites the object at key. S3 replaces objects atomically, so readers
// see either the previous table or the new one.
func (s S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(csvContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to write '%s': %w", s.Location(key), err)
	}
	return nil
}

func (s S3Store) Location(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key)
}

func isNotFound(err error) bool {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}

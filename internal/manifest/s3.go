package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var s3re = regexp.MustCompile("^s3://([^/]+)(/?)(.*)")

var ErrS3URL = errors.New("s3 url format must match: s3://bucket[/key/prefix/]")

// ParseS3URL splits s3://bucket[/prefix] into its parts.
func ParseS3URL(s3url string) (bucket, prefix string, err error) {
	tokens := s3re.FindStringSubmatch(s3url)
	if len(tokens) == 0 {
		return "", "", ErrS3URL
	}
	return tokens[1], tokens[3], nil
}

type listAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads manifests under a bucket prefix. The manifest's own digest
// is stored as the object's sha256 metadata.
type S3Sink struct {
	Bucket            string
	Prefix            string
	ReducedRedundancy bool

	lister   listAPI
	uploader uploadAPI
}

// NewS3Sink checks the client can list the bucket before returning.
func NewS3Sink(ctx context.Context, client *s3.Client, s3url string, reducedRedundancy bool) (*S3Sink, error) {
	return newS3Sink(ctx, client, manager.NewUploader(client), s3url, reducedRedundancy)
}

func newS3Sink(ctx context.Context, lister listAPI, uploader uploadAPI, s3url string, reducedRedundancy bool) (*S3Sink, error) {
	bucket, prefix, err := ParseS3URL(s3url)
	if err != nil {
		return nil, err
	}
	s := &S3Sink{
		Bucket:            bucket,
		Prefix:            prefix,
		ReducedRedundancy: reducedRedundancy,
		lister:            lister,
		uploader:          uploader,
	}
	if err := s.ping(ctx); err != nil {
		return nil, fmt.Errorf("s3://%s: %w", bucket, err)
	}
	return s, nil
}

func (s *S3Sink) ping(ctx context.Context) error {
	_, err := s.lister.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.Bucket),
		Prefix:  aws.String(""),
		MaxKeys: aws.Int32(1),
	})
	return err
}

func (s *S3Sink) key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := s.key(name)

	sclass := types.StorageClassStandard
	if s.ReducedRedundancy {
		sclass = types.StorageClassReducedRedundancy
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/yaml"),
		Metadata:     map[string]string{"sha256": digestOf(data)},
		StorageClass: sclass,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}

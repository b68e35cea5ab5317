package s3sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/feed"
)

// PutObjectAPI is the slice of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink uploads meme PNGs to a bucket and returns their public URL.
type Sink struct {
	client  PutObjectAPI
	bucket  string
	prefix  string
	baseURL string
}

var _ feed.ImageSink = (*Sink)(nil)

// New loads the default AWS config and targets bucket. Objects are addressed as
// https://<bucket>.s3.<region>.amazonaws.com/<prefix>/<id>.png.
func New(ctx context.Context, bucket, prefix string) (*Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix, baseURL), nil
}

// NewWithClient builds a sink over an existing client.
func NewWithClient(client PutObjectAPI, bucket, prefix, baseURL string) *Sink {
	return &Sink{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Sink) key(id string) (string, error) {
	if id == "" || path.Base(id) != id || id == "." || id == ".." {
		return "", fmt.Errorf("invalid meme id %q", id)
	}
	return path.Join(s.prefix, id+".png"), nil
}

func (s *Sink) Put(ctx context.Context, id string, png []byte) (string, error) {
	key, err := s.key(id)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload meme %s: %w", id, err)
	}
	logrus.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).Debug("Meme image uploaded")
	return s.baseURL + "/" + key, nil
}

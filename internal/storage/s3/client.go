package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"lab-service/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	emptyAWSSessionToken = ""
	defaultS3Region      = "us-east-1"
	pathSeparator        = "/"
	awsPublicURLFmt      = "https://%s.s3.%s.amazonaws.com"

	errFailedCreateAWSSessionFmt = "failed to create AWS session: %w"
	errFailedPutObjectFmt        = "failed to upload object: %w"
	errFailedDeleteObjectFmt     = "failed to delete object: %w"
	errFailedCreateBucketFmt     = "failed to create bucket: %w"
	errFailedWaitBucketExistsFmt = "failed to wait for bucket to exist: %w"
	errFailedHeadBucketFmt       = "failed to reach bucket: %w"
	errBucketRequiredFmt         = "results bucket is not configured"
)

// Client stores project result files in one bucket and hands out their
// public URL.
type Client struct {
	svc      *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	region   string
	baseURL  string
}

func NewClient(cfg *config.AWSConfig) (*Client, error) {
	if cfg.ResultsBucket == "" {
		return nil, fmt.Errorf(errBucketRequiredFmt)
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return &Client{
		svc:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.ResultsBucket,
		region:   cfg.Region,
		baseURL:  publicBaseURL(cfg),
	}, nil
}

// Put uploads body under key and returns the object's public URL.
func (c *Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.uploader.UploadWithContext(ctx, input); err != nil {
		return "", fmt.Errorf(errFailedPutObjectFmt, err)
	}

	return c.PublicURL(key), nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf(errFailedDeleteObjectFmt, err)
	}

	return nil
}

// EnsureBucket creates the results bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	if aerr, ok := err.(awserr.Error); !ok || (aerr.Code() != "NotFound" && aerr.Code() != s3.ErrCodeNoSuchBucket) {
		return fmt.Errorf(errFailedHeadBucketFmt, err)
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	}
	if c.region != defaultS3Region {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(c.region),
		}
	}

	if _, err := c.svc.CreateBucketWithContext(ctx, input); err != nil {
		return fmt.Errorf(errFailedCreateBucketFmt, err)
	}

	if err := c.svc.WaitUntilBucketExistsWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	}); err != nil {
		return fmt.Errorf(errFailedWaitBucketExistsFmt, err)
	}

	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf(errFailedHeadBucketFmt, err)
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return joinURL(c.baseURL, key)
}

func publicBaseURL(cfg *config.AWSConfig) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, pathSeparator) + pathSeparator + cfg.ResultsBucket
	default:
		return fmt.Sprintf(awsPublicURLFmt, cfg.ResultsBucket, cfg.Region)
	}
}

// joinURL escapes each key segment and appends it to base.
func joinURL(base, key string) string {
	segments := strings.Split(key, pathSeparator)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, pathSeparator) + pathSeparator + strings.Join(segments, pathSeparator)
}

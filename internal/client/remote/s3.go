package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
)

// S3Config holds the settings for an S3-compatible backend (AWS or MinIO).
type S3Config struct {
	Endpoint        string // optional; set for MinIO or another custom endpoint
	Region          string
	Bucket          string
	Prefix          string // optional key prefix, e.g. one per user
	AccessKeyID     string
	SecretAccessKey string
}

// S3Adapter implements Adapter on top of an S3 bucket.
type S3Adapter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Adapter builds the S3 client. No network call happens here; Connect
// performs the reachability/credential check.
func NewS3Adapter(ctx context.Context, cfg S3Config) (*S3Adapter, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Adapter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *S3Adapter) key(parts ...string) string {
	return path.Join(append([]string{a.prefix}, parts...)...)
}

func (a *S3Adapter) recordKey(typ models.EntityType, id string) string {
	return a.key("entities", string(typ), id+".json")
}

// Connect issues a HeadBucket so bad credentials or a missing bucket surface
// before the sync cycle starts.
func (a *S3Adapter) Connect(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", a.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (a *S3Adapter) get(ctx context.Context, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (a *S3Adapter) put(ctx context.Context, key string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (a *S3Adapter) delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (a *S3Adapter) GetManifest(ctx context.Context) ([]byte, error) {
	return a.get(ctx, a.key("manifest.json"))
}

func (a *S3Adapter) SaveManifest(ctx context.Context, data []byte) error {
	return a.put(ctx, a.key("manifest.json"), data)
}

func (a *S3Adapter) GetRecord(ctx context.Context, typ models.EntityType, id string) ([]byte, error) {
	return a.get(ctx, a.recordKey(typ, id))
}

func (a *S3Adapter) SaveRecord(ctx context.Context, typ models.EntityType, id string, data []byte) error {
	return a.put(ctx, a.recordKey(typ, id), data)
}

func (a *S3Adapter) DeleteRecord(ctx context.Context, typ models.EntityType, id string) error {
	return a.delete(ctx, a.recordKey(typ, id))
}

func (a *S3Adapter) GetImageFile(ctx context.Context, id string) ([]byte, error) {
	return a.get(ctx, a.key("files", "images", id))
}

func (a *S3Adapter) SaveImageFile(ctx context.Context, id string, data []byte) error {
	return a.put(ctx, a.key("files", "images", id), data)
}

func (a *S3Adapter) DeleteImageFile(ctx context.Context, id string) error {
	return a.delete(ctx, a.key("files", "images", id))
}

func (a *S3Adapter) GetThumbnailFile(ctx context.Context, id string) ([]byte, error) {
	return a.get(ctx, a.key("files", "thumbnails", id))
}

func (a *S3Adapter) SaveThumbnailFile(ctx context.Context, id string, data []byte) error {
	return a.put(ctx, a.key("files", "thumbnails", id), data)
}

func (a *S3Adapter) DeleteThumbnailFile(ctx context.Context, id string) error {
	return a.delete(ctx, a.key("files", "thumbnails", id))
}

package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

// S3 accepts at most this many keys per DeleteObjects call.
const deleteBatchSize = 1000

type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Config struct {
	Client     API
	Presigner  Presigner
	Bucket     string
	Endpoint   string
	PresignTTL time.Duration
	UploadedBy string
	Logger     *logger.Logger
	NewID      func() string
}

type S3Store struct {
	client     API
	presigner  Presigner
	bucket     string
	endpoint   string
	presignTTL time.Duration
	uploadedBy string
	log        *logger.Logger
	newID      func() string
}

var _ ports.BlobStore = (*S3Store)(nil)

func NewS3Store(cfg S3Config) *S3Store {
	s := &S3Store{
		client:     cfg.Client,
		presigner:  cfg.Presigner,
		bucket:     cfg.Bucket,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		presignTTL: cfg.PresignTTL,
		uploadedBy: cfg.UploadedBy,
		log:        cfg.Logger,
		newID:      cfg.NewID,
	}
	if s.presignTTL <= 0 {
		s.presignTTL = time.Hour
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// ObjectKey lays files out as tasks/<task>/files/<uuid>.<ext>.
func ObjectKey(taskID, fileName, id string) string {
	key := fmt.Sprintf("tasks/%s/files/%s", taskID, id)
	if ext := strings.TrimPrefix(path.Ext(fileName), "."); ext != "" {
		key += "." + strings.ToLower(ext)
	}
	return key
}

func (s *S3Store) Put(ctx context.Context, obj ports.BlobObject) (string, error) {
	key := ObjectKey(obj.TaskID, obj.FileName, s.newID())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Data),
		ContentType:   aws.String(obj.ContentType),
		ContentLength: aws.Int64(int64(len(obj.Data))),
		Metadata: map[string]string{
			"original_filename": obj.FileName,
			"task_id":           obj.TaskID,
			"uploaded_by":       s.uploadedBy,
		},
	})
	if err != nil {
		s.log.Errorw("blob_put_failed", "bucket", s.bucket, "key", key, "error", err)
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	s.log.Infow("blob_put_ok", "bucket", s.bucket, "key", key, "bytes", len(obj.Data))
	return key, nil
}

// URLFor returns a path-style URL when an endpoint override is set
// (LocalStack), otherwise a presigned GET. If presigning fails the s3:// URI
// is returned instead.
func (s *S3Store) URLFor(ctx context.Context, key string) (string, error) {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
	}
	if s.presigner != nil {
		req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.presignTTL))
		if err == nil {
			return req.URL, nil
		}
		s.log.Warnw("blob_presign_failed", "key", key, "error", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3Store) DeleteMany(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			s.log.Errorw("blob_delete_failed", "bucket", s.bucket, "count", len(ids), "error", err)
			return fmt.Errorf("s3 delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("s3 delete objects: %d failed, first %s: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	s.log.Infow("blob_delete_ok", "bucket", s.bucket, "count", len(keys))
	return nil
}

package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrUploadFailed   = errors.New(errors.ErrCodeStorageError, "upload failed")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ObjectStorageRepository stores export artifacts in the export bucket.
type ObjectStorageRepository interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	Exists(ctx context.Context, objectKey string) (bool, error)
	GetMetadata(ctx context.Context, objectKey string) (*ObjectMetadata, error)
	Delete(ctx context.Context, objectKey string) error
	List(ctx context.Context, prefix string) ([]*ObjectMetadata, error)
	GetPresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

type UploadRequest struct {
	ObjectKey   string
	Reader      io.Reader
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Bucket     string    `json:"bucket"`
	ObjectKey  string    `json:"object_key"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ObjectMetadata struct {
	ObjectKey    string            `json:"object_key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ExportKey builds a dated, collision-free object key such as
// exports/cases/2024/06/10/<uuid>.csv.
func ExportKey(kind, ext string, at time.Time) string {
	return fmt.Sprintf("%s%s/%s/%s.%s", ExportPrefix, kind, at.UTC().Format("2006/01/02"), uuid.NewString(), strings.TrimPrefix(ext, "."))
}

type minioRepository struct {
	client *MinIOClient
	logger logging.Logger
}

func NewObjectStorageRepository(client *MinIOClient, log logging.Logger) ObjectStorageRepository {
	return &minioRepository{client: client, logger: log}
}

func (r *minioRepository) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req == nil || req.ObjectKey == "" || req.Reader == nil {
		return nil, ErrInvalidRequest.WithDetail("object key and reader are required")
	}
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	size := req.Size
	if size <= 0 {
		size = -1
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	start := time.Now()
	info, err := r.client.api.PutObject(ctx, r.client.bucket, req.ObjectKey, req.Reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: req.Metadata,
	})
	if err != nil {
		r.logger.Error("Upload failed", logging.String("key", req.ObjectKey), logging.Err(err))
		return nil, ErrUploadFailed.WithCause(err).WithDetail("key=" + req.ObjectKey)
	}
	r.logger.Debug("Object uploaded",
		logging.String("key", req.ObjectKey),
		logging.Int64("size", info.Size),
		logging.Duration("took", time.Since(start)))

	return &UploadResult{
		Bucket:     r.client.bucket,
		ObjectKey:  req.ObjectKey,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (r *minioRepository) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := r.stat(ctx, objectKey)
	if errors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *minioRepository) GetMetadata(ctx context.Context, objectKey string) (*ObjectMetadata, error) {
	info, err := r.stat(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	return toMetadata(info), nil
}

func (r *minioRepository) stat(ctx context.Context, objectKey string) (minio.ObjectInfo, error) {
	if objectKey == "" {
		return minio.ObjectInfo{}, ErrInvalidRequest.WithDetail("object key is required")
	}
	info, err := r.client.api.StatObject(ctx, r.client.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return minio.ObjectInfo{}, ErrObjectNotFound.WithDetail("key=" + objectKey)
		}
		return minio.ObjectInfo{}, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat object").WithDetail("key=" + objectKey)
	}
	return info, nil
}

func (r *minioRepository) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return ErrInvalidRequest.WithDetail("object key is required")
	}
	if err := r.client.api.RemoveObject(ctx, r.client.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete object").WithDetail("key=" + objectKey)
	}
	return nil
}

// List returns every object under prefix, recursively.
func (r *minioRepository) List(ctx context.Context, prefix string) ([]*ObjectMetadata, error) {
	var out []*ObjectMetadata
	for obj := range r.client.api.ListObjects(ctx, r.client.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list objects").WithDetail("prefix=" + prefix)
		}
		out = append(out, toMetadata(obj))
	}
	return out, nil
}

// GetPresignedDownloadURL signs a GET for objectKey. A zero expiry uses the
// configured default.
func (r *minioRepository) GetPresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if objectKey == "" {
		return "", ErrInvalidRequest.WithDetail("object key is required")
	}
	if expiry <= 0 {
		expiry = r.client.presignExpiry
	}
	u, err := r.client.api.PresignedGetObject(ctx, r.client.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign object").WithDetail("key=" + objectKey)
	}
	return u.String(), nil
}

func toMetadata(info minio.ObjectInfo) *ObjectMetadata {
	return &ObjectMetadata{
		ObjectKey:    info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     info.UserMetadata,
	}
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

//Personal.AI order the ending

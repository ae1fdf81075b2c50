package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"podium/internal/coachapi"
	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/services"
)

// objectStore is the subset of *minio.Client the archive uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

// Object describes an archived clip.
type Object struct {
	Key  string
	Size int64
	URL  string
}

// Archive wraps MinIO/S3 interactions for clip storage.
type Archive struct {
	client objectStore
	bucket string
	region string
	expiry time.Duration
	logger *slog.Logger

	bucketOnce sync.Once
	bucketErr  error
}

// New creates an archive from cfg. It returns nil when archiving is disabled.
func New(cfg *config.Config, logger *slog.Logger) (*Archive, error) {
	if cfg == nil || !cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := minio.New(cfg.Archive.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Archive.AccessKey, cfg.Archive.SecretKey, ""),
		Secure: cfg.Archive.UseSSL,
		Region: cfg.Archive.Region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "init client", "invalid archive settings", err)
	}
	return newArchive(client, cfg.Archive.Bucket, cfg.Archive.Region, cfg.PresignExpiry(), logger), nil
}

func newArchive(client objectStore, bucket, region string, expiry time.Duration, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Archive{
		client: client,
		bucket: bucket,
		region: region,
		expiry: expiry,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// Bucket returns the target bucket name.
func (a *Archive) Bucket() string {
	if a == nil {
		return ""
	}
	return a.bucket
}

// ensureBucket makes sure the bucket exists before the first upload.
func (a *Archive) ensureBucket(ctx context.Context) error {
	a.bucketOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.bucketErr = fmt.Errorf("check bucket %s: %w", a.bucket, err)
			return
		}
		if exists {
			return
		}
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
			a.bucketErr = fmt.Errorf("make bucket %s: %w", a.bucket, err)
		}
	})
	return a.bucketErr
}

// Upload stores the clip under sessions/<sessionID>/ and returns a presigned
// download link.
func (a *Archive) Upload(ctx context.Context, media coachapi.Media, sessionID string) (Object, error) {
	if a == nil {
		return Object{}, nil
	}
	if err := a.ensureBucket(ctx); err != nil {
		return Object{}, services.Wrap(services.ErrTransient, "archive", "ensure bucket", "archive bucket unavailable", err)
	}

	key := ObjectKey(sessionID, media.Name)
	reader, err := media.Open()
	if err != nil {
		return Object{}, fmt.Errorf("open clip: %w", err)
	}
	defer reader.Close()

	info, err := a.client.PutObject(ctx, a.bucket, key, reader, media.Size, minio.PutObjectOptions{ContentType: media.ContentType})
	if err != nil {
		return Object{}, services.Wrap(services.ErrTransient, "archive", "upload", "clip upload failed", err)
	}

	link, err := a.Presign(ctx, key)
	if err != nil {
		return Object{}, err
	}
	a.logger.Info("clip archived",
		logging.String(logging.FieldEventType, "clip_archived"),
		logging.String("bucket", a.bucket),
		logging.String("object_key", key),
		logging.Int64("clip_size_bytes", info.Size),
	)
	return Object{Key: key, Size: info.Size, URL: link}, nil
}

// Presign returns a signed GET URL for an archived object.
func (a *Archive) Presign(ctx context.Context, key string) (string, error) {
	if a == nil {
		return "", nil
	}
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, a.expiry, url.Values{})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "archive", "presign", "could not sign download link", err)
	}
	return u.String(), nil
}

// Remove deletes an archived object.
func (a *Archive) Remove(ctx context.Context, key string) error {
	if a == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return services.Wrap(services.ErrTransient, "archive", "remove", "could not delete archived clip", err)
	}
	return nil
}

// ObjectKey builds the object key for a session clip.
func ObjectKey(sessionID, name string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = "unsorted"
	}
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "clip"
	}
	return path.Join("sessions", sessionID, name)
}

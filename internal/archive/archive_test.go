package archive

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"podium/internal/coachapi"
	"podium/internal/config"
	"podium/internal/services"
)

type fakeStore struct {
	mu          sync.Mutex
	exists      bool
	existsCalls int
	made        []string
	objects     map[string][]byte
	contentType map[string]string
	removed     []string
	putErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (f *fakeStore) BucketExists(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	return f.exists, nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.made = append(f.made, bucket)
	f.exists = true
	return nil
}

func (f *fakeStore) PutObject(_ context.Context, _ string, object string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[object] = data
	f.contentType[object] = opts.ContentType
	return minio.UploadInfo{Key: object, Size: int64(len(data))}, nil
}

func (f *fakeStore) PresignedGetObject(_ context.Context, bucket, object string, expiry time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse("https://archive.test/" + bucket + "/" + object + "?expires=" + expiry.String())
}

func (f *fakeStore) RemoveObject(_ context.Context, _ string, object string, _ minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, object)
	return nil
}

func TestUploadCreatesBucketOnceAndPresigns(t *testing.T) {
	store := newFakeStore()
	a := newArchive(store, "podium-clips", "us-east-1", time.Hour, nil)

	media := coachapi.BytesMedia("answer.webm", []byte("clipdata"))
	obj, err := a.Upload(context.Background(), media, "sess-1")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if obj.Key != "sessions/sess-1/answer.webm" || obj.Size != 8 {
		t.Fatalf("unexpected object %+v", obj)
	}
	if !strings.Contains(obj.URL, "podium-clips/sessions/sess-1/answer.webm") {
		t.Fatalf("unexpected url %s", obj.URL)
	}
	if store.contentType[obj.Key] != "video/webm" {
		t.Fatalf("unexpected content type %q", store.contentType[obj.Key])
	}

	if _, err := a.Upload(context.Background(), media, "sess-2"); err != nil {
		t.Fatalf("second Upload returned error: %v", err)
	}
	if store.existsCalls != 1 || len(store.made) != 1 {
		t.Fatalf("expected bucket check once, got exists=%d made=%v", store.existsCalls, store.made)
	}
}

func TestUploadFailureIsTransient(t *testing.T) {
	store := newFakeStore()
	store.exists = true
	store.putErr = errors.New("connection reset")
	a := newArchive(store, "b", "", time.Hour, nil)
	_, err := a.Upload(context.Background(), coachapi.BytesMedia("a.mp4", []byte("x")), "s")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNilArchiveIsNoop(t *testing.T) {
	var a *Archive
	obj, err := a.Upload(context.Background(), coachapi.BytesMedia("a.mp4", []byte("x")), "s")
	if err != nil || obj.Key != "" {
		t.Fatalf("expected no-op, got %+v %v", obj, err)
	}
	if err := a.Remove(context.Background(), "k"); err != nil {
		t.Fatalf("Remove on nil archive: %v", err)
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	cfg := config.Default()
	a, err := New(&cfg, nil)
	if err != nil || a != nil {
		t.Fatalf("expected nil archive when disabled, got %v %v", a, err)
	}
}

func TestNewBuildsMinioClient(t *testing.T) {
	cfg := config.Default()
	cfg.Archive.Enabled = true
	cfg.Archive.Endpoint = "localhost:9000"
	cfg.Archive.AccessKey = "access"
	cfg.Archive.SecretKey = "secret"
	cfg.Archive.UseSSL = false
	a, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if a.Bucket() != "podium-clips" {
		t.Fatalf("unexpected bucket %q", a.Bucket())
	}
	link, err := a.Presign(context.Background(), "sessions/x/clip.mkv")
	if err != nil {
		t.Fatalf("Presign returned error: %v", err)
	}
	if !strings.Contains(link, "X-Amz-Signature") {
		t.Fatalf("expected signed url, got %s", link)
	}
}

func TestObjectKey(t *testing.T) {
	cases := map[[2]string]string{
		{"s1", "clip.mkv"}:        "sessions/s1/clip.mkv",
		{"", "clip.mkv"}:          "sessions/unsorted/clip.mkv",
		{"s1", "../../etc/x.mp4"}: "sessions/s1/x.mp4",
		{"s1", ""}:                "sessions/s1/clip",
	}
	for in, want := range cases {
		if got := ObjectKey(in[0], in[1]); got != want {
			t.Fatalf("ObjectKey(%q, %q) = %q want %q", in[0], in[1], got, want)
		}
	}
}

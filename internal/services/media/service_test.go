package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/vision"
)

type stubDownloader struct {
	body        string
	name        string
	contentType string
	err         error
}

func (s *stubDownloader) DownloadPhoto(ctx context.Context, fileID string) (io.ReadCloser, int64, string, string, error) {
	if s.err != nil {
		return nil, 0, "", "", s.err
	}
	return io.NopCloser(bytes.NewReader([]byte(s.body))), int64(len(s.body)), s.name, s.contentType, nil
}

type stubStorage struct {
	putKeys    []string
	moves      map[string]string
	deleted    []string
	putErr     error
	moveErr    error
	ensureErr  error
	ensureHits int
}

func (s *stubStorage) EnsureBucket(ctx context.Context) error {
	s.ensureHits++
	return s.ensureErr
}

func (s *stubStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.putKeys = append(s.putKeys, key)
	return nil
}

func (s *stubStorage) Move(ctx context.Context, srcKey, dstKey string) error {
	if s.moveErr != nil {
		return s.moveErr
	}
	if s.moves == nil {
		s.moves = map[string]string{}
	}
	s.moves[srcKey] = dstKey
	return nil
}

func (s *stubStorage) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type stubFaces struct {
	result vision.DetectResult
	err    error
}

func (s *stubFaces) DetectFace(ctx context.Context, photoURL, objectKey string) (vision.DetectResult, error) {
	return s.result, s.err
}

type stubPhotoStore struct {
	created     []model.Photo
	rejectCount int
	resetCalls  int
	createErr   error
}

func (s *stubPhotoStore) Create(ctx context.Context, p model.Photo) (model.Photo, error) {
	if s.createErr != nil {
		return model.Photo{}, s.createErr
	}
	p.ID = int64(len(s.created) + 1)
	s.created = append(s.created, p)
	return p, nil
}

func (s *stubPhotoStore) IncrementRejectCount(ctx context.Context, accountID int64) (int, error) {
	s.rejectCount++
	return s.rejectCount, nil
}

func (s *stubPhotoStore) ResetRejectCount(ctx context.Context, accountID int64) error {
	s.resetCalls++
	s.rejectCount = 0
	return nil
}

func newTestService(dl *stubDownloader, st *stubStorage, fc *stubFaces, ps *stubPhotoStore) *Service {
	svc := NewService(dl, st, fc, ps)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return svc
}

func TestUploadAcceptedPhoto(t *testing.T) {
	dl := &stubDownloader{body: "jpegdata", name: "file_42.jpg", contentType: "image/jpeg"}
	st := &stubStorage{}
	fc := &stubFaces{result: vision.DetectResult{FaceDetected: true, BlurredKey: "photos/7_20250314T092653_b.jpg"}}
	ps := &stubPhotoStore{}
	svc := newTestService(dl, st, fc, ps)

	res, err := svc.Upload(context.Background(), 7, "file-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FaceDetected {
		t.Fatalf("expected face detected result")
	}
	wantKey := "photos/7_20250314T092653.jpg"
	if len(st.putKeys) != 1 || st.putKeys[0] != wantKey {
		t.Fatalf("unexpected stored keys: got %v want [%s]", st.putKeys, wantKey)
	}
	if len(ps.created) != 1 {
		t.Fatalf("unexpected created photos: got %d want 1", len(ps.created))
	}
	got := ps.created[0]
	if got.ObjectKey != wantKey || !got.Verified {
		t.Fatalf("unexpected photo record: %+v", got)
	}
	if !strings.HasSuffix(got.BlurredPath, "_b.jpg") {
		t.Fatalf("unexpected blurred path: %s", got.BlurredPath)
	}
	if ps.resetCalls != 1 {
		t.Fatalf("unexpected reset calls: got %d want 1", ps.resetCalls)
	}
}

func TestUploadRejectedPhotoMovedAndCounted(t *testing.T) {
	dl := &stubDownloader{body: "jpegdata", name: "file.jpg", contentType: "image/jpeg"}
	st := &stubStorage{}
	fc := &stubFaces{result: vision.DetectResult{FaceDetected: false}}
	ps := &stubPhotoStore{rejectCount: 4}
	svc := newTestService(dl, st, fc, ps)

	res, err := svc.Upload(context.Background(), 9, "file-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FaceDetected {
		t.Fatalf("expected rejected result")
	}
	if res.RejectCount != 5 {
		t.Fatalf("unexpected reject count: got %d want 5", res.RejectCount)
	}
	src := "photos/9_20250314T092653.jpg"
	dst, ok := st.moves[src]
	if !ok {
		t.Fatalf("photo was not moved, moves: %v", st.moves)
	}
	if !strings.HasPrefix(dst, "photos/rejected/") {
		t.Fatalf("unexpected rejected key: %s", dst)
	}
	if len(ps.created) != 0 {
		t.Fatalf("rejected photo must not be recorded, got %d rows", len(ps.created))
	}
}

func TestUploadMissingExtDefaultsToJPG(t *testing.T) {
	dl := &stubDownloader{body: "jpegdata", name: "", contentType: "image/jpeg"}
	st := &stubStorage{}
	fc := &stubFaces{result: vision.DetectResult{FaceDetected: true}}
	ps := &stubPhotoStore{}
	svc := newTestService(dl, st, fc, ps)

	if _, err := svc.Upload(context.Background(), 3, "file-id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.putKeys) != 1 || !strings.HasSuffix(st.putKeys[0], ".jpg") {
		t.Fatalf("unexpected object key: %v", st.putKeys)
	}
}

func TestUploadDetectErrorDeletesObject(t *testing.T) {
	dl := &stubDownloader{body: "jpegdata", name: "file.jpg", contentType: "image/jpeg"}
	st := &stubStorage{}
	fc := &stubFaces{err: fmt.Errorf("vision unavailable")}
	ps := &stubPhotoStore{}
	svc := newTestService(dl, st, fc, ps)

	if _, err := svc.Upload(context.Background(), 3, "file-id"); err == nil {
		t.Fatalf("expected error from vision failure")
	}
	if len(st.deleted) != 1 {
		t.Fatalf("unexpected deletes: got %v", st.deleted)
	}
	if len(ps.created) != 0 || ps.rejectCount != 0 {
		t.Fatalf("store must not be touched on vision failure")
	}
}

func TestUploadValidation(t *testing.T) {
	svc := newTestService(&stubDownloader{}, &stubStorage{}, &stubFaces{}, &stubPhotoStore{})

	if _, err := svc.Upload(context.Background(), 0, "file-id"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrValidation)
	}
	if _, err := svc.Upload(context.Background(), 1, "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrValidation)
	}
}

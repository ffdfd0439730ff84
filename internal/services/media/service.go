package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/vision"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrFaceNotDetected = errors.New("face not detected")
)

const (
	photoPrefix    = "photos/"
	rejectedPrefix = "photos/rejected/"
	blurredSuffix  = "_b"
)

type Downloader interface {
	DownloadPhoto(ctx context.Context, fileID string) (io.ReadCloser, int64, string, string, error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Move(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type FaceChecker interface {
	DetectFace(ctx context.Context, photoURL, objectKey string) (vision.DetectResult, error)
}

type PhotoStore interface {
	Create(ctx context.Context, p model.Photo) (model.Photo, error)
	IncrementRejectCount(ctx context.Context, accountID int64) (int, error)
	ResetRejectCount(ctx context.Context, accountID int64) error
}

type Service struct {
	downloader Downloader
	storage    ObjectStorage
	faces      FaceChecker
	store      PhotoStore
	now        func() time.Time
}

// UploadResult is the outcome of one photo submission. RejectCount is
// meaningful only when FaceDetected is false.
type UploadResult struct {
	Photo        model.Photo
	FaceDetected bool
	RejectCount  int
}

func NewService(downloader Downloader, storage ObjectStorage, faces FaceChecker, store PhotoStore) *Service {
	return &Service{
		downloader: downloader,
		storage:    storage,
		faces:      faces,
		store:      store,
		now:        time.Now,
	}
}

// Upload pulls the photo from the transport, stores it, and runs face
// verification. A rejected photo is parked under the rejected prefix
// and bumps the account's consecutive reject counter; an accepted one
// resets the counter and lands in the photos table with its blurred
// variant key.
func (s *Service) Upload(ctx context.Context, accountID int64, fileID string) (UploadResult, error) {
	if accountID <= 0 || strings.TrimSpace(fileID) == "" {
		return UploadResult{}, ErrValidation
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return UploadResult{}, fmt.Errorf("ensure bucket: %w", err)
	}

	body, size, name, contentType, err := s.downloader.DownloadPhoto(ctx, fileID)
	if err != nil {
		return UploadResult{}, fmt.Errorf("download photo: %w", err)
	}
	defer body.Close()

	key := s.buildObjectKey(accountID, name)
	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return UploadResult{}, fmt.Errorf("store photo: %w", err)
	}

	detect, err := s.faces.DetectFace(ctx, s.storage.PublicURL(key), key)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		return UploadResult{}, fmt.Errorf("verify photo: %w", err)
	}

	if !detect.FaceDetected {
		rejectedKey := rejectedPrefix + strings.TrimPrefix(key, photoPrefix)
		if err := s.storage.Move(ctx, key, rejectedKey); err != nil {
			return UploadResult{}, fmt.Errorf("move rejected photo: %w", err)
		}

		count, err := s.store.IncrementRejectCount(ctx, accountID)
		if err != nil {
			return UploadResult{}, fmt.Errorf("bump reject count: %w", err)
		}
		return UploadResult{FaceDetected: false, RejectCount: count}, nil
	}

	blurredKey := detect.BlurredKey
	if blurredKey == "" {
		blurredKey = blurredVariantKey(key)
	}

	photo, err := s.store.Create(ctx, model.Photo{
		AccountID:   accountID,
		ObjectKey:   key,
		Path:        s.storage.PublicURL(key),
		BlurredPath: s.storage.PublicURL(blurredKey),
		Size:        size,
		Verified:    true,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("store photo record: %w", err)
	}

	if err := s.store.ResetRejectCount(ctx, accountID); err != nil {
		return UploadResult{}, fmt.Errorf("reset reject count: %w", err)
	}

	return UploadResult{Photo: photo, FaceDetected: true}, nil
}

func (s *Service) buildObjectKey(accountID int64, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".jpg"
	}
	stamp := s.now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s%d_%s%s", photoPrefix, accountID, stamp, ext)
}

func blurredVariantKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + blurredSuffix + ext
}

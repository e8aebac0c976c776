package services

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

const MaxUploadSize = 5 << 20

const (
	ProfileImagesFolder = "profile-images"
	EventImagesFolder   = "event-images"
	PicoImagesFolder    = "pico-images"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Uploader stores files and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, folder, publicID string) (string, error)
	Delete(ctx context.Context, url string) error
}

type MediaService struct {
	uploader Uploader
}

func NewMediaService(uploader Uploader) *MediaService {
	return &MediaService{uploader: uploader}
}

// CheckImage accepts JPEG, PNG and WebP up to 5 MB, sniffed from the content.
func CheckImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}
	if len(data) > MaxUploadSize {
		return "", fmt.Errorf("%w: file exceeds 5MB", models.ErrInvalidInput)
	}
	mtype := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported file type %s", models.ErrInvalidInput, mtype.String())
}

func (ms *MediaService) upload(ctx context.Context, data []byte, folder, publicID string) (string, error) {
	if _, err := CheckImage(data); err != nil {
		return "", err
	}
	url, err := ms.uploader.Upload(ctx, data, folder, publicID)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return url, nil
}

// UploadProfileImage replaces the user's profile picture.
func (ms *MediaService) UploadProfileImage(ctx context.Context, userID string, data []byte) (string, error) {
	return ms.upload(ctx, data, ProfileImagesFolder, userID)
}

// UploadEventImage stores the cover image of an event. A draft without an id gets one.
func (ms *MediaService) UploadEventImage(ctx context.Context, eventID string, data []byte) (string, error) {
	if eventID == "" {
		eventID = uuid.New().String()
	}
	return ms.upload(ctx, data, EventImagesFolder, eventID)
}

// UploadPicoPhoto adds a photo under the pico's folder.
func (ms *MediaService) UploadPicoPhoto(ctx context.Context, picoID string, data []byte) (string, error) {
	if picoID == "" {
		picoID = "drafts"
	}
	return ms.upload(ctx, data, PicoImagesFolder+"/"+picoID, uuid.New().String())
}

func (ms *MediaService) Delete(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("%w: url is required", models.ErrInvalidInput)
	}
	return ms.uploader.Delete(ctx, url)
}

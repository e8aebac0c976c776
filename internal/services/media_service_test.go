package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/rolecerto/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type uploadCall struct {
	folder, publicID string
}

type fakeUploader struct {
	uploads []uploadCall
	deleted []string
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, folder, publicID string) (string, error) {
	f.uploads = append(f.uploads, uploadCall{folder, publicID})
	return "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + publicID + ".png", nil
}

func (f *fakeUploader) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func TestCheckImage(t *testing.T) {
	if mtype, err := CheckImage(pngHeader); err != nil || mtype != "image/png" {
		t.Fatalf("png: %q, %v", mtype, err)
	}

	refused := map[string][]byte{
		"empty":    nil,
		"text":     []byte("hello, not an image"),
		"too big":  append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxUploadSize)...),
		"gif file": []byte("GIF89a\x01\x00\x01\x00"),
	}
	for name, data := range refused {
		if _, err := CheckImage(data); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestMediaFolders(t *testing.T) {
	up := &fakeUploader{}
	ms := NewMediaService(up)
	ctx := context.Background()

	if _, err := ms.UploadProfileImage(ctx, "u1", pngHeader); err != nil {
		t.Fatal(err)
	}
	if _, err := ms.UploadEventImage(ctx, "", pngHeader); err != nil {
		t.Fatal(err)
	}
	url, err := ms.UploadPicoPhoto(ctx, "p1", pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	if url == "" {
		t.Error("empty url")
	}

	if up.uploads[0] != (uploadCall{ProfileImagesFolder, "u1"}) {
		t.Errorf("profile upload = %+v", up.uploads[0])
	}
	if up.uploads[1].folder != EventImagesFolder || up.uploads[1].publicID == "" {
		t.Errorf("event upload = %+v", up.uploads[1])
	}
	if up.uploads[2].folder != "pico-images/p1" || up.uploads[2].publicID == "" {
		t.Errorf("pico upload = %+v", up.uploads[2])
	}
}

func TestMediaRejectsBeforeUpload(t *testing.T) {
	up := &fakeUploader{}
	ms := NewMediaService(up)

	if _, err := ms.UploadProfileImage(context.Background(), "u1", []byte("plain text")); err == nil {
		t.Fatal("expected rejection")
	}
	if len(up.uploads) != 0 {
		t.Error("rejected file reached the uploader")
	}
	if err := ms.Delete(context.Background(), ""); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("empty delete: %v", err)
	}
}

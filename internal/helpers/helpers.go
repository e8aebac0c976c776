package helpers

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var (
	hasLetter  = regexp.MustCompile(`[A-Za-z]`)
	hasNumber  = regexp.MustCompile(`\d`)
	versionSeg = regexp.MustCompile(`^v\d+$`)
)

// IsPasswordStrong requires at least six characters mixing letters and digits.
func IsPasswordStrong(password string) bool {
	if len(password) < 6 {
		return false
	}
	return hasLetter.MatchString(password) && hasNumber.MatchString(password)
}

// CloudinaryUploader stores images on Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, folder, publicID string) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:    folder,
		PublicID:  publicID,
		Overwrite: api.Bool(true),
		Tags:      []string{"rolecerto"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %v", folder, publicID, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload %s/%s: %s", folder, publicID, res.Error.Message)
	}
	return res.SecureURL, nil
}

func (u *CloudinaryUploader) Delete(ctx context.Context, fileURL string) error {
	publicID, err := PublicIDFromURL(fileURL)
	if err != nil {
		return err
	}
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %v", publicID, err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("failed to delete %s: %s", publicID, res.Result)
	}
	return nil
}

// PublicIDFromURL extracts "folder/name" from a Cloudinary delivery URL.
func PublicIDFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %v", fileURL, err)
	}
	_, rest, found := strings.Cut(u.Path, "/upload/")
	if !found || rest == "" {
		return "", fmt.Errorf("not a cloudinary upload url: %q", fileURL)
	}

	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		if versionSeg.MatchString(seg) {
			segments = segments[i+1:]
			break
		}
	}
	id := strings.Join(segments, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", fmt.Errorf("not a cloudinary upload url: %q", fileURL)
	}
	return id, nil
}

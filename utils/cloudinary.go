package utils

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// CloudinaryUploader hosts proof images in the "proofs" folder of the
// configured Cloudinary account.
type CloudinaryUploader struct{}

func NewCloudinaryUploader() (*CloudinaryUploader, error) {
	if os.Getenv("CLOUDINARY_CLOUD_NAME") == "" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME not configured")
	}
	return &CloudinaryUploader{}, nil
}

func getCloudinaryInstance() (*cloudinary.Cloudinary, error) {
	return cloudinary.NewFromParams(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		os.Getenv("CLOUDINARY_API_SECRET"),
	)
}

// UploadProof uploads one proof image and returns its secure URL.
func (u *CloudinaryUploader) UploadProof(ctx context.Context, r io.Reader) (string, error) {
	cld, err := getCloudinaryInstance()
	if err != nil {
		return "", fmt.Errorf("cloudinary config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	uploadResp, err := cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   "proofs",
		PublicID: "proof_" + uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %v", err)
	}

	return uploadResp.SecureURL, nil
}

// Delete removes a hosted proof image given its full URL.
func (u *CloudinaryUploader) Delete(ctx context.Context, imageURL string) error {
	cld, err := getCloudinaryInstance()
	if err != nil {
		return fmt.Errorf("cloudinary config error: %v", err)
	}

	publicID, err := extractPublicID(imageURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("delete error: %v", err)
	}

	return nil
}

// extractPublicID pulls the Cloudinary public ID out of a full URL.
// Example: https://res.cloudinary.com/demo/image/upload/v123/proofs/proof_abc.jpg
// -> proofs/proof_abc
func extractPublicID(imageURL string) (string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	if len(parts) < 4 {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}

	// Everything after /upload/, minus the version segment and extension.
	rest := parts[3:]
	if strings.HasPrefix(rest[0], "v") {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}

	joined := path.Join(rest...)
	return strings.TrimSuffix(joined, path.Ext(joined)), nil
}

package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryOptions holds the account credentials and upload destination.
type CloudinaryOptions struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary uploads images to a Cloudinary account.
type Cloudinary struct {
	cld     *cloudinary.Cloudinary
	folder  string
	formats []string
	logger  *zap.Logger
}

func NewCloudinary(opts CloudinaryOptions, logger *zap.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(opts.CloudName, opts.APIKey, opts.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}

	folder := opts.Folder
	if folder == "" {
		folder = "articles"
	}

	return &Cloudinary{
		cld:     cld,
		folder:  folder,
		formats: DefaultFormats,
		logger:  logger.With(zap.String("component", "media"), zap.String("provider", "cloudinary")),
	}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, f File) (Asset, error) {
	r, _, err := sniff(f, c.formats)
	if err != nil {
		return Asset{}, err
	}

	resp, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         c.folder,
		AllowedFormats: api.CldAPIArray(c.formats),
	})
	if err != nil {
		return Asset{}, &UploadError{Provider: "cloudinary", Err: err}
	}
	if resp.Error.Message != "" {
		return Asset{}, &UploadError{Provider: "cloudinary", Err: errors.New(resp.Error.Message)}
	}

	c.logger.Debug("Uploaded image", zap.String("public_id", resp.PublicID))
	return Asset{ID: resp.PublicID, URL: resp.SecureURL}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, assetID string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: assetID})
	if err != nil {
		return &UploadError{Provider: "cloudinary", Err: err}
	}
	if resp.Error.Message != "" {
		return &UploadError{Provider: "cloudinary", Err: errors.New(resp.Error.Message)}
	}
	return nil
}

// Package media stores uploaded article images with an external host and
// hands back a URL the API can persist.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultFormats are the image formats accepted for upload.
var DefaultFormats = []string{"jpg", "jpeg", "png"}

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNotFound          = errors.New("media not found")
)

// UploadError reports a failure of the media host itself.
type UploadError struct {
	Provider string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s upload failed: %v", e.Provider, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// File is an image received from a client.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Asset is a stored image. ID is what Delete expects; URL is what clients fetch.
type Asset struct {
	ID  string
	URL string
}

// Deleter removes a previously uploaded asset.
type Deleter interface {
	Delete(ctx context.Context, assetID string) error
}

// Uploader is the media host used by the API.
type Uploader interface {
	Deleter
	Upload(ctx context.Context, f File) (Asset, error)
}

// sniff detects the format of f from its leading bytes and rejects anything
// outside formats. The returned reader replays the sniffed bytes.
func sniff(f File, formats []string) (io.Reader, *mimetype.MIME, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	ext := strings.TrimPrefix(mtype.Extension(), ".")
	if !allowed(ext, formats) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	return io.MultiReader(bytes.NewReader(head), f.Reader), mtype, nil
}

func allowed(ext string, formats []string) bool {
	if ext == "" {
		return false
	}
	for _, f := range formats {
		if strings.EqualFold(f, ext) {
			return true
		}
		// mimetype reports every JPEG as .jpg
		if ext == "jpg" && strings.EqualFold(f, "jpeg") {
			return true
		}
	}
	return false
}

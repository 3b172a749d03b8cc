package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxImageBytes bounds user image uploads
const DefaultMaxImageBytes = 10 << 20

// ErrInvalidImage is returned for uploads that are not images or are too large
var ErrInvalidImage = errors.New("invalid image")

// rasterImageTypes are the accepted upload formats. SVG is excluded since
// it can carry script once rendered from a data URL.
var rasterImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ReadImage reads a whole upload and checks that it is an image within maxBytes.
// It returns the data and its detected MIME type.
func ReadImage(r io.Reader, maxBytes int64) ([]byte, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxBytes)
	}

	contentType := mimetype.Detect(data).String()
	if !rasterImageTypes[contentType] {
		return nil, "", fmt.Errorf("%w: detected %s", ErrInvalidImage, contentType)
	}
	return data, contentType, nil
}

// EncodeImageDataURL reads an image upload and returns it as a base64 data URL
func EncodeImageDataURL(r io.Reader, maxBytes int64) (string, error) {
	data, contentType, err := ReadImage(r, maxBytes)
	if err != nil {
		return "", err
	}
	return DataURL(contentType, data), nil
}

// DataURL formats data as data:<mime>;base64,<payload>
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

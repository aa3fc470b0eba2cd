package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"rentease/internal/models"
)

const (
	maxUploadMemory = 32 << 20
	maxImageSize    = 10 << 20
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// collectImageFiles returns the files stored under any of keys.
func collectImageFiles(form *multipart.Form, keys ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}

	var result []*multipart.FileHeader
	for _, key := range keys {
		if headers, ok := form.File[key]; ok {
			result = append(result, headers...)
		}
	}
	return result
}

// readUploads loads the image files of a multipart form into memory.
func readUploads(form *multipart.Form, keys ...string) ([]models.Upload, error) {
	headers := collectImageFiles(form, keys...)
	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxImageSize {
			return nil, fmt.Errorf("%w: %s is larger than %d bytes", models.ErrValidation, fh.Filename, maxImageSize)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		if len(data) > maxImageSize {
			return nil, fmt.Errorf("%w: %s is larger than %d bytes", models.ErrValidation, fh.Filename, maxImageSize)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		if _, ok := allowedImageTypes[contentType]; !ok {
			return nil, fmt.Errorf("%w: %s is not an image (%s)", models.ErrValidation, fh.Filename, contentType)
		}
		uploads = append(uploads, models.Upload{
			Name:        filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/")),
			ContentType: contentType,
			Data:        data,
		})
	}
	return uploads, nil
}

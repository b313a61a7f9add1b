package handlers

import (
	"errors"
	"net/http"

	"codecourse/internal/service"
)

// parseUpload extracts an optional file field from a multipart form. A
// missing file is not an error; the caller sees a nil upload.
func parseUpload(r *http.Request, field string, maxSize int64) (*service.Upload, func(), error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, nil, err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, nil, err
	}

	upload := &service.Upload{File: file, Filename: header.Filename}
	return upload, func() { file.Close() }, nil
}

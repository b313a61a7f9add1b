package handlers

import (
	"errors"
	"net/http"

	"codecourse/internal/pictures"
	"codecourse/internal/validation"
)

// UploadHandler accepts editor image uploads and returns the stored URL as
// JSON, in the shape the rich-text editor expects
type UploadHandler struct {
	pictures      *pictures.Store
	uploadMaxSize int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(picStore *pictures.Store, uploadMaxSize int64) *UploadHandler {
	return &UploadHandler{
		pictures:      picStore,
		uploadMaxSize: uploadMaxSize,
	}
}

// UploadImage stores an uploaded image under the generic uploads category
// and responds with {"location": url}
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": ErrInvalidFormData})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close()

	if err := validation.ValidateImageExtension(header.Filename); err != nil {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message})
			return
		}
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported file type"})
		return
	}

	// Stored at the uploaded size; the editor handles display sizing
	name, err := h.pictures.Save(file, header.Filename, pictures.CategoryUploads, 0, 0)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error storing upload", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"location": pictures.URLPath(name, pictures.CategoryUploads),
	})
}

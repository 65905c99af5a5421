package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/http/response"
	"github.com/recipebox/recipebox-server/internal/media/images"
)

// multipartOverhead is allowed on top of the image for boundaries and headers.
const multipartOverhead = 1 << 20

// Cache-Control header values.
const (
	// CacheOneWeek is used for recipe images; file names change on every upload.
	CacheOneWeek = "public, max-age=604800"
)

// ImageUploadResponse is returned after a successful upload.
type ImageUploadResponse struct {
	ID            int64   `json:"id"`
	Image         *string `json:"image"`
	ImageBlurHash string  `json:"image_blur_hash,omitempty"`
}

// handleUploadRecipeImage stores an image sent as the multipart field "image".
// POST /api/v1/recipes/{id}/upload-image.
func (s *Server) handleUploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	recipeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.NotFound(w, "recipe not found", s.logger)
		return
	}

	if _, err := s.services.Recipe.Get(ctx, userID, recipeID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	data, err := readImageField(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, userID, recipeID, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ImageUploadResponse{
		ID:            recipe.ID,
		Image:         imageURL(recipe.Image),
		ImageBlurHash: recipe.ImageBlurHash,
	}, s.logger)
}

// readImageField returns the bytes of the "image" form file. A request
// with no file yields nil data, which the service reports as a field error.
func readImageField(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(images.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domainerrors.ValidationField("image", "file is larger than 10 MB")
		}
		return nil, domainerrors.ValidationField("image", "the submitted data was not a file, check the encoding type on the form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.ValidationField("image", "the submitted data was not a file")
	}
	defer func() { _ = file.Close() }()

	if header.Size > images.MaxUploadSize {
		return nil, domainerrors.ValidationField("image", "file is larger than 10 MB")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read upload")
	}
	return data, nil
}

// handleGetRecipeImage serves a stored recipe image.
// GET /media/recipes/{file}.
func (s *Server) handleGetRecipeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")

	path, err := s.images.Path(name)
	if err != nil || !s.images.Exists(name) {
		response.NotFound(w, "image not found", s.logger)
		return
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		s.logger.Error("Failed to stat recipe image", "image", name, "error", err)
		response.InternalError(w, "failed to retrieve image", s.logger)
		return
	}

	hash, err := s.images.Hash(name)
	if err != nil {
		s.logger.Error("Failed to hash recipe image", "image", name, "error", err)
		response.InternalError(w, "failed to retrieve image", s.logger)
		return
	}
	etag := `"` + hash + `"`

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.images.Get(name)
	if err != nil {
		s.logger.Error("Failed to read recipe image", "image", name, "error", err)
		response.InternalError(w, "failed to retrieve image", s.logger)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", CacheOneWeek)
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", fileInfo.ModTime().UTC().Format(http.TimeFormat))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write recipe image response", "image", name, "error", err)
	}
}

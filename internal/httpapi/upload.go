package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tonybigdeals/dog-project/internal/httputil"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/services/upload"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

const uploadField = "image"

// multipartOverhead leaves room for part headers and other small fields.
const multipartOverhead = 1 << 20

func (h *handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.svc.Upload.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	file, err := readImagePart(r, maxBytes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.Upload.UploadImage(r.Context(), file)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readImagePart streams the multipart body and returns the first "image" file part. A nil
// file means the field was absent. Oversized files are rejected while reading.
func readImagePart(r *http.Request, maxBytes int64) (*upload.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil
	}
	tooLarge := services.Validation(upload.TooLargeMessage(maxBytes))

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, tooLarge
		}
		if err != nil {
			return nil, services.Validation("Invalid multipart body")
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		data, truncated, err := httputil.ReadAllWithLimit(part, maxBytes)
		_ = part.Close()
		if truncated || errors.As(err, &mbe) {
			return nil, tooLarge
		}
		if err != nil {
			return nil, services.Validation("Invalid multipart body")
		}
		return &upload.File{
			Name:        part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}
}

// serveObject streams a stored object for backends that keep uploads in process or in
// their own database.
func (h *handler) serveObject(w http.ResponseWriter, r *http.Request) {
	if h.opts.Objects == nil {
		notFound(w, r)
		return
	}
	vars := mux.Vars(r)
	data, contentType, err := h.opts.Objects.GetObject(r.Context(), vars["bucket"], vars["path"])
	if errors.Is(err, storage.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}

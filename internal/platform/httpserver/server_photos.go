package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	httptransport "adboard/contexts/marketplace/ad-service/transport/http"
	"adboard/internal/platform/photostore"
)

// handleUploadPhoto accepts one multipart photo and returns the local
// reference the mini-app attaches to its submission. Uploads share the
// submit rate limit bucket.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid init data")
		return
	}
	if denied, message := s.limiter.Check("upload:" + strconv.FormatInt(caller.TelegramID, 10)); denied {
		writeError(w, http.StatusTooManyRequests, message)
		return
	}

	if err := r.ParseMultipartForm(photostore.MaxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo field is required")
		return
	}
	defer file.Close()

	// Read one byte past the cap so oversized uploads are detected
	// without buffering arbitrarily large bodies.
	data, err := io.ReadAll(io.LimitReader(file, photostore.MaxPhotoSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "upload read failed")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ref, err := s.photos.Save(data, contentType)
	if err != nil {
		s.writePhotoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, httptransport.UploadPhotoResponse{PhotoID: ref})
}

func (s *Server) handleServePhoto(w http.ResponseWriter, r *http.Request) {
	path, ok := s.photos.Path(r.PathValue("ref"))
	if !ok {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) writePhotoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, photostore.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, photostore.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, photostore.ErrEmptyPhoto):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("photo store failure")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

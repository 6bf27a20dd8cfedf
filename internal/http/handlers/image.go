package handlers

import (
	"net/http"

	"moviegen/internal/media"
)

const maxImageUploadBytes = 20 << 20

type imageResponse struct {
	Filename string `json:"filename"`
	MIME     string `json:"mime_type"`
}

// UploadImage encodes the multipart file under "image" and stores it as the
// session's reference image. The response echoes the filename and detected
// MIME type for the preview label.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file is required")
		return
	}
	defer file.Close()

	payload, err := media.FromReader(file, header.Filename)
	if err != nil {
		a.Logger.Error().Err(err).Str("filename", header.Filename).Msg("handlers: image encode failed")
		a.error(w, http.StatusUnprocessableEntity, "encoding", "could not read the selected file")
		return
	}
	if payload == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image file is empty")
		return
	}

	a.Session.SetImage(payload, header.Filename)
	a.json(w, http.StatusOK, imageResponse{Filename: header.Filename, MIME: payload.MIME})
}

// ClearImage removes the stored reference image, mirroring deselecting the
// file in the picker.
func (a *App) ClearImage(w http.ResponseWriter, r *http.Request) {
	a.Session.ClearImage()
	w.WriteHeader(http.StatusNoContent)
}

// GetImage reports the currently stored reference image, if any.
func (a *App) GetImage(w http.ResponseWriter, r *http.Request) {
	payload, filename := a.Session.Image()
	if payload == nil {
		a.error(w, http.StatusNotFound, "not_found", "no reference image selected")
		return
	}
	a.json(w, http.StatusOK, imageResponse{Filename: filename, MIME: payload.MIME})
}

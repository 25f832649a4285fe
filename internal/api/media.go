package api

import (
	"io"
	"net/http"

	"github.com/puchi-app/puchi/internal/models"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadMedia handles POST /api/media (multipart/form-data).
// Form fields: "file" (required), "type" (photo/voice/video, default photo),
// "caption" (optional). The stored bytes land inline or in the media
// directory depending on size; the returned item is ready to be attached to
// an entry via a subsequent entry update.
//
//	@Summary		Upload a media attachment
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Attachment bytes"
//	@Param			type	formData	string	false	"Media type"	Enums(photo, voice, video)
//	@Param			caption	formData	string	false	"Caption"
//	@Success		201		{object}	models.MediaItem
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media [post]
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	mt := models.MediaType(r.FormValue("type"))
	if mt == "" {
		mt = models.MediaPhoto
	}

	item, err := h.repo.StoreMedia(data, mt, r.FormValue("caption"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ServeMedia handles GET /api/media/{id} and streams the attachment bytes
// for a media item referenced by any live entry, binned ones included.
//
//	@Summary		Download a media attachment
//	@Tags			media
//	@Param			id	path	string	true	"Media item ID"
//	@Success		200	"Attachment bytes"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/media/{id} [get]
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid media id"))
		return
	}
	data, ok := h.repo.ReadMedia(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

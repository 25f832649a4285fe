package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/puchi-app/puchi/internal/insights"
	"github.com/puchi-app/puchi/internal/journal"
	"github.com/puchi-app/puchi/internal/models"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	repo *journal.Repository
}

// NewHandler creates a new Handler.
func NewHandler(repo *journal.Repository) *Handler {
	return &Handler{repo: repo}
}

// pathID parses the {id} URL parameter as a UUID.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List active entries with search, filter and sort
//	@Tags			entries
//	@Produce		json
//	@Param			search		query		string	false	"Substring search over title, content, tags and location"
//	@Param			filter		query		string	false	"Category filter"	Enums(all, bookmarked, photos, videos, voice, locations, thisWeek, thisMonth)
//	@Param			sort		query		string	false	"Sort field"	Enums(date, created, title, wordCount)
//	@Param			ascending	query		bool	false	"Sort ascending instead of descending"
//	@Success		200			{object}	EntryListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := journal.Filter(q.Get("filter"))
	if !filter.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown filter"))
		return
	}
	sortField := journal.SortField(q.Get("sort"))
	if !sortField.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown sort field"))
		return
	}
	var ascending bool
	if v := q.Get("ascending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid ascending value"))
			return
		}
		ascending = b
	}

	entries := h.repo.FilteredEntries(journal.Query{
		Search:    q.Get("search"),
		Filter:    filter,
		Sort:      sortField,
		Ascending: ascending,
	})
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// GetEntry handles GET /api/entries/{id}.
//
//	@Summary		Get a single active entry
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry ID"
//	@Success		200	{object}	models.Entry
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	e, err := h.repo.Entry(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Create a journal entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EntryRequest	true	"Entry to create"
//	@Success		201		{object}	models.Entry
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	e, err := h.repo.AddEntry(req.Entry())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// UpdateEntry handles PUT /api/entries/{id}.
//
//	@Summary		Replace an active entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Entry ID"
//	@Param			body	body		EntryRequest	true	"New entry state"
//	@Success		200		{object}	models.Entry
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	e := req.Entry()
	e.ID = id
	updated, err := h.repo.UpdateEntry(e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteEntry handles DELETE /api/entries/{id}. The entry moves to the
// recently-deleted bin; it is not destroyed.
//
//	@Summary		Move an entry to the recently-deleted bin
//	@Tags			entries
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204	"Entry moved to bin"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{id} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	if err := h.repo.DeleteEntry(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDeleted handles GET /api/deleted.
//
//	@Summary		List recently deleted entries
//	@Tags			bin
//	@Produce		json
//	@Success		200	{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/deleted [get]
func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	entries := h.repo.RecentlyDeleted()
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

// RestoreEntry handles POST /api/deleted/{id}/restore.
//
//	@Summary		Restore a deleted entry to the journal
//	@Tags			bin
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204	"Entry restored"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/deleted/{id}/restore [post]
func (h *Handler) RestoreEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	if err := h.repo.RestoreEntry(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeEntry handles DELETE /api/deleted/{id}. Irreversible.
//
//	@Summary		Permanently delete a binned entry and its media files
//	@Tags			bin
//	@Param			id	path	string	true	"Entry ID"
//	@Success		204	"Entry purged"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/deleted/{id} [delete]
func (h *Handler) PurgeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	if err := h.repo.PermanentlyDelete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/reset. Wipes all journal data.
//
//	@Summary		Erase all journal data
//	@Tags			admin
//	@Success		204	"All data erased"
//	@Security		BearerAuth
//	@Router			/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.repo.ResetAll()
	w.WriteHeader(http.StatusNoContent)
}

// GetInsights handles GET /api/insights.
//
//	@Summary		Derived journal statistics and streaks
//	@Tags			insights
//	@Produce		json
//	@Success		200	{object}	InsightsResponse
//	@Security		BearerAuth
//	@Router			/insights [get]
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	stats := insights.Compute(h.repo.Entries(), h.repo.Now())
	writeJSON(w, http.StatusOK, stats)
}

// GetPartner handles GET /api/partner.
//
//	@Summary		Get the partner profile
//	@Tags			partner
//	@Produce		json
//	@Success		200	{object}	models.PartnerProfile
//	@Security		BearerAuth
//	@Router			/partner [get]
func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.Partner())
}

// PutPartner handles PUT /api/partner.
//
//	@Summary		Update the partner profile
//	@Tags			partner
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PartnerRequest	true	"Partner profile"
//	@Success		200		{object}	models.PartnerProfile
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/partner [put]
func (h *Handler) PutPartner(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req PartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	p := models.PartnerProfile{Name: req.Name, PhotoData: req.PhotoData}
	if err := h.repo.SetPartner(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get UI preferences
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	models.Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.Settings())
}

// PutSettings handles PUT /api/settings.
//
//	@Summary		Update UI preferences
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Settings	true	"Preferences"
//	@Success		200		{object}	models.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var s models.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.repo.SetSettings(s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

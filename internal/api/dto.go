package api

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/puchi-app/puchi/internal/insights"
	"github.com/puchi-app/puchi/internal/models"
)

// EntryRequest is the request body for creating or updating a journal entry.
// A zero ID on create lets the server assign one; a zero Date is stamped
// with the current time.
type EntryRequest struct {
	ID           uuid.UUID            `json:"id"`
	Title        string               `json:"title"`
	Content      string               `json:"content"`
	Date         time.Time            `json:"date"`
	Mood         models.Mood          `json:"mood"`
	Weather      string               `json:"weather"`
	Tags         []string             `json:"tags"`
	Location     *models.LocationInfo `json:"location"`
	MediaItems   []models.MediaItem   `json:"media_items"`
	IsBookmarked bool                 `json:"is_bookmarked"`
}

// Validate rejects requests that can never produce a storable entry.
func (r EntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Mood, validation.By(func(any) error {
			if !r.Mood.Valid() {
				return errors.New("unknown mood")
			}
			return nil
		})),
		validation.Field(&r.MediaItems, validation.By(func(any) error {
			for _, m := range r.MediaItems {
				if !m.Type.Valid() {
					return errors.New("unknown media type")
				}
			}
			return nil
		})),
	)
}

// Entry converts the request into a domain entry.
func (r EntryRequest) Entry() models.Entry {
	return models.Entry{
		ID:           r.ID,
		Title:        r.Title,
		Content:      r.Content,
		Date:         r.Date,
		Mood:         r.Mood,
		Weather:      r.Weather,
		Tags:         r.Tags,
		Location:     r.Location,
		MediaItems:   r.MediaItems,
		IsBookmarked: r.IsBookmarked,
	}
}

// PartnerRequest is the request body for updating the partner profile.
type PartnerRequest struct {
	Name      string `json:"name"`
	PhotoData []byte `json:"photo_data"`
}

// Validate requires a non-blank partner name.
func (r PartnerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// EntryListResponse wraps entry listings.
type EntryListResponse struct {
	Entries []models.Entry `json:"entries"`
	Total   int            `json:"total"`
}

// InsightsResponse is the derived statistics payload (aliased from the
// insights engine).
type InsightsResponse = insights.Insights

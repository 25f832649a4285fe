// Package models defines the domain types for Puchi.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaType classifies a media attachment.
type MediaType string

// Supported media types.
const (
	MediaPhoto MediaType = "photo"
	MediaVoice MediaType = "voice"
	MediaVideo MediaType = "video"
)

// Valid reports whether t is one of the supported media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaVoice, MediaVideo:
		return true
	}
	return false
}

// Mood is one of the fixed set of entry moods. The zero value means unset.
type Mood string

// The closed mood set.
const (
	MoodAmazing  Mood = "amazing"
	MoodHappy    Mood = "happy"
	MoodContent  Mood = "content"
	MoodNeutral  Mood = "neutral"
	MoodSad      Mood = "sad"
	MoodRomantic Mood = "romantic"
	MoodGrateful Mood = "grateful"
)

// Moods lists every valid mood value in display order.
var Moods = []Mood{
	MoodAmazing, MoodHappy, MoodContent, MoodNeutral,
	MoodSad, MoodRomantic, MoodGrateful,
}

// Valid reports whether m is unset or a member of the mood set.
func (m Mood) Valid() bool {
	if m == "" {
		return true
	}
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// BlobRef locates a media attachment's bytes. Exactly one side is set:
// Inline carries the bytes in the record, Path references a file in the
// media directory. Callers resolve the two cases explicitly via IsFile.
type BlobRef struct {
	Inline []byte `json:"inline,omitempty"`
	Path   string `json:"path,omitempty"`
}

// InlineRef returns a BlobRef carrying data in the record itself.
func InlineRef(data []byte) BlobRef {
	return BlobRef{Inline: data}
}

// FileRef returns a BlobRef pointing at a file in the media directory.
func FileRef(path string) BlobRef {
	return BlobRef{Path: path}
}

// IsFile reports whether the ref points at an externalized file.
func (r BlobRef) IsFile() bool {
	return r.Path != ""
}

// MediaItem is a single attachment owned by its parent Entry. Deleting the
// entry's storage must also delete any backing file the Blob references.
type MediaItem struct {
	ID        uuid.UUID `json:"id"`
	Type      MediaType `json:"type"`
	Caption   string    `json:"caption,omitempty"`
	DateAdded time.Time `json:"date_added"`
	Blob      BlobRef   `json:"blob"`
	Checksum  string    `json:"checksum,omitempty"`
}

// LocationInfo tags an entry with a place. Coordinates are optional;
// nil means a name-only tag.
type LocationInfo struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Entry is one journal record.
//
// The JSON encoding is the persisted wire format. Optional fields that were
// added after the first release (tags, mood, weather, bookmark flag,
// location, media items) are omitted when empty and default to
// empty/false/nil when absent, so records written by older versions still
// decode cleanly.
type Entry struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Date         time.Time     `json:"date"`
	MediaItems   []MediaItem   `json:"media_items,omitempty"`
	Location     *LocationInfo `json:"location,omitempty"`
	Mood         Mood          `json:"mood,omitempty"`
	Weather      string        `json:"weather,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	IsBookmarked bool          `json:"is_bookmarked,omitempty"`
	IsDeleted    bool          `json:"is_deleted,omitempty"`
	DeletedDate  *time.Time    `json:"deleted_date,omitempty"`
}

// WordCount is always derived from Content so it can never go stale.
func (e *Entry) WordCount() int {
	return len(strings.Fields(e.Content))
}

// HasMedia reports whether the entry carries at least one item of type t.
func (e *Entry) HasMedia(t MediaType) bool {
	for _, m := range e.MediaItems {
		if m.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so repository snapshots cannot alias
// caller-held state.
func (e Entry) Clone() Entry {
	out := e
	if e.MediaItems != nil {
		out.MediaItems = make([]MediaItem, len(e.MediaItems))
		for i, m := range e.MediaItems {
			cm := m
			if m.Blob.Inline != nil {
				cm.Blob.Inline = append([]byte(nil), m.Blob.Inline...)
			}
			out.MediaItems[i] = cm
		}
	}
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	if e.Location != nil {
		loc := *e.Location
		if e.Location.Latitude != nil {
			lat := *e.Location.Latitude
			loc.Latitude = &lat
		}
		if e.Location.Longitude != nil {
			lng := *e.Location.Longitude
			loc.Longitude = &lng
		}
		out.Location = &loc
	}
	if e.DeletedDate != nil {
		d := *e.DeletedDate
		out.DeletedDate = &d
	}
	return out
}

package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/puchi-app/puchi/internal/models"
)

// Filter selects one of the mutually exclusive entry categories.
type Filter string

// Available filters.
const (
	FilterAll        Filter = "all"
	FilterBookmarked Filter = "bookmarked"
	FilterPhotos     Filter = "photos"
	FilterVideos     Filter = "videos"
	FilterVoice      Filter = "voice"
	FilterLocations  Filter = "locations"
	FilterThisWeek   Filter = "thisWeek"
	FilterThisMonth  Filter = "thisMonth"
)

// Filters lists every valid filter value.
var Filters = []Filter{
	FilterAll, FilterBookmarked, FilterPhotos, FilterVideos,
	FilterVoice, FilterLocations, FilterThisWeek, FilterThisMonth,
}

// Valid reports whether f is empty (treated as all) or a known filter.
func (f Filter) Valid() bool {
	if f == "" {
		return true
	}
	for _, v := range Filters {
		if f == v {
			return true
		}
	}
	return false
}

// SortField selects the sort key for a derived view.
type SortField string

// Available sort fields. SortByCreated is an alias of the entry date:
// no separate creation timestamp is tracked in this model.
const (
	SortByDate      SortField = "date"
	SortByCreated   SortField = "created"
	SortByTitle     SortField = "title"
	SortByWordCount SortField = "wordCount"
)

// SortFields lists every valid sort field.
var SortFields = []SortField{SortByDate, SortByCreated, SortByTitle, SortByWordCount}

// Valid reports whether s is empty (treated as date) or a known field.
func (s SortField) Valid() bool {
	if s == "" {
		return true
	}
	for _, v := range SortFields {
		if s == v {
			return true
		}
	}
	return false
}

// Query describes a derived view over the active collection: search, then
// filter, then sort. The zero value is "everything, newest first".
type Query struct {
	Search    string
	Filter    Filter
	Sort      SortField
	Ascending bool
}

// Apply derives the filtered, sorted view of entries at the given
// evaluation time. It never mutates its input; the returned slice is fresh
// but shares Entry values with the snapshot it was given.
func Apply(entries []models.Entry, q Query, now time.Time) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, e := range entries {
		if !matchesSearch(&e, search) {
			continue
		}
		if !matchesFilter(&e, q.Filter, now) {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out, q.Sort, q.Ascending)
	return out
}

// matchesSearch does a case-insensitive substring match against title,
// content, each tag, and the location name. Empty search matches everything.
func matchesSearch(e *models.Entry, search string) bool {
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Title), search) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Content), search) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	if e.Location != nil && strings.Contains(strings.ToLower(e.Location.Name), search) {
		return true
	}
	return false
}

func matchesFilter(e *models.Entry, f Filter, now time.Time) bool {
	switch f {
	case "", FilterAll:
		return true
	case FilterBookmarked:
		return e.IsBookmarked
	case FilterPhotos:
		return e.HasMedia(models.MediaPhoto)
	case FilterVideos:
		return e.HasMedia(models.MediaVideo)
	case FilterVoice:
		return e.HasMedia(models.MediaVoice)
	case FilterLocations:
		return e.Location != nil
	case FilterThisWeek:
		return e.Date.After(now.AddDate(0, 0, -7))
	case FilterThisMonth:
		return e.Date.After(now.AddDate(0, -1, 0))
	}
	return false
}

// sortEntries sorts in place, stably, so equal keys keep snapshot order.
func sortEntries(entries []models.Entry, field SortField, ascending bool) {
	less := func(a, b *models.Entry) bool {
		switch field {
		case SortByTitle:
			return a.Title < b.Title
		case SortByWordCount:
			return a.WordCount() < b.WordCount()
		default: // SortByDate, SortByCreated, empty
			return a.Date.Before(b.Date)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return less(&entries[i], &entries[j])
		}
		return less(&entries[j], &entries[i])
	})
}

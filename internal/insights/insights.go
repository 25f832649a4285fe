// Package insights computes derived statistics over the active entry
// collection: journaling streaks, totals, and top-N aggregates. Everything
// here is a pure function of its inputs and is recomputed on demand, never
// persisted.
package insights

import (
	"sort"
	"time"

	"github.com/puchi-app/puchi/internal/models"
)

// MoodCount is one row of the mood leaderboard.
type MoodCount struct {
	Mood  models.Mood `json:"mood"`
	Count int         `json:"count"`
}

// TagCount is one row of the tag leaderboard.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// LocationCount is one row of the location leaderboard.
type LocationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Insights is the derived statistics bundle.
type Insights struct {
	TotalEntries      int             `json:"total_entries"`
	TotalWords        int             `json:"total_words"`
	PhotoCount        int             `json:"photo_count"`
	VoiceCount        int             `json:"voice_count"`
	VideoCount        int             `json:"video_count"`
	EntriesLast7Days  int             `json:"entries_last_7_days"`
	EntriesLast30Days int             `json:"entries_last_30_days"`
	CurrentStreak     int             `json:"current_streak"`
	LongestStreak     int             `json:"longest_streak"`
	TopMoods          []MoodCount     `json:"top_moods,omitempty"`
	TopTags           []TagCount      `json:"top_tags,omitempty"`
	TopLocations      []LocationCount `json:"top_locations,omitempty"`
	FirstEntryDate    *time.Time      `json:"first_entry_date,omitempty"`
}

// Compute derives statistics from the active collection at the given
// evaluation time. Deterministic: same entries and now, same output.
// Top-N ties break by first-encountered order over the input slice.
func Compute(entries []models.Entry, now time.Time) Insights {
	out := Insights{TotalEntries: len(entries)}

	loc := now.Location()
	days := make(map[time.Time]struct{})
	moods := newCounter()
	tags := newCounter()
	places := newCounter()
	week := now.AddDate(0, 0, -7)
	month := now.AddDate(0, 0, -30)

	for i := range entries {
		e := &entries[i]
		out.TotalWords += e.WordCount()
		for _, m := range e.MediaItems {
			switch m.Type {
			case models.MediaPhoto:
				out.PhotoCount++
			case models.MediaVoice:
				out.VoiceCount++
			case models.MediaVideo:
				out.VideoCount++
			}
		}
		if e.Date.After(week) {
			out.EntriesLast7Days++
		}
		if e.Date.After(month) {
			out.EntriesLast30Days++
		}
		if e.Mood != "" {
			moods.add(string(e.Mood))
		}
		for _, tag := range e.Tags {
			tags.add(tag)
		}
		if e.Location != nil && e.Location.Name != "" {
			places.add(e.Location.Name)
		}
		days[day(e.Date, loc)] = struct{}{}

		if out.FirstEntryDate == nil || e.Date.Before(*out.FirstEntryDate) {
			d := e.Date
			out.FirstEntryDate = &d
		}
	}

	out.CurrentStreak = currentStreak(days, now)
	out.LongestStreak = longestStreak(days)

	for _, kc := range moods.top(3) {
		out.TopMoods = append(out.TopMoods, MoodCount{Mood: models.Mood(kc.key), Count: kc.count})
	}
	for _, kc := range tags.top(5) {
		out.TopTags = append(out.TopTags, TagCount{Tag: kc.key, Count: kc.count})
	}
	for _, kc := range places.top(3) {
		out.TopLocations = append(out.TopLocations, LocationCount{Name: kc.key, Count: kc.count})
	}
	return out
}

// day normalizes t to midnight of its calendar day in loc.
func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// currentStreak counts consecutive journaling days ending at today, with a
// one-day grace period: an empty today still counts if yesterday was
// journaled, but two consecutive missed days reset the streak to zero.
func currentStreak(days map[time.Time]struct{}, now time.Time) int {
	loc := now.Location()
	today := day(now, loc)
	yesterday := today.AddDate(0, 0, -1)

	anchor := today
	if _, ok := days[today]; !ok {
		if _, ok := days[yesterday]; !ok {
			return 0
		}
		anchor = yesterday
	}

	streak := 1
	for {
		prev := anchor.AddDate(0, 0, -1)
		if _, ok := days[prev]; !ok {
			return streak
		}
		streak++
		anchor = prev
	}
}

// longestStreak is the historical maximum run of consecutive journaling
// days over the whole set, independent of the evaluation time.
func longestStreak(days map[time.Time]struct{}) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].AddDate(0, 0, 1).Equal(sorted[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// counter tallies string keys while remembering first-encountered order,
// which is the documented tie-break for the leaderboards.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

type keyCount struct {
	key   string
	count int
}

func (c *counter) top(n int) []keyCount {
	out := make([]keyCount, len(c.order))
	for i, k := range c.order {
		out[i] = keyCount{key: k, count: c.counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

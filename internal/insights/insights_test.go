package insights

import (
	"reflect"
	"testing"
	"time"

	"github.com/puchi-app/puchi/internal/models"
)

var now = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func entryOn(t time.Time) models.Entry {
	return models.Entry{Content: "note", Date: t}
}

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func TestCurrentStreak(t *testing.T) {
	cases := []struct {
		name    string
		entries []models.Entry
		want    int
	}{
		{
			"three consecutive days ending today",
			[]models.Entry{entryOn(daysAgo(0)), entryOn(daysAgo(1)), entryOn(daysAgo(2))},
			3,
		},
		{
			"only two days ago resets to zero",
			[]models.Entry{entryOn(daysAgo(2))},
			0,
		},
		{
			"yesterday only keeps the grace period",
			[]models.Entry{entryOn(daysAgo(1))},
			1,
		},
		{
			"grace period extends a run ending yesterday",
			[]models.Entry{entryOn(daysAgo(1)), entryOn(daysAgo(2)), entryOn(daysAgo(3))},
			3,
		},
		{
			"multiple entries on one day count once",
			[]models.Entry{entryOn(daysAgo(0)), entryOn(now.Add(-2 * time.Hour)), entryOn(daysAgo(1))},
			2,
		},
		{"empty collection", nil, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Compute(c.entries, now)
			if got.CurrentStreak != c.want {
				t.Errorf("current streak = %d, want %d", got.CurrentStreak, c.want)
			}
		})
	}
}

// The longest streak is a historical maximum, unaffected by where "today"
// falls.
func TestLongestStreakIndependentOfToday(t *testing.T) {
	d := time.Date(2023, 2, 10, 8, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		entryOn(d),
		entryOn(d.AddDate(0, 0, 1)),
		entryOn(d.AddDate(0, 0, 2)),
		entryOn(d.AddDate(0, 0, 10)),
	}
	got := Compute(entries, now)
	if got.LongestStreak != 3 {
		t.Errorf("longest streak = %d, want 3", got.LongestStreak)
	}
	if got.CurrentStreak != 0 {
		t.Errorf("current streak = %d, want 0", got.CurrentStreak)
	}
}

func TestLongestStreakSpansMonthBoundary(t *testing.T) {
	entries := []models.Entry{
		entryOn(time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)),
		entryOn(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)),
	}
	if got := Compute(entries, now).LongestStreak; got != 2 {
		t.Errorf("longest streak = %d, want 2", got)
	}
}

func TestTotalsAndMediaCounts(t *testing.T) {
	entries := []models.Entry{
		{
			Content: "hello world",
			Date:    daysAgo(1),
			MediaItems: []models.MediaItem{
				{Type: models.MediaPhoto}, {Type: models.MediaPhoto}, {Type: models.MediaVoice},
			},
		},
		{
			Content:    "a b c d",
			Date:       daysAgo(20),
			MediaItems: []models.MediaItem{{Type: models.MediaVideo}},
		},
		{Content: "long ago", Date: daysAgo(90)},
	}

	got := Compute(entries, now)
	if got.TotalEntries != 3 || got.TotalWords != 8 {
		t.Errorf("totals = %d entries, %d words", got.TotalEntries, got.TotalWords)
	}
	if got.PhotoCount != 2 || got.VoiceCount != 1 || got.VideoCount != 1 {
		t.Errorf("media counts = %d/%d/%d", got.PhotoCount, got.VoiceCount, got.VideoCount)
	}
	if got.EntriesLast7Days != 1 || got.EntriesLast30Days != 2 {
		t.Errorf("recent counts = %d/%d", got.EntriesLast7Days, got.EntriesLast30Days)
	}
}

func TestTopAggregatesWithStableTieBreak(t *testing.T) {
	place := func(name string) *models.LocationInfo { return &models.LocationInfo{Name: name} }
	entries := []models.Entry{
		{Content: "1", Date: daysAgo(1), Mood: models.MoodHappy, Tags: []string{"picnic", "park"}, Location: place("Home")},
		{Content: "2", Date: daysAgo(2), Mood: models.MoodRomantic, Tags: []string{"picnic"}, Location: place("Cafe")},
		{Content: "3", Date: daysAgo(3), Mood: models.MoodHappy, Tags: []string{"trip"}},
		{Content: "4", Date: daysAgo(4), Mood: models.MoodGrateful, Tags: []string{"park"}},
		{Content: "5", Date: daysAgo(5), Mood: models.MoodSad},
	}

	got := Compute(entries, now)

	wantMoods := []MoodCount{
		{Mood: models.MoodHappy, Count: 2},
		{Mood: models.MoodRomantic, Count: 1}, // ties keep first-encountered order
		{Mood: models.MoodGrateful, Count: 1},
	}
	if !reflect.DeepEqual(got.TopMoods, wantMoods) {
		t.Errorf("top moods = %v, want %v", got.TopMoods, wantMoods)
	}

	wantTags := []TagCount{
		{Tag: "picnic", Count: 2},
		{Tag: "park", Count: 2},
		{Tag: "trip", Count: 1},
	}
	if !reflect.DeepEqual(got.TopTags, wantTags) {
		t.Errorf("top tags = %v, want %v", got.TopTags, wantTags)
	}

	wantPlaces := []LocationCount{
		{Name: "Home", Count: 1},
		{Name: "Cafe", Count: 1},
	}
	if !reflect.DeepEqual(got.TopLocations, wantPlaces) {
		t.Errorf("top locations = %v, want %v", got.TopLocations, wantPlaces)
	}
}

func TestFirstEntryDate(t *testing.T) {
	if got := Compute(nil, now); got.FirstEntryDate != nil {
		t.Errorf("first entry date = %v, want nil", got.FirstEntryDate)
	}

	oldest := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []models.Entry{entryOn(daysAgo(1)), entryOn(oldest), entryOn(daysAgo(5))}
	got := Compute(entries, now)
	if got.FirstEntryDate == nil || !got.FirstEntryDate.Equal(oldest) {
		t.Errorf("first entry date = %v, want %v", got.FirstEntryDate, oldest)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	entries := []models.Entry{
		{Content: "a", Date: daysAgo(1), Tags: []string{"x", "y"}},
		{Content: "b", Date: daysAgo(2), Tags: []string{"y", "z"}},
	}
	first := Compute(entries, now)
	for i := 0; i < 10; i++ {
		if got := Compute(entries, now); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

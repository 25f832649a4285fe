package models

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEntryRoundTrip(t *testing.T) {
	lat, lng := 48.8584, 2.2945
	deleted := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	entry := Entry{
		ID:      uuid.New(),
		Title:   "Picnic",
		Content: "hello world from the park",
		Date:    time.Date(2024, 2, 14, 18, 0, 0, 0, time.UTC),
		MediaItems: []MediaItem{
			{
				ID:        uuid.New(),
				Type:      MediaPhoto,
				Caption:   "us",
				DateAdded: time.Date(2024, 2, 14, 18, 5, 0, 0, time.UTC),
				Blob:      InlineRef([]byte{0x01, 0x02, 0x03}),
				Checksum:  "abc",
			},
			{
				ID:        uuid.New(),
				Type:      MediaVoice,
				DateAdded: time.Date(2024, 2, 14, 18, 6, 0, 0, time.UTC),
				Blob:      FileRef("deadbeef.m4a"),
			},
		},
		Location:     &LocationInfo{Name: "Paris", Latitude: &lat, Longitude: &lng},
		Mood:         MoodRomantic,
		Weather:      "sunny",
		Tags:         []string{"picnic", "anniversary"},
		IsBookmarked: true,
		IsDeleted:    true,
		DeletedDate:  &deleted,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Entry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(entry, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, entry)
	}
}

// Records written before tags, mood, weather, bookmark, location, and media
// existed must still decode, with every newer field at its documented default.
func TestDecodeLegacyRecord(t *testing.T) {
	legacy := `{
		"id": "9f4347a4-26ec-47b9-9d33-0edb2f6272bc",
		"title": "First note",
		"content": "two words",
		"date": "2023-06-01T09:00:00Z"
	}`

	var e Entry
	if err := json.Unmarshal([]byte(legacy), &e); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if e.Title != "First note" || e.Content != "two words" {
		t.Errorf("core fields lost: %+v", e)
	}
	if e.Tags != nil {
		t.Errorf("tags = %v, want nil", e.Tags)
	}
	if e.Mood != "" {
		t.Errorf("mood = %q, want empty", e.Mood)
	}
	if e.Weather != "" || e.IsBookmarked || e.IsDeleted {
		t.Errorf("newer flags not defaulted: %+v", e)
	}
	if e.Location != nil || e.DeletedDate != nil || e.MediaItems != nil {
		t.Errorf("optional pointers not nil: %+v", e)
	}
}

func TestWordCountDerived(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"   ", 0},
		{"hello world", 2},
		{"a b c d", 4},
		{"  spaced\tout\nwords  ", 3},
	}
	for _, c := range cases {
		e := Entry{Content: c.content}
		if got := e.WordCount(); got != c.want {
			t.Errorf("WordCount(%q) = %d, want %d", c.content, got, c.want)
		}
	}
}

func TestMoodValid(t *testing.T) {
	for _, m := range Moods {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if !Mood("").Valid() {
		t.Error("unset mood should be valid")
	}
	if Mood("ecstatic").Valid() {
		t.Error("unknown mood should be invalid")
	}
}

func TestHasMedia(t *testing.T) {
	e := Entry{MediaItems: []MediaItem{{Type: MediaPhoto}, {Type: MediaVoice}}}
	if !e.HasMedia(MediaPhoto) || !e.HasMedia(MediaVoice) {
		t.Error("expected photo and voice media")
	}
	if e.HasMedia(MediaVideo) {
		t.Error("unexpected video media")
	}
}

func TestCloneIsDeep(t *testing.T) {
	lat := 1.0
	e := Entry{
		ID:         uuid.New(),
		Tags:       []string{"a"},
		Location:   &LocationInfo{Name: "x", Latitude: &lat},
		MediaItems: []MediaItem{{Blob: InlineRef([]byte{1, 2})}},
	}
	c := e.Clone()
	c.Tags[0] = "b"
	c.Location.Name = "y"
	*c.Location.Latitude = 2.0
	c.MediaItems[0].Blob.Inline[0] = 9

	if e.Tags[0] != "a" || e.Location.Name != "x" || *e.Location.Latitude != 1.0 {
		t.Errorf("clone aliases source: %+v", e)
	}
	if e.MediaItems[0].Blob.Inline[0] != 1 {
		t.Error("clone aliases inline blob bytes")
	}
}

package compose

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"lowercase and trim", []string{" Picnic ", "DATE-night"}, []string{"picnic", "date-night"}},
		{"dedupe keeps first", []string{"a", "A", " a "}, []string{"a"}},
		{"drops empties", []string{"", "  ", "x"}, []string{"x"}},
		{"nil in nil out", nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NormalizeTags(c.in); !reflect.DeepEqual(got, c.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestExtractTags(t *testing.T) {
	got := ExtractTags("our #Anniversary dinner #date-night was #anniversary again")
	want := []string{"anniversary", "date-night"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTags = %v, want %v", got, want)
	}
}

func TestExtractTagsIgnoresMidWordHash(t *testing.T) {
	if got := ExtractTags("room#12 has no tag"); got != nil {
		t.Errorf("ExtractTags = %v, want nil", got)
	}
}

func TestMergeTags(t *testing.T) {
	got := MergeTags([]string{"Picnic", "picnic"}, "lovely day #park #picnic")
	want := []string{"picnic", "park"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeTags = %v, want %v", got, want)
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{"explicit title wins", "Our day", "something else", "Our day"},
		{"blank title falls back", "  ", "\n\nfirst line\nsecond", "first line"},
		{"empty everything", "", "   \n ", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveTitle(c.title, c.content); got != c.want {
				t.Errorf("DeriveTitle = %q, want %q", got, c.want)
			}
		})
	}
}

func TestDeriveTitleTruncates(t *testing.T) {
	long := strings.Repeat("ab", 100)
	got := DeriveTitle("", long)
	if len([]rune(got)) != 80 {
		t.Errorf("len = %d, want 80", len([]rune(got)))
	}
}

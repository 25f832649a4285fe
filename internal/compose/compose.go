// Package compose provides the text helpers applied when an entry is
// composed: tag normalization, inline #tag extraction, and title derivation.
package compose

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// NormalizeTags lowercases and trims tags and drops empties and duplicates,
// preserving first-encountered order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExtractTags collects inline #tags from content, normalized the same way
// as explicit tags.
func ExtractTags(content string) []string {
	matches := tagRe.FindAllStringSubmatch(content, -1)
	raw := make([]string, 0, len(matches))
	for _, m := range matches {
		raw = append(raw, m[1])
	}
	return NormalizeTags(raw)
}

// MergeTags combines explicit tags with inline #tags found in content.
// Explicit tags come first; order within each group is preserved.
func MergeTags(explicit []string, content string) []string {
	return NormalizeTags(append(NormalizeTags(explicit), ExtractTags(content)...))
}

// DeriveTitle returns title unchanged when non-blank, otherwise the first
// non-empty line of content, truncated to 80 runes.
func DeriveTitle(title, content string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 80 {
			return string(runes[:80])
		}
		return line
	}
	return ""
}

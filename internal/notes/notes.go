package notes

import (
	"strings"
	"time"
	"unicode"
)

// summaryLimit is the maximum summary length in runes.
const summaryLimit = 150

// maxSlugLen bounds generated note ids.
const maxSlugLen = 64

// Note is a stored piece of text addressed by a stable slug id.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// slugify converts a title to a URL-safe id: lowercase, letters and
// digits kept, every other run collapsed to a single hyphen.
func slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "note"
	}
	return s
}

// deriveSummary builds a one-line preview from the content: whitespace
// collapsed, cut at a word boundary within summaryLimit runes.
func deriveSummary(content string) string {
	line := strings.Join(strings.Fields(content), " ")
	runes := []rune(line)
	if len(runes) <= summaryLimit {
		return line
	}

	cut := string(runes[:summaryLimit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

// normalizeTags lowercases, trims and deduplicates tags, preserving
// first-seen order.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

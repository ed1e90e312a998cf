// Package ingest normalizes raw paper metadata before it enters storage.
//
// Upstream sources are messy: years arrive embedded in free text, author
// names carry affiliations, journal fields sometimes contain chunks of
// body text. The normalizers here make those fields uniform and derive a
// stable content-hash ID so re-imports stay idempotent.
package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

const maxJournalLen = 80

var (
	yearRe        = regexp.MustCompile(`(19\d{2}|20\d{2})`)
	bracketedRe   = regexp.MustCompile(`\(.*?\)|\[.*?\]|<.*?>|（.*?）`)
	trailingSepRe = regexp.MustCompile(`[，,;。]+$`)
	spacesRe      = regexp.MustCompile(`\s+`)
	andRe         = regexp.MustCompile(`(?i)\band\b|和`)
	keywordSepRe  = regexp.MustCompile(`[,;；、\n]`)
)

// bodyTextMarkers are section headings that betray body text leaking into
// an overlong journal field. Truncation happens at the first marker found
// past a plausible journal-name length.
var bodyTextMarkers = []string{"参考文献", "引言", "目录", "（一）", "一、", "二、"}

// NormalizeYear extracts a four-digit publication year from an arbitrary
// value. Plain digit runs in 1900-2099 win; otherwise the value is parsed
// as a free-form date. Returns 0 when no year can be recovered.
func NormalizeYear(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if m := yearRe.FindString(s); m != "" {
		return digitsToYear(m)
	}

	if t, err := dateparse.ParseAny(s); err == nil {
		return t.Year()
	}

	return 0
}

func digitsToYear(s string) int {
	year := 0
	for _, r := range s {
		year = year*10 + int(r-'0')
	}

	return year
}

// NormalizeAuthor cleans one author name: strips bracketed affiliations,
// trailing punctuation and runs of whitespace, and reorders a single
// "Last, First" form into "First Last". Comma lists that are actually
// multiple authors (joined by "and" or "和") are left alone.
func NormalizeAuthor(name string) string {
	s := strings.TrimSpace(name)
	s = bracketedRe.ReplaceAllString(s, "")
	s = trailingSepRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if strings.Contains(s, ",") && !andRe.MatchString(s) {
		parts := splitNonEmpty(s, ",")
		if len(parts) >= 2 {
			s = strings.Join(append(parts[1:], parts[0]), " ")
		}
	}

	return strings.TrimSpace(s)
}

// NormalizeAuthors cleans every name and drops entries that normalize to
// the empty string.
func NormalizeAuthors(names []string) []string {
	out := make([]string, 0, len(names))

	for _, name := range names {
		if cleaned := NormalizeAuthor(name); cleaned != "" {
			out = append(out, cleaned)
		}
	}

	return out
}

// NormalizeJournal trims a journal name and truncates body text that
// extraction sometimes leaves attached to the field.
func NormalizeJournal(name string) string {
	s := spacesRe.ReplaceAllString(strings.TrimSpace(name), " ")
	s = strings.Trim(s, " ,;:。")

	if len([]rune(s)) <= maxJournalLen {
		return s
	}

	for _, marker := range bodyTextMarkers {
		if idx := strings.Index(s, marker); idx > 10 {
			s = strings.TrimSpace(s[:idx])

			break
		}
	}

	if runes := []rune(s); len(runes) > maxJournalLen {
		s = strings.TrimSpace(string(runes[:maxJournalLen]))
	}

	return s
}

// NormalizeKeywords splits a raw keyword field on the common CJK and
// Latin separators and drops empty parts.
func NormalizeKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := keywordSepRe.Split(raw, -1)
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// PaperID derives a stable hex ID from the normalized title, year and
// first author, so the same record imported twice lands on the same row.
func PaperID(title string, year int, authors []string) string {
	first := ""
	if len(authors) > 0 {
		first = authors[0]
	}

	base := strings.TrimSpace(title) + "||" + strconv.Itoa(year) + "||" + first
	sum := sha1.Sum([]byte(base))

	return hex.EncodeToString(sum[:])
}

// NormalizePaper applies every field normalizer and assigns the content
// hash ID when the record does not carry one.
func NormalizePaper(p domain.Paper) domain.Paper {
	p.Title = spacesRe.ReplaceAllString(strings.TrimSpace(p.Title), " ")
	p.Authors = NormalizeAuthors(p.Authors)
	p.Journal = NormalizeJournal(p.Journal)

	cleaned := make([]string, 0, len(p.Keywords))
	for _, kw := range p.Keywords {
		cleaned = append(cleaned, NormalizeKeywords(kw)...)
	}

	p.Keywords = cleaned

	if p.ID == "" {
		p.ID = PaperID(p.Title, p.Year, p.Authors)
	}

	return p
}

func splitNonEmpty(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))

	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

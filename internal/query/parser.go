// Package query parses free-text search input into structured query
// parameters: topic terms, an inferred year range and a language filter.
// Parsing is pure and deterministic; it performs no I/O.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

// Language filter values.
const (
	LanguageChinese = "zh"
	LanguageEnglish = "en"
)

// Maximum length of the whole-query fallback topic term.
const fallbackTermMaxRunes = 50

// Parsed is the structured form of a free-text query.
type Parsed struct {
	TopicTerms []string
	StartYear  int
	EndYear    int
	Language   string
	RawQuery   string
}

type yearPatternKind int

const (
	yearRange yearPatternKind = iota
	yearOpenStart
	yearOpenEnd
)

type yearPattern struct {
	re   *regexp.Regexp
	kind yearPatternKind
}

// Year phrases are matched in order; the first match wins and its substring
// is removed before tokenization so a year phrase never doubles as a topic
// term.
var yearPatterns = []yearPattern{
	{regexp.MustCompile(`(?i)(?:19|20)\d{2}\s*[-–至到]\s*(?:19|20)\d{2}`), yearRange},
	{regexp.MustCompile(`(?i)(?:19|20)\d{2}\s*年\s*(?:至今|以后)`), yearOpenStart},
	{regexp.MustCompile(`(?i)(?:after|since|从)\s*(?:19|20)\d{2}`), yearOpenStart},
	{regexp.MustCompile(`(?i)(?:before|之前)\s*(?:19|20)\d{2}`), yearOpenEnd},
	{regexp.MustCompile(`(?i)(?:19|20)\d{2}\s*年?(?:以前|之前)`), yearOpenEnd},
}

var (
	yearDigitsRe = regexp.MustCompile(`19\d{2}|20\d{2}`)
	// RE2's \b is ASCII-only, so CJK marker words are matched bare while
	// Latin markers keep word boundaries.
	chineseRe = regexp.MustCompile(`(?i)中文|汉语|\bchina\b|\bchinese\b`)
	englishRe = regexp.MustCompile(`(?i)英文|英语|\benglish\b`)
	tokenRe   = regexp.MustCompile(`[a-zA-Z]{2,}|[\x{4e00}-\x{9fff}]+`)
)

var stopWords = map[string]struct{}{
	"的": {}, "与": {}, "和": {}, "及": {}, "等": {}, "之": {}, "在": {},
	"是": {}, "有": {}, "为": {}, "对": {}, "从": {}, "到": {}, "关于": {},
	"研究": {}, "分析": {},
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "about": {},
}

// Parse extracts topic terms, year range and language filter from raw
// free-text input. An input that yields no surviving tokens falls back to
// the trimmed input itself as a single topic term, so non-empty queries are
// never silently emptied.
func Parse(raw string) Parsed {
	raw = strings.TrimSpace(raw)
	parsed := Parsed{RawQuery: raw}

	remaining := raw
	remaining = extractYears(remaining, &parsed)
	remaining = extractLanguage(remaining, &parsed)

	for _, token := range tokenRe.FindAllString(remaining, -1) {
		if _, stop := stopWords[strings.ToLower(token)]; stop {
			continue
		}

		parsed.TopicTerms = append(parsed.TopicTerms, token)
	}

	if len(parsed.TopicTerms) == 0 && raw != "" {
		parsed.TopicTerms = []string{truncateRunes(raw, fallbackTermMaxRunes)}
	}

	return parsed
}

func extractYears(remaining string, parsed *Parsed) string {
	for _, pat := range yearPatterns {
		loc := pat.re.FindStringIndex(remaining)
		if loc == nil {
			continue
		}

		years := parseYearDigits(remaining[loc[0]:loc[1]])
		if len(years) == 0 {
			continue
		}

		switch pat.kind {
		case yearRange:
			if len(years) >= 2 {
				parsed.StartYear = minInt(years)
				parsed.EndYear = maxInt(years)
			}
		case yearOpenStart:
			parsed.StartYear = maxInt(years)
		case yearOpenEnd:
			parsed.EndYear = minInt(years)
		}

		return remaining[:loc[0]] + " " + remaining[loc[1]:]
	}

	return remaining
}

func extractLanguage(remaining string, parsed *Parsed) string {
	if chineseRe.MatchString(remaining) {
		parsed.Language = LanguageChinese
		return chineseRe.ReplaceAllString(remaining, " ")
	}

	if englishRe.MatchString(remaining) {
		parsed.Language = LanguageEnglish
		return englishRe.ReplaceAllString(remaining, " ")
	}

	return remaining
}

func parseYearDigits(s string) []int {
	var years []int

	for _, m := range yearDigitsRe.FindAllString(s, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}

		years = append(years, y)
	}

	return years
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes])
}

func minInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}

	return m
}

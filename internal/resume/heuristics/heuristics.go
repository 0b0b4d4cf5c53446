// Package heuristics extracts candidate fields from the plain text of a resume.
//
// Every extractor is a pure function of the text. Rules are tried in a fixed
// order and the first hit wins; when nothing matches the result is
// domain.NotSpecified, never an empty string.
package heuristics

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
)

// artifactGlyphs are bullet and box characters PDF text layers leave behind
var artifactGlyphs = strings.NewReplacer("■", "", "●", "", "▪", "", "•", "")

// CleanText strips OCR artifact glyphs from raw extracted text
func CleanText(raw string) string {
	return artifactGlyphs.Replace(raw)
}

// Fields is the full set of text-derived candidate fields
type Fields struct {
	Name        string
	Email       string
	Phone       string
	College     string
	Degree      string
	Department  string
	State       string
	District    string
	YearPassing string
}

// ExtractAll runs every extractor over text
func ExtractAll(text string) Fields {
	return Fields{
		Name:        Name(text),
		Email:       Email(text),
		Phone:       Phone(text),
		College:     College(text),
		Degree:      Degree(text),
		Department:  Department(text),
		State:       State(text),
		District:    District(text),
		YearPassing: YearPassing(text),
	}
}

// titleCase upper-cases a letter that follows a non-letter and lower-cases
// every other letter, so "M.DINAGAR" becomes "M.Dinagar".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func orSentinel(v string) string {
	if strings.TrimSpace(v) == "" {
		return domain.NotSpecified
	}
	return v
}

// compileAll compiles patterns case-insensitively, keeping their order
func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// wordList is an ordered membership list matched on word boundaries
type wordList struct {
	entries  []string
	patterns []*regexp.Regexp
}

func newWordList(entries ...string) *wordList {
	wl := &wordList{entries: entries, patterns: make([]*regexp.Regexp, len(entries))}
	for i, e := range entries {
		wl.patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e) + `\b`)
	}
	return wl
}

// first returns the title-cased first entry found anywhere in text. List
// order decides ties, not position in the text.
func (wl *wordList) first(text string) string {
	for i, re := range wl.patterns {
		if re.MatchString(text) {
			return titleCase(wl.entries[i])
		}
	}
	return domain.NotSpecified
}

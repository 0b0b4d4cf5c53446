package heuristics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
)

var collegeRe = regexp.MustCompile(`(?i)[A-Za-z ]+(University|Institute|College)`)

// College returns the first run of words ending in University, Institute or College
func College(text string) string {
	return orSentinel(strings.TrimSpace(collegeRe.FindString(text)))
}

// degreePatterns are unanchored, so list order is the only precedence rule
var degreePatterns = compileAll([]string{
	`b\.?tech`, `b\.?e`, `m\.?tech`, `m\.?e`,
	`bachelor(?: of)?`, `master(?: of)?`,
	`b\.?sc`, `m\.?sc`,
	`b\.?a`, `m\.?a`,
	`b\.?com`, `m\.?com`, `b\.?ba`, `m\.?ba`,
	`b\.?ca`, `m\.?ca`,
	`b\.?ed`, `m\.?ed`,
	`b\.?pharm`, `m\.?pharm`,
	`b\.?arch`, `m\.?arch`,
	`b\.?ds`, `m\.?ds`, `mbbs`, `bams`, `bhms`,
	`b\.?voc`, `m\.?voc`,
	`diploma`, `pg diploma`,
	`ph\.?d`, `doctorate`,
})

// Degree returns the first degree pattern found, upper-cased as written
func Degree(text string) string {
	for _, re := range degreePatterns {
		if m := re.FindString(text); m != "" {
			return strings.ToUpper(m)
		}
	}
	return domain.NotSpecified
}

var (
	educationKeywords = []string{"education", "academic details", "qualification", "educational qualification"}

	// educationWindow is measured in characters from the start of the keyword
	educationWindow = 1000

	departmentNames = []string{
		"electronics and communication", "electronic communication", "ece",
		"computer science", "cs", "cse",
		"electrical and electronics", "eee",
		"mechanical engineering", "mech",
		"civil engineering", "civil",
		"artificial intelligence and data science", "ai&ds",
		"data science", "data analytics",
		"artificial intelligence", "ai",
		"cyber security", "cybersecurity",
		"information technology", "it",
		"physics", "chemistry", "biology", "biotechnology",
		"mathematics", "statistics", "environmental science",
		"accounting", "finance", "banking", "insurance",
		"business administration", "bba",
		"marketing", "human resource", "hr",
		"international business", "operations management",
		"english", "literature", "history", "political science",
		"psychology", "sociology", "fine arts", "design",
		"journalism", "mass communication",
		"computer applications", "ca",
		"education", "teaching",
		"pharmacy",
		"law", "legal studies",
	}
	departmentPatterns = compileAll(quoteAll(departmentNames))
)

// Department searches the education section for a known department name and
// returns the title-cased name from the list, not the matched text.
func Department(text string) string {
	section := educationSection(text)
	for i, re := range departmentPatterns {
		if re.MatchString(section) {
			return titleCase(departmentNames[i])
		}
	}
	return domain.NotSpecified
}

// educationSection returns the window starting at the first keyword found, in
// keyword order, or the whole text when no keyword is present.
func educationSection(text string) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(runes) {
		lower = runes
	}
	for _, key := range educationKeywords {
		idx := runeIndex(lower, []rune(key))
		if idx < 0 {
			continue
		}
		end := idx + educationWindow
		if end > len(runes) {
			end = len(runes)
		}
		return string(runes[idx:end])
	}
	return text
}

func runeIndex(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func quoteAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}

var (
	yearRangeRe = regexp.MustCompile(`(20\d{2})\s*[-–]\s*(\d{2,4})`)
	yearRe      = regexp.MustCompile(`\b20\d{2}\b`)
)

const (
	minPassingYear = 2000
	maxPassingYear = 2030
)

// YearPassing returns the end of the first year range, or failing that the
// latest plausible standalone year.
func YearPassing(text string) string {
	if m := yearRangeRe.FindStringSubmatch(text); m != nil {
		end := m[2]
		if len(end) == 2 {
			end = "20" + end
		}
		return end
	}

	best := 0
	for _, y := range yearRe.FindAllString(text, -1) {
		n, err := strconv.Atoi(y)
		if err != nil || n < minPassingYear || n > maxPassingYear {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return domain.NotSpecified
	}
	return strconv.Itoa(best)
}

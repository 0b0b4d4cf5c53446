package heuristics

import (
	"regexp"
	"strings"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
)

// headerLines is how many non-empty lines from the top are considered
const headerLines = 10

var nameRules = []struct {
	re    *regexp.Regexp
	title bool
}{
	// ASHA DEVI
	{regexp.MustCompile(`^[A-Z][A-Z\s.]{2,}$`), true},
	// M Dinagar, M.Dinagar
	{regexp.MustCompile(`^[A-Z]\.?( )?[A-Z][a-zA-Z]+$`), true},
	// Dinagar M, DinagarM.
	{regexp.MustCompile(`^[A-Z][a-zA-Z]+( )?[A-Z]\.?$`), true},
	// Asha Devi, returned as written
	{regexp.MustCompile(`^[A-Z][a-zA-Z]+ [A-Z][a-zA-Z]+$`), false},
}

// Name looks for the candidate name in the resume header. Each rule scans
// all header lines before the next rule is tried.
func Name(text string) string {
	lines := header(text)
	for _, rule := range nameRules {
		for _, line := range lines {
			if rule.re.MatchString(line) {
				if rule.title {
					return titleCase(line)
				}
				return line
			}
		}
	}
	return domain.NotSpecified
}

func header(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
		if len(lines) == headerLines {
			break
		}
	}
	return lines
}

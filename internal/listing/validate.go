package listing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Issue types.
const (
	IssueLength      = "length"
	IssuePolicy      = "policy"
	IssueStuffing    = "stuffing"
	IssueReadability = "readability"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

const (
	maxKeywordOccurrences = 2
	maxSentenceWords      = 40
)

// Draft is the editable content of a listing.
type Draft struct {
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	Description  string   `json:"description"`
	BackendTerms string   `json:"backend_terms,omitempty"`
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := d
	out.Bullets = append([]string(nil), d.Bullets...)
	return out
}

// ValidationIssue is a single finding about a draft.
type ValidationIssue struct {
	Field      string `json:"field"`
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

type policyCheck struct {
	re         *regexp.Regexp
	message    string
	suggestion string
}

var policyChecks = []policyCheck{
	{
		re:         regexp.MustCompile(`(?i)\b(cures?|cured|treats?|treatment|heals?|healing|prevents?|prevention|diagnos(e|es|is)|remed(y|ies)|anti-?inflammatory)\b`),
		message:    "contains language that reads as a medical claim",
		suggestion: "Describe what the product does without health or treatment claims",
	},
	{
		re:         regexp.MustCompile(`(?i)\b(fda|clinically (proven|tested)|doctor (recommended|approved)|medical[- ]grade)\b`),
		message:    "references FDA or medical endorsement",
		suggestion: "Remove regulatory or medical endorsement references unless you hold documentation",
	},
	{
		re:         regexp.MustCompile(`[A-Z]{3,}`),
		message:    "contains 3 or more consecutive capital letters",
		suggestion: "Avoid all-caps words; use sentence or title case",
	},
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+(\s+|$)`)

type field struct {
	name string
	text string
}

func fields(d Draft) []field {
	out := make([]field, 0, 2+len(d.Bullets))
	out = append(out, field{name: "title", text: d.Title})
	for i, b := range d.Bullets {
		out = append(out, field{name: fmt.Sprintf("bullets[%d]", i), text: b})
	}
	out = append(out, field{name: "description", text: d.Description})
	return out
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}

// ValidateListing reports length, stuffing, policy and readability issues.
// It does not modify d.
func ValidateListing(d Draft, limits Limits, keywords, disallowed []string) []ValidationIssue {
	issues := make([]ValidationIssue, 0)

	checkLength := func(name, text string, limit int) {
		if limit <= 0 {
			return
		}
		if n := charCount(text); n > limit {
			issues = append(issues, ValidationIssue{
				Field:      name,
				Type:       IssueLength,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("%s is %d characters, limit is %d", name, n, limit),
				Suggestion: fmt.Sprintf("Shorten %s by at least %d characters", name, n-limit),
			})
		}
	}
	checkLength("title", d.Title, limits.Title)
	for i, b := range d.Bullets {
		checkLength(fmt.Sprintf("bullets[%d]", i), b, limits.Bullet)
	}
	checkLength("description", d.Description, limits.Description)

	if len(d.Bullets) < BulletCount {
		issues = append(issues, ValidationIssue{
			Field:      "bullets",
			Type:       IssueLength,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("listing has %d of %d bullet points", len(d.Bullets), BulletCount),
			Suggestion: "Fill every bullet point slot",
		})
	}

	combined := strings.ToLower(d.Title + "\n" + strings.Join(d.Bullets, "\n") + "\n" + d.Description)
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if n := strings.Count(combined, k); n > maxKeywordOccurrences {
			issues = append(issues, ValidationIssue{
				Field:      "listing",
				Type:       IssueStuffing,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("keyword %q appears %d times", kw, n),
				Suggestion: fmt.Sprintf("Use %q at most %d times across the listing", kw, maxKeywordOccurrences),
			})
		}
	}

	for _, term := range disallowed {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		for _, f := range fields(d) {
			if strings.Contains(strings.ToLower(f.text), t) {
				issues = append(issues, ValidationIssue{
					Field:      f.name,
					Type:       IssuePolicy,
					Severity:   SeverityError,
					Message:    fmt.Sprintf("%s contains disallowed term %q", f.name, term),
					Suggestion: fmt.Sprintf("Remove %q", term),
				})
			}
		}
	}

	for _, pc := range policyChecks {
		for _, f := range fields(d) {
			if m := pc.re.FindString(f.text); m != "" {
				issues = append(issues, ValidationIssue{
					Field:      f.name,
					Type:       IssuePolicy,
					Severity:   SeverityWarning,
					Message:    fmt.Sprintf("%s %s (%q)", f.name, pc.message, m),
					Suggestion: pc.suggestion,
				})
				break
			}
		}
	}

	long := 0
	for _, s := range sentenceSplitRe.Split(d.Description, -1) {
		if len(strings.Fields(s)) > maxSentenceWords {
			long++
		}
	}
	if long > 0 {
		issues = append(issues, ValidationIssue{
			Field:      "description",
			Type:       IssueReadability,
			Severity:   SeverityInfo,
			Message:    fmt.Sprintf("description has %d sentence(s) longer than %d words", long, maxSentenceWords),
			Suggestion: "Split long sentences so the copy is easier to scan",
		})
	}

	return issues
}

var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

// AutoFixListing truncates over-long fields at a word or sentence boundary,
// then strips disallowed terms. Length is not re-checked after stripping.
// The result is a new Draft; applying it twice gives the same result.
func AutoFixListing(d Draft, limits Limits, disallowed []string) Draft {
	out := d.Clone()

	out.Title = truncateAtSpace(out.Title, limits.Title)
	for i := range out.Bullets {
		out.Bullets[i] = truncateAtSpace(out.Bullets[i], limits.Bullet)
	}
	out.Description = truncateAtSentence(out.Description, limits.Description)

	patterns := make([]*regexp.Regexp, 0, len(disallowed))
	for _, term := range disallowed {
		t := strings.TrimSpace(term)
		if t == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(t)))
	}
	if len(patterns) == 0 {
		return out
	}
	out.Title = stripTerms(out.Title, patterns)
	for i := range out.Bullets {
		out.Bullets[i] = stripTerms(out.Bullets[i], patterns)
	}
	out.Description = stripTerms(out.Description, patterns)
	return out
}

func stripTerms(s string, patterns []*regexp.Regexp) string {
	for {
		before := s
		for _, re := range patterns {
			s = re.ReplaceAllString(s, "")
		}
		s = strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
		if s == before {
			return s
		}
	}
}

// truncateAtSpace cuts s to at most limit characters, at the last whitespace
// when there is one.
func truncateAtSpace(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	if unicode.IsSpace(r[limit]) {
		return strings.TrimRightFunc(string(r[:limit]), unicode.IsSpace)
	}
	head := r[:limit]
	for i := len(head) - 1; i > 0; i-- {
		if unicode.IsSpace(head[i]) {
			return strings.TrimRightFunc(string(head[:i]), unicode.IsSpace)
		}
	}
	return string(head)
}

// truncateAtSentence cuts s to at most limit characters. It prefers the last
// sentence end when that keeps more than half the limit, and otherwise the
// last whitespace.
func truncateAtSentence(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	head := r[:limit]
	for i := len(head) - 1; i > limit/2; i-- {
		switch head[i] {
		case '.', '!', '?':
			return string(head[:i+1])
		}
	}
	return truncateAtSpace(s, limit)
}

// RequiredFieldIssues reports the fields a publishable listing cannot leave
// empty. ValidateListing does not include these so partial drafts validate
// cleanly.
func RequiredFieldIssues(d Draft) []ValidationIssue {
	var issues []ValidationIssue
	if strings.TrimSpace(d.Title) == "" {
		issues = append(issues, ValidationIssue{
			Field:      "title",
			Type:       IssueLength,
			Severity:   SeverityError,
			Message:    "title is required",
			Suggestion: "Write a title before finalizing",
		})
	}
	filled := 0
	for _, b := range d.Bullets {
		if strings.TrimSpace(b) != "" {
			filled++
		}
	}
	if filled == 0 {
		issues = append(issues, ValidationIssue{
			Field:      "bullets",
			Type:       IssueLength,
			Severity:   SeverityError,
			Message:    "at least one bullet point is required",
			Suggestion: "Write bullet points before finalizing",
		})
	}
	if strings.TrimSpace(d.Description) == "" {
		issues = append(issues, ValidationIssue{
			Field:      "description",
			Type:       IssueLength,
			Severity:   SeverityError,
			Message:    "description is required",
			Suggestion: "Write a description before finalizing",
		})
	}
	return issues
}

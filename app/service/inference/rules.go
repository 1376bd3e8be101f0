package inference

import (
	"fmt"
	"regexp"
	"time"
)

// Rule turns retrieved context into zero or more derived sentences. Rules
// are pure and independent of each other.
type Rule struct {
	Name  string
	Apply func(context string, now time.Time) []string
}

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	sincePattern      = regexp.MustCompile(`(?i)\bsince\s+(` + monthNames + `)\s+(\d{4})`)
	monthRangePattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{4})\s*[-–—]\s*present\b`)
	yearRangePattern  = regexp.MustCompile(`(?i)\((\d{4})\s*[-–—]\s*present\)`)

	employmentPattern   = regexp.MustCompile(`(?i)\b(work(s|ing|ed)?|employ(ed|ee|ment)|job|position|engineer|developer|designer|consultant)\b[^.\n]{0,100}\bpresent\b`)
	relationshipPattern = regexp.MustCompile(`(?i)\b(girlfriend|boyfriend|partner|couple|taken)\b`)
	anyYearPattern      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	graduationPattern   = regexp.MustCompile(`(?i)\bgraduat(e|es|ed|ing|ion)\b`)
)

// relationshipWindow bounds how far around a relationship keyword a start
// date phrase still counts as describing that relationship.
const relationshipWindow = 120

// deriveOpenIntervals collects every "...-present" start date in the
// context, duplicates included, and emits one sentence per parseable date.
func deriveOpenIntervals(context string, now time.Time) []string {
	var starts []string

	for _, m := range sincePattern.FindAllStringSubmatch(context, -1) {
		starts = append(starts, m[1]+" "+m[2])
	}
	for _, m := range monthRangePattern.FindAllStringSubmatch(context, -1) {
		starts = append(starts, m[1]+" "+m[2])
	}
	for _, m := range yearRangePattern.FindAllStringSubmatch(context, -1) {
		starts = append(starts, m[1])
	}

	var lines []string
	for _, start := range starts {
		date, ok := parseStartDate(start)
		if !ok {
			continue
		}

		years, months, ok := elapsedYearsMonths(now, date)
		if !ok {
			continue
		}

		lines = append(lines, fmt.Sprintf("- CURRENTLY ACTIVE since %s: ongoing for %s.",
			start, formatDuration(years, months)))
	}

	return lines
}

func deriveEmployment(context string, _ time.Time) []string {
	if !employmentPattern.MatchString(context) {
		return nil
	}

	return []string{"- Currently employed: the listed position has a \"present\" end date, so the job is still held today."}
}

// deriveRelationship fires when a relationship keyword co-occurs with a
// 4-digit year anywhere in the context. A start date phrase near the keyword
// upgrades the sentence with a computed duration.
func deriveRelationship(context string, now time.Time) []string {
	loc := relationshipPattern.FindStringIndex(context)
	if loc == nil || !anyYearPattern.MatchString(context) {
		return nil
	}

	lo := loc[0] - relationshipWindow
	if lo < 0 {
		lo = 0
	}
	hi := loc[1] + relationshipWindow
	if hi > len(context) {
		hi = len(context)
	}
	window := context[lo:hi]

	start := ""
	if m := sincePattern.FindStringSubmatch(window); m != nil {
		start = m[1] + " " + m[2]
	} else if m := monthRangePattern.FindStringSubmatch(window); m != nil {
		start = m[1] + " " + m[2]
	}

	if start != "" {
		if date, ok := parseStartDate(start); ok {
			if years, months, ok := elapsedYearsMonths(now, date); ok {
				return []string{fmt.Sprintf("- In a relationship since %s (%s).",
					start, formatDuration(years, months))}
			}
		}
	}

	return []string{"- In a relationship (see context for details)."}
}

func deriveGraduation(context string, _ time.Time) []string {
	if !graduationPattern.MatchString(context) {
		return nil
	}

	return []string{"- Has graduated, the institution and year are in the context above."}
}

package inference

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)

func TestDeriveOpenInterval(t *testing.T) {
	svc := NewWithClock(func() time.Time { return testNow })

	result := svc.DeriveAt("JP has been freelancing since January 2023.", testNow)

	if !strings.Contains(result, "CURRENTLY ACTIVE") {
		t.Fatalf("expected a CURRENTLY ACTIVE line, got: %q", result)
	}
	if !strings.Contains(result, "1 year and 7 months") {
		t.Fatalf("expected duration '1 year and 7 months', got: %q", result)
	}
}

func TestDeriveEmptyCases(t *testing.T) {
	svc := NewWithClock(func() time.Time { return testNow })

	cases := []struct {
		name    string
		context string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t  "},
		{"sentinel", NoContextMarker},
		{"no matching patterns", "JP enjoys hiking and photography on weekends."},
		{"unparseable month", "active since Farvardin 2020 according to him"},
		{"future start date", "scheduled to begin since January 2107"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.DeriveAt(tc.context, testNow); got != "" {
				t.Fatalf("expected empty result, got: %q", got)
			}
		})
	}
}

func TestDerivePatternFamilies(t *testing.T) {
	svc := NewWithClock(func() time.Time { return testNow })

	cases := []struct {
		name    string
		context string
		want    []string
	}{
		{
			name:    "month range to present",
			context: "Software Engineer at Acme Corp, June 2021 - present.",
			want:    []string{"CURRENTLY ACTIVE since June 2021", "3 years and 2 months", "Currently employed"},
		},
		{
			name:    "parenthesized year range",
			context: "Open source maintainer (2019-present), various projects.",
			want:    []string{"CURRENTLY ACTIVE since 2019", "5 years and 7 months"},
		},
		{
			name:    "duplicates kept",
			context: "Playing guitar since March 2022. Still playing since March 2022.",
			want:    []string{"CURRENTLY ACTIVE since March 2022"},
		},
		{
			name:    "relationship with nearby start date",
			context: "JP has had a girlfriend since February 2023.",
			want:    []string{"In a relationship since February 2023 (1 year and 6 months)"},
		},
		{
			name:    "relationship without start date",
			context: "He is taken, they met back in 2020 at a conference.",
			want:    []string{"In a relationship (see context for details)"},
		},
		{
			name:    "graduation keyword",
			context: "JP graduated from State University in 2019.",
			want:    []string{"Has graduated"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.DeriveAt(tc.context, testNow)

			for _, want := range tc.want {
				if !strings.Contains(got, want) {
					t.Fatalf("expected %q in result, got: %q", want, got)
				}
			}
		})
	}
}

func TestDeriveDuplicatesEmitTwoLines(t *testing.T) {
	svc := NewWithClock(func() time.Time { return testNow })

	got := svc.DeriveAt("Playing guitar since March 2022. Still playing since March 2022.", testNow)

	if n := strings.Count(got, "CURRENTLY ACTIVE"); n != 2 {
		t.Fatalf("expected 2 active lines for duplicate matches, got %d in: %q", n, got)
	}
}

func TestDeriveRuleOrderStable(t *testing.T) {
	svc := NewWithClock(func() time.Time { return testNow })

	context := "JP graduated in 2018 and works as a developer, January 2020 - present. " +
		"He has a girlfriend since May 2021."
	got := svc.DeriveAt(context, testNow)

	active := strings.Index(got, "CURRENTLY ACTIVE")
	employed := strings.Index(got, "Currently employed")
	relationship := strings.Index(got, "In a relationship")
	graduated := strings.Index(got, "Has graduated")

	for name, idx := range map[string]int{
		"active": active, "employed": employed, "relationship": relationship, "graduated": graduated,
	} {
		if idx < 0 {
			t.Fatalf("expected %s line to fire, got: %q", name, got)
		}
	}

	if !(active < employed && employed < relationship && relationship < graduated) {
		t.Fatalf("rule order not stable: active=%d employed=%d relationship=%d graduated=%d",
			active, employed, relationship, graduated)
	}
}

func TestDeriveHeaderPresent(t *testing.T) {
	svc := NewWithClock(func() time.Time { return testNow })

	got := svc.DeriveAt("working on this since August 2024", testNow)

	if !strings.HasPrefix(got, header) {
		t.Fatalf("expected result to start with the header, got: %q", got)
	}
	if !strings.Contains(got, "less than a month") {
		t.Fatalf("expected 'less than a month' for a same-month start, got: %q", got)
	}
}

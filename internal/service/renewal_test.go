package service

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func date(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return &parsed
}

func TestRenewalDate(t *testing.T) {
	cases := []struct {
		name  string
		start string
		term  string
		want  string
	}{
		{"twelve months", "2024-01-15", "12 meses", "2025-01-15"},
		{"single month singular", "2024-03-10", "1 mês", "2024-04-10"},
		{"no accent", "2024-03-10", "1 mes", "2024-04-10"},
		{"case insensitive", "2024-06-01", "6 MESES", "2024-12-01"},
		{"surrounding spaces", "2024-06-01", "  3 meses  ", "2024-09-01"},
		{"year boundary", "2024-11-20", "2 meses", "2025-01-20"},
		{"indeterminate", "2024-01-15", domain.ExpirationIndeterminate, ""},
		{"empty term", "2024-01-15", "", ""},
		{"unparseable term", "2024-01-15", "doze meses", ""},
		{"term without unit", "2024-01-15", "12", ""},
		{"negative-looking term", "2024-01-15", "-3 meses", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenewalDate(date(t, tc.start), tc.term); got != tc.want {
				t.Fatalf("RenewalDate(%s, %q) = %q, want %q", tc.start, tc.term, got, tc.want)
			}
		})
	}
}

func TestRenewalDateNilStart(t *testing.T) {
	if got := RenewalDate(nil, "12 meses"); got != "" {
		t.Fatalf("nil start must yield empty renewal date, got %q", got)
	}
	zero := time.Time{}
	if got := RenewalDate(&zero, "12 meses"); got != "" {
		t.Fatalf("zero start must yield empty renewal date, got %q", got)
	}
}

func TestRenewalDateEndOfMonthRollover(t *testing.T) {
	// AddDate normalizes 2024-02-31 into March; the rolled-over date is the
	// derived value, not a clamp to the end of February.
	if got := RenewalDate(date(t, "2024-01-31"), "1 mês"); got != "2024-03-02" {
		t.Fatalf("rollover = %q, want 2024-03-02", got)
	}
	if got := RenewalDate(date(t, "2023-01-31"), "1 mês"); got != "2023-03-03" {
		t.Fatalf("non-leap rollover = %q, want 2023-03-03", got)
	}
}

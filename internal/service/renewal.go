package service

import (
	"regexp"
	"strconv"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// expirationTermPattern extracts the leading month count from an expiration
// term such as "12 meses" or "1 mês". Case-insensitive, singular or plural.
var expirationTermPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*m[eê]s(?:es)?\s*$`)

// RenewalDate derives the renewal date from a start date and an expiration
// term, formatted YYYY-MM-DD. It returns the empty string when the start date
// is absent, the term is empty or "Indeterminado", or the term does not parse
// as a month count.
//
// Month arithmetic uses time.Time.AddDate, which normalizes end-of-month
// overflow by rolling into the next month (2024-01-31 plus one month is
// 2024-03-02). That rollover policy is deliberate and covered by tests.
func RenewalDate(start *time.Time, term string) string {
	if start == nil || start.IsZero() {
		return ""
	}
	if term == "" || term == domain.ExpirationIndeterminate {
		return ""
	}
	match := expirationTermPattern.FindStringSubmatch(term)
	if match == nil {
		return ""
	}
	months, err := strconv.Atoi(match[1])
	if err != nil {
		return ""
	}
	return start.AddDate(0, months, 0).Format("2006-01-02")
}

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies one billing cycle. It is stored and matched by its
// canonical key ("2026-01"), never by a display label, so a formatting
// change cannot break matching.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodAll is the sentinel selector that matches every period.
const PeriodAll = "all"

// Indonesian month names, index 1-12.
var monthNamesID = [...]string{
	"",
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Key returns the canonical storage/matching form, e.g. "2026-01".
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label returns the display form shown to members, e.g. "Januari 2026".
func (p Period) Label() string {
	if p.Month < time.January || p.Month > time.December {
		return p.Key()
	}
	return fmt.Sprintf("%s %d", monthNamesID[p.Month], p.Year)
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// ParsePeriod parses a canonical "YYYY-MM" key.
func ParsePeriod(s string) (Period, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("invalid period %q, want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2100 {
		return Period{}, fmt.Errorf("invalid period year %q", parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period month %q", parts[1])
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the period a timestamp falls in.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// CurrentPeriod returns the period containing the current wall clock time.
func CurrentPeriod() Period {
	return PeriodOf(time.Now())
}

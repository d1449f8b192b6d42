package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// monthNames is the one ordering table for month labels. Parsing, sorting and
// previous-month arithmetic all go through it.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Month is a parsed month label such as "July 2025".
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthNames returns the twelve month names in calendar order.
func MonthNames() []string {
	return monthNames[:]
}

// ParseMonthName looks a month name up in the ordering table.
func ParseMonthName(name string) (time.Month, error) {
	name = strings.TrimSpace(name)
	for i, n := range monthNames {
		if strings.EqualFold(n, name) {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown month name %q", ErrMalformedLabel, name)
}

// ParseMonth parses "<month name> <4-digit year>".
func ParseMonth(label string) (Month, error) {
	parts := strings.Fields(label)
	if len(parts) != 2 {
		return Month{}, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}
	m, err := ParseMonthName(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}
	year, err := ParseYear(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}
	return Month{Year: year, Month: m}, nil
}

// ParseYear accepts exactly four ASCII digits, "0001" through "9999".
func ParseYear(s string) (int, error) {
	if len(s) != 4 || !allDigits(s) {
		return 0, fmt.Errorf("%w: year %q", ErrMalformedLabel, s)
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 {
		return 0, fmt.Errorf("%w: year %q", ErrMalformedLabel, s)
	}
	return year, nil
}

func (m Month) String() string {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Sprintf("Month(%d) %04d", int(m.Month), m.Year)
	}
	return fmt.Sprintf("%s %04d", monthNames[m.Month-1], m.Year)
}

// Name returns the month name without the year.
func (m Month) Name() string {
	if m.Month < time.January || m.Month > time.December {
		return ""
	}
	return monthNames[m.Month-1]
}

func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December || m.Year < 1 || m.Year > 9999 {
		return fmt.Errorf("%w: %s", ErrMalformedLabel, m)
	}
	return nil
}

// Previous returns the month before m. January wraps to December of the
// prior year.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Before orders months by (year, month index).
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// PreviousMonthLabel returns the label of the month before label.
func PreviousMonthLabel(label string) (string, error) {
	m, err := ParseMonth(label)
	if err != nil {
		return "", err
	}
	return m.Previous().String(), nil
}

// SortMonths returns the distinct months in chronological order.
func SortMonths(months []Month) []Month {
	out := lo.Uniq(months)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// SortMonthLabels parses, de-duplicates and chronologically orders labels.
func SortMonthLabels(labels []string) ([]string, error) {
	months := make([]Month, 0, len(labels))
	for _, l := range labels {
		m, err := ParseMonth(l)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return lo.Map(SortMonths(months), func(m Month, _ int) string { return m.String() }), nil
}

package core

import "github.com/samber/lo"

// Comparison is the quick month-over-month view over the two latest months
// in the data.
type Comparison struct {
	Current  Month
	Previous Month
	Deltas   []CategoryDelta
}

// Dashboard holds every figure the dashboard renders for one selected month.
type Dashboard struct {
	Month         Month
	PreviousMonth Month

	// HasRecords is false when the store is empty.
	HasRecords bool
	// HasMonthData is false when the selected month has no records.
	HasMonthData bool

	Totals         GroupTotals
	PreviousTotals GroupTotals
	Total          Money
	PreviousTotal  Money
	Trend          Direction

	ByCategory    []CategoryAmount
	Essentials    Money
	NonEssentials Money

	// Entries are the selected month's records, newest first.
	Entries []Record

	GroupSeries    []SeriesPoint
	CategorySeries []SeriesPoint

	// Comparison is nil when the data spans fewer than two months.
	Comparison *Comparison
}

// BuildDashboard derives the dashboard for month from the full record set.
func BuildDashboard(records []Record, month Month) Dashboard {
	groups := Groups()
	prev := month.Previous()
	monthRecords := RecordsFor(records, month)

	d := Dashboard{
		Month:          month,
		PreviousMonth:  prev,
		HasRecords:     len(records) > 0,
		HasMonthData:   len(monthRecords) > 0,
		Totals:         groupTotals(monthRecords, groups),
		PreviousTotals: TotalsForMonth(records, prev, groups),
		Entries:        NewestFirst(monthRecords),
		GroupSeries:    GroupSeries(records, groups),
		CategorySeries: CategorySeries(records, CategoriesPresent(records)),
	}
	d.Total = d.Totals.Sum()
	d.PreviousTotal = d.PreviousTotals.Sum()
	d.Trend = DirectionOf(d.Total.Sub(d.PreviousTotal))
	d.Essentials, d.NonEssentials = EssentialsSplit(d.Totals)
	d.ByCategory = categoryTotals(monthRecords, CategoriesPresent(monthRecords))

	if c, ok := LatestComparison(records); ok {
		d.Comparison = &c
	}
	return d
}

// LatestComparison compares the last two months of the chronological order
// across the categories present in records. ok is false with fewer than two
// distinct months.
func LatestComparison(records []Record) (Comparison, bool) {
	months := DistinctMonths(records)
	if len(months) < 2 {
		return Comparison{}, false
	}
	cur, prev := months[len(months)-1], months[len(months)-2]
	return Comparison{
		Current:  cur,
		Previous: prev,
		Deltas:   DeltaByCategory(records, cur, prev, CategoriesPresent(records)),
	}, true
}

// Increased returns the deltas that went up.
func (c Comparison) Increased() []CategoryDelta {
	return lo.Filter(c.Deltas, func(d CategoryDelta, _ int) bool { return d.Direction == Increased })
}

// Decreased returns the deltas that went down.
func (c Comparison) Decreased() []CategoryDelta {
	return lo.Filter(c.Deltas, func(d CategoryDelta, _ int) bool { return d.Direction == Decreased })
}

// HasChanges reports whether any category moved.
func (c Comparison) HasChanges() bool {
	return lo.SomeBy(c.Deltas, func(d CategoryDelta) bool { return d.Direction != Unchanged })
}

// FilterCategory keeps the records of one category. An empty category keeps
// everything.
func FilterCategory(records []Record, c Category) []Record {
	if c == "" {
		return records
	}
	return lo.Filter(records, func(r Record, _ int) bool { return r.Category == c })
}

package core

import (
	"sort"

	"github.com/samber/lo"
)

const (
	Decreased Direction = "decreased"
	Increased Direction = "increased"
	Unchanged Direction = "unchanged"
)

type (
	// Direction classifies a month-over-month change.
	Direction string

	// GroupTotals maps every requested group to its sum. Groups without
	// records are present with a zero amount.
	GroupTotals map[Group]Money

	// CategoryAmount represents an amount aggregated by category.
	CategoryAmount struct {
		Category Category
		Amount   Money
	}

	// CategoryDelta compares one category across two months.
	CategoryDelta struct {
		Category  Category
		Current   Money
		Previous  Money
		Delta     Money
		Direction Direction
	}

	// SeriesPoint is one row of a long-form trend series.
	SeriesPoint struct {
		Month Month
		Key   string
		Total Money
	}
)

// DirectionOf classifies a signed delta.
func DirectionOf(delta Money) Direction {
	switch {
	case delta.Cents < 0:
		return Decreased
	case delta.Cents > 0:
		return Increased
	default:
		return Unchanged
	}
}

// Sum returns the total over all groups.
func (t GroupTotals) Sum() Money {
	var sum Money
	for _, m := range t {
		sum = sum.Add(m)
	}
	return sum
}

// RecordsFor returns the records of one month, preserving input order.
func RecordsFor(records []Record, month Month) []Record {
	return lo.Filter(records, func(r Record, _ int) bool { return r.Month == month })
}

// SumOf adds up the amounts of records.
func SumOf(records []Record) Money {
	return Money{Cents: lo.SumBy(records, func(r Record) int64 { return r.Amount.Cents })}
}

// TotalsForMonth sums each group over the records of month.
func TotalsForMonth(records []Record, month Month, groups []GroupDef) GroupTotals {
	return groupTotals(RecordsFor(records, month), groups)
}

func groupTotals(monthRecords []Record, groups []GroupDef) GroupTotals {
	totals := make(GroupTotals, len(groups))
	for _, g := range groups {
		totals[g.Group] = SumOf(lo.Filter(monthRecords, func(r Record, _ int) bool { return g.Contains(r.Category) }))
	}
	return totals
}

// categoryTotals reports every one of categories, zero when absent.
func categoryTotals(monthRecords []Record, categories []Category) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryAmount{
			Category: c,
			Amount:   SumOf(lo.Filter(monthRecords, func(r Record, _ int) bool { return r.Category == c })),
		})
	}
	return out
}

// EssentialsSplit returns the essentials total (every group but
// NonEssentials) and the non-essentials total.
func EssentialsSplit(totals GroupTotals) (essentials, nonEssentials Money) {
	for g, m := range totals {
		if g == GroupNonEssentials {
			nonEssentials = nonEssentials.Add(m)
			continue
		}
		essentials = essentials.Add(m)
	}
	return essentials, nonEssentials
}

// DistinctMonths returns every month present in records, chronologically.
func DistinctMonths(records []Record) []Month {
	return SortMonths(lo.Map(records, func(r Record, _ int) Month { return r.Month }))
}

// CategoriesPresent returns the categories that occur in records, in
// enumeration order.
func CategoriesPresent(records []Record) []Category {
	seen := make(map[Category]bool, len(categories))
	for _, r := range records {
		seen[r.Category] = true
	}
	return lo.Filter(Categories(), func(c Category, _ int) bool { return seen[c] })
}

// DeltaByCategory compares current against previous for each category.
func DeltaByCategory(records []Record, current, previous Month, categories []Category) []CategoryDelta {
	cur := categoryTotals(RecordsFor(records, current), categories)
	prev := categoryTotals(RecordsFor(records, previous), categories)

	out := make([]CategoryDelta, len(categories))
	for i, c := range categories {
		delta := cur[i].Amount.Sub(prev[i].Amount)
		out[i] = CategoryDelta{
			Category:  c,
			Current:   cur[i].Amount,
			Previous:  prev[i].Amount,
			Delta:     delta,
			Direction: DirectionOf(delta),
		}
	}
	return out
}

// GroupSeries emits one point per (month, group) over every month in
// records. Keys are group display labels.
func GroupSeries(records []Record, groups []GroupDef) []SeriesPoint {
	keys := lo.Map(groups, func(g GroupDef, _ int) string { return g.Label })
	return monthlySeries(records, keys, func(monthRecords []Record) []Money {
		totals := groupTotals(monthRecords, groups)
		return lo.Map(groups, func(g GroupDef, _ int) Money { return totals[g.Group] })
	})
}

// CategorySeries emits one point per (month, category) over every month in
// records.
func CategorySeries(records []Record, categories []Category) []SeriesPoint {
	keys := lo.Map(categories, func(c Category, _ int) string { return string(c) })
	return monthlySeries(records, keys, func(monthRecords []Record) []Money {
		return lo.Map(categoryTotals(monthRecords, categories), func(a CategoryAmount, _ int) Money { return a.Amount })
	})
}

// monthlySeries walks the shared x-axis once. sums must return one total per
// key, in key order.
func monthlySeries(records []Record, keys []string, sums func(monthRecords []Record) []Money) []SeriesPoint {
	months := DistinctMonths(records)
	out := make([]SeriesPoint, 0, len(months)*len(keys))
	for _, m := range months {
		totals := sums(RecordsFor(records, m))
		for i, k := range keys {
			out = append(out, SeriesPoint{Month: m, Key: k, Total: totals[i]})
		}
	}
	return out
}

// NewestFirst orders records by creation time, newest first, id breaking
// ties. The input is not modified.
func NewestFirst(records []Record) []Record {
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

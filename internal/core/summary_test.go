package core

import (
	"testing"
	"time"
)

func TestBuildDashboardScenario(t *testing.T) {
	d := BuildDashboard(scenario(), july2025)

	if !d.HasRecords || !d.HasMonthData {
		t.Fatalf("expected data flags set: %+v", d)
	}
	if d.PreviousMonth != june2025 {
		t.Fatalf("previous month = %v", d.PreviousMonth)
	}
	if d.Total != FromUnits(1500) || d.PreviousTotal != FromUnits(300) {
		t.Fatalf("total=%v previous=%v", d.Total, d.PreviousTotal)
	}
	if d.Trend != Increased {
		t.Fatalf("trend = %s", d.Trend)
	}
	if d.Essentials != FromUnits(1500) || d.NonEssentials != (Money{}) {
		t.Fatalf("essentials=%v non=%v", d.Essentials, d.NonEssentials)
	}
	if len(d.ByCategory) != 2 || d.ByCategory[0].Category != Dining || d.ByCategory[1].Category != EMI {
		t.Fatalf("unexpected category totals %+v", d.ByCategory)
	}
	if len(d.Entries) != 2 || d.Entries[0].ID != 2 {
		t.Fatalf("entries not newest first: %+v", d.Entries)
	}

	if d.Comparison == nil {
		t.Fatalf("expected comparison")
	}
	if d.Comparison.Current != july2025 || d.Comparison.Previous != june2025 {
		t.Fatalf("comparison months %v/%v", d.Comparison.Current, d.Comparison.Previous)
	}
	inc := d.Comparison.Increased()
	if len(inc) != 2 || inc[0].Category != Dining || inc[0].Delta != FromUnits(200) {
		t.Fatalf("unexpected increases %+v", inc)
	}
	if len(d.Comparison.Decreased()) != 0 || !d.Comparison.HasChanges() {
		t.Fatalf("unexpected comparison %+v", d.Comparison)
	}
}

func TestBuildDashboardEmptyMonth(t *testing.T) {
	d := BuildDashboard(scenario(), NewMonth(2025, time.August))
	if d.HasMonthData || !d.HasRecords {
		t.Fatalf("unexpected flags %+v", d)
	}
	if d.Total != (Money{}) || d.PreviousTotal != FromUnits(1500) {
		t.Fatalf("total=%v previous=%v", d.Total, d.PreviousTotal)
	}
	if d.Trend != Decreased {
		t.Fatalf("trend = %s", d.Trend)
	}
	if len(d.Entries) != 0 || len(d.ByCategory) != 0 {
		t.Fatalf("expected no entries")
	}
}

func TestBuildDashboardEmptyStore(t *testing.T) {
	d := BuildDashboard(nil, july2025)
	if d.HasRecords || d.HasMonthData || d.Comparison != nil {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if d.Trend != Unchanged || len(d.Totals) != len(Groups()) {
		t.Fatalf("expected zero-filled totals, got %+v", d.Totals)
	}
}

func TestLatestComparisonUsesLastTwoMonths(t *testing.T) {
	records := []Record{
		rec(1, NewMonth(2026, time.January), Fuel, 100, ""),
		rec(2, NewMonth(2025, time.December), Fuel, 300, ""),
		rec(3, NewMonth(2025, time.March), Fuel, 900, ""),
		rec(4, NewMonth(2025, time.December), House, 50, ""),
	}
	c, ok := LatestComparison(records)
	if !ok {
		t.Fatalf("expected comparison")
	}
	if c.Current != NewMonth(2026, time.January) || c.Previous != NewMonth(2025, time.December) {
		t.Fatalf("months %v/%v", c.Current, c.Previous)
	}
	dec := c.Decreased()
	if len(dec) != 2 || dec[0].Category != House || dec[1].Category != Fuel || dec[1].Delta != FromUnits(-200) {
		t.Fatalf("unexpected decreases %+v", dec)
	}

	if _, ok := LatestComparison(records[:1]); ok {
		t.Fatalf("single month must not produce a comparison")
	}
}

func TestFilterCategory(t *testing.T) {
	if got := FilterCategory(scenario(), ""); len(got) != 3 {
		t.Fatalf("empty filter dropped records")
	}
	if got := FilterCategory(scenario(), Dining); len(got) != 2 {
		t.Fatalf("expected two Dining records, got %d", len(got))
	}
}

package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/lo"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// headline classes drive the banner colour: green below last month, red
// above, plain when equal.
var headlineClass = map[core.Direction]string{
	core.Decreased: "below",
	core.Increased: "above",
	core.Unchanged: "equal",
}

type groupRow struct {
	Label  string
	Amount core.Money
}

type dashboardView struct {
	core.Dashboard

	Currency      string
	MonthNames    []string
	Years         []int
	Categories    []core.Category
	GroupRows     []groupRow
	HeadlineClass string
	// SelfURL reloads the current selection; CSVURL exports it.
	SelfURL       string
	CSVURL        string

	Filter        core.Category
	Filtered      []core.Record
	FilteredTotal core.Money

	Charts chartData
}

type (
	pieSlice struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
	}

	seriesLine struct {
		Key    string    `json:"key"`
		Values []float64 `json:"values"`
	}

	seriesSet struct {
		Months []string     `json:"months"`
		Series []seriesLine `json:"series"`
	}

	seriesResponse struct {
		Groups     seriesSet `json:"groups"`
		Categories seriesSet `json:"categories"`
	}

	deltaJSON struct {
		Category  string  `json:"category"`
		Current   float64 `json:"current"`
		Previous  float64 `json:"previous"`
		Delta     float64 `json:"delta"`
		Direction string  `json:"direction"`
	}

	comparisonResponse struct {
		Available bool        `json:"available"`
		Current   string      `json:"current,omitempty"`
		Previous  string      `json:"previous,omitempty"`
		Deltas    []deltaJSON `json:"deltas"`
	}

	chartData struct {
		Categories []pieSlice         `json:"categories"`
		Essentials []pieSlice         `json:"essentials"`
		Series     seriesResponse     `json:"series"`
		Comparison comparisonResponse `json:"comparison"`
	}
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		s.logError(r.Context(), "Templates not loaded", errors.New("nil templates"))
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	month, err := ParseMonthSelection(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError("Invalid month selection: " + err.Error()).Write(w)
		return
	}
	filter, err := ParseCategoryFilter(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid category filter: " + err.Error()).Write(w)
		return
	}

	d, err := s.svc.Dashboard(r.Context(), month)
	if err != nil {
		s.logError(r.Context(), "Dashboard load failed", err, "month", month.String())
		InternalServerError("Failed to load expenses").Write(w)
		return
	}

	view := s.buildView(d, filter)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", view); err != nil {
		s.access.LogError(r.Context(), "Dashboard template execution failed", err, applog.ComponentTemplate, applog.OpRender)
	}
}

func (s *Server) buildView(d core.Dashboard, filter core.Category) dashboardView {
	groups := core.Groups()
	rows := lo.Map(groups, func(g core.GroupDef, _ int) groupRow {
		return groupRow{Label: g.Label, Amount: d.Totals[g.Group]}
	})

	filtered := core.FilterCategory(d.Entries, filter)

	return dashboardView{
		Dashboard:     d,
		Currency:      s.settings.CurrencySymbol,
		MonthNames:    core.MonthNames(),
		Years:         s.selectableYears(d.Month),
		Categories:    core.Categories(),
		GroupRows:     rows,
		HeadlineClass: headlineClass[d.Trend],
		SelfURL:       "/?" + selectionQuery(d.Month, filter),
		CSVURL:        "/summary.csv?" + selectionQuery(d.Month, ""),
		Filter:        filter,
		Filtered:      filtered,
		FilteredTotal: core.SumOf(filtered),
		Charts:        buildCharts(d, rows),
	}
}

// selectableYears spans FirstYear to the current year, widened to include
// the selected year.
func (s *Server) selectableYears(selected core.Month) []int {
	from := min(s.settings.FirstYear, selected.Year)
	to := max(s.now().Year(), selected.Year)
	if from <= 0 {
		from = to
	}
	years := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}

func selectionQuery(m core.Month, filter core.Category) string {
	q := url.Values{}
	q.Set("month", m.Name())
	q.Set("year", strconv.Itoa(m.Year))
	if filter != "" {
		q.Set("label", string(filter))
	}
	return q.Encode()
}

func units(m core.Money) float64 {
	return float64(m.Cents) / 100
}

func buildCharts(d core.Dashboard, rows []groupRow) chartData {
	charts := chartData{
		Categories: lo.Map(d.ByCategory, func(a core.CategoryAmount, _ int) pieSlice {
			return pieSlice{Label: string(a.Category), Value: units(a.Amount)}
		}),
		Essentials: []pieSlice{
			{Label: "Essentials", Value: units(d.Essentials)},
			{Label: "Non-Essentials", Value: units(d.NonEssentials)},
		},
		Series: seriesResponse{
			Groups:     toSeriesSet(d.GroupSeries),
			Categories: toSeriesSet(d.CategorySeries),
		},
		Comparison: comparisonResponse{Deltas: []deltaJSON{}},
	}
	if d.Comparison != nil {
		charts.Comparison = toComparisonResponse(*d.Comparison)
	}
	return charts
}

// toSeriesSet pivots long-form points into one line per key over the shared
// month axis. Points arrive month-major, so first-seen order is
// chronological.
func toSeriesSet(points []core.SeriesPoint) seriesSet {
	months := lo.Uniq(lo.Map(points, func(p core.SeriesPoint, _ int) core.Month { return p.Month }))
	keys := lo.Uniq(lo.Map(points, func(p core.SeriesPoint, _ int) string { return p.Key }))

	monthIdx := make(map[core.Month]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}
	lines := make([]seriesLine, len(keys))
	keyIdx := make(map[string]int, len(keys))
	for i, k := range keys {
		keyIdx[k] = i
		lines[i] = seriesLine{Key: k, Values: make([]float64, len(months))}
	}
	for _, p := range points {
		lines[keyIdx[p.Key]].Values[monthIdx[p.Month]] = units(p.Total)
	}

	return seriesSet{
		Months: lo.Map(months, func(m core.Month, _ int) string { return m.String() }),
		Series: lines,
	}
}

func toComparisonResponse(c core.Comparison) comparisonResponse {
	return comparisonResponse{
		Available: true,
		Current:   c.Current.String(),
		Previous:  c.Previous.String(),
		Deltas: lo.Map(c.Deltas, func(d core.CategoryDelta, _ int) deltaJSON {
			return deltaJSON{
				Category:  string(d.Category),
				Current:   units(d.Current),
				Previous:  units(d.Previous),
				Delta:     units(d.Delta),
				Direction: string(d.Direction),
			}
		}),
	}
}

// handleSeries serves the month-to-month group and category series.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	// The series span every month; the selection only scopes the dashboard.
	d, err := s.svc.Dashboard(r.Context(), core.MonthOf(s.now()))
	if err != nil {
		s.logError(r.Context(), "Series load failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load expenses"})
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		Groups:     toSeriesSet(d.GroupSeries),
		Categories: toSeriesSet(d.CategorySeries),
	})
}

// handleComparison serves the latest two-month comparison.
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	c, ok, err := s.svc.Comparison(r.Context())
	if err != nil {
		s.logError(r.Context(), "Comparison load failed", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load expenses"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, comparisonResponse{Deltas: []deltaJSON{}})
		return
	}
	writeJSON(w, http.StatusOK, toComparisonResponse(c))
}

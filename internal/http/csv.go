package http

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// summaryFilename is the download name of the summary totals export.
func summaryFilename(m core.Month) string {
	return fmt.Sprintf("summary_totals_%s_%d.csv", m.Name(), m.Year)
}

// writeSummaryCSV writes the group totals of one month followed by a Total
// row. Amounts are plain decimals.
func writeSummaryCSV(out io.Writer, rows []groupRow, total core.Money) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"Category", "Total"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Label, r.Amount.String()}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{"Total", total.String()}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (s *Server) handleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	month, err := ParseMonthSelection(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError("Invalid month selection: " + err.Error()).Write(w)
		return
	}

	d, err := s.svc.Dashboard(r.Context(), month)
	if err != nil {
		s.logError(r.Context(), "Summary export failed", err, "month", month.String())
		InternalServerError("Failed to load expenses").Write(w)
		return
	}

	view := s.buildView(d, "")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", summaryFilename(month)))
	if err := writeSummaryCSV(w, view.GroupRows, d.Total); err != nil {
		s.access.LogError(r.Context(), "Summary CSV write failed", err, applog.ComponentHTTP, applog.OpExport)
	}
}

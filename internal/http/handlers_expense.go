package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"expenses/internal/core"
)

// handleCreateExpense stores one entry from the sidebar form or a JSON body.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	entry, err := ParseEntry(p, core.MonthOf(s.now()))
	if err != nil {
		s.writeEntryError(w, err)
		return
	}

	rec, err := s.svc.AddExpense(r.Context(), entry)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			s.writeEntryError(w, err)
			return
		}
		s.logError(r.Context(), "Expense save failed", err,
			"month", entry.Month.String(), "category", string(entry.Category))
		InternalServerError("Failed to save expense").Write(w)
		return
	}
	s.access.LogRecordCreated(r.Context(), rec.ID, rec.Month.String(), string(rec.Category), rec.Amount.Cents)

	if p.IsJSON() {
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id":       rec.ID,
			"month":    rec.Month.String(),
			"category": rec.Category,
			"amount":   rec.Amount.String(),
			"comment":  rec.Comment,
		})
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/?"+selectionQuery(rec.Month, ""), http.StatusSeeOther)
		return
	}

	msg := fmt.Sprintf("Added %s %s for %s", rec.Category, s.money.Format(rec.Amount), rec.Month)
	NewHTMXResponse().
		TriggerRecordsChanged(rec.Month).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

// writeEntryError maps entry failures: an unusable month is a bad request,
// anything else about the entry is unprocessable.
func (s *Server) writeEntryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrCommentRequired):
		UnprocessableEntityError("Please add a comment for Non-Essentials expenses.").Write(w)
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Please enter a valid amount.").Write(w)
	case errors.Is(err, core.ErrUnknownCategory):
		UnprocessableEntityError("Please choose a category.").Write(w)
	case errors.Is(err, core.ErrMalformedLabel):
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			UnprocessableEntityError("Please choose a valid month.").Write(w)
			return
		}
		BadRequestError("Invalid month selection.").Write(w)
	default:
		UnprocessableEntityError("Invalid entry: " + err.Error()).Write(w)
	}
}

// handleDeleteLast removes the most recently created record, whatever month
// is on screen. An empty store is a notice, not a failure.
func (s *Server) handleDeleteLast(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	rec, err := s.svc.DeleteLast(r.Context())
	if errors.Is(err, core.ErrNotFound) {
		if !isHTMX(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		const msg = "No records to delete."
		NewHTMXResponse().
			TriggerWarningNotification(msg).
			BodyHTML(`<div class="warning">` + msg + `</div>`).
			Write(w)
		return
	}
	if err != nil {
		s.logError(r.Context(), "Delete last failed", err)
		InternalServerError("Failed to delete the last record").Write(w)
		return
	}
	s.access.LogRecordDeleted(r.Context(), rec.ID, rec.Month.String(), string(rec.Category), rec.Amount.Cents)

	if !isHTMX(r) {
		http.Redirect(w, r, "/?"+selectionQuery(rec.Month, ""), http.StatusSeeOther)
		return
	}

	msg := fmt.Sprintf("Deleted %s %s from %s", rec.Category, s.money.Format(rec.Amount), rec.Month)
	NewHTMXResponse().
		TriggerRecordsChanged(rec.Month).
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

package http

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"expenses/internal/core"
)

// amountFormatter renders money with grouped digits behind a currency
// symbol: "₹ 1,500" or "₹ 12.50".
type amountFormatter struct {
	symbol  string
	printer *message.Printer
}

func newAmountFormatter(symbol string) amountFormatter {
	return amountFormatter{symbol: symbol, printer: message.NewPrinter(language.English)}
}

func (f amountFormatter) Format(m core.Money) string {
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		m = core.Money{Cents: -m.Cents}
	}
	if m.IsWhole() {
		return f.printer.Sprintf("%s%s %d", sign, f.symbol, m.Units())
	}
	return f.printer.Sprintf("%s%s %.2f", sign, f.symbol, float64(m.Cents)/100)
}

// FormatDelta prefixes increases with "+".
func (f amountFormatter) FormatDelta(m core.Money) string {
	if m.Cents > 0 {
		return "+" + f.Format(m)
	}
	return f.Format(m)
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	return "req_" + uuid.NewString()
}

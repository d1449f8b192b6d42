// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the month/year selection, the category filter and the entry form.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
)

// maxBodyBytes bounds entry submissions.
const maxBodyBytes = 64 << 10

// errEntryInput marks entry fields that could not be parsed at all, as
// opposed to parsed fields that fail validation.
var errEntryInput = errors.New("invalid entry input")

// ParseMonthSelection reads the month and year query parameters. The month
// may be a name ("July") or a number (1-12); missing values default to now.
func ParseMonthSelection(query url.Values, now time.Time) (core.Month, error) {
	sel := core.MonthOf(now)

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := parseMonthParam(v)
		if err != nil {
			return core.Month{}, err
		}
		sel.Month = m
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := core.ParseYear(v)
		if err != nil {
			return core.Month{}, err
		}
		sel.Year = y
	}
	return sel, sel.Validate()
}

func parseMonthParam(v string) (time.Month, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("%w: month %d", core.ErrMalformedLabel, n)
		}
		return time.Month(n), nil
	}
	return core.ParseMonthName(v)
}

// ParseCategoryFilter reads the label filter. Empty and "All" select every
// category.
func ParseCategoryFilter(query url.Values) (core.Category, error) {
	v := strings.TrimSpace(query.Get("label"))
	if v == "" || strings.EqualFold(v, "all") {
		return "", nil
	}
	return core.ParseCategory(v)
}

// ParseEntry builds an entry from a parsed body. Month and year fall back to
// the given month. The result is not validated.
func ParseEntry(p *RequestBodyParser, fallback core.Month) (core.Entry, error) {
	month := fallback
	if v := p.Get("month"); v != "" {
		m, err := parseMonthParam(v)
		if err != nil {
			return core.Entry{}, err
		}
		month.Month = m
	}
	if v := p.Get("year"); v != "" {
		y, err := core.ParseYear(v)
		if err != nil {
			return core.Entry{}, err
		}
		month.Year = y
	}

	cat, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: %w", errEntryInput, err)
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: %w", errEntryInput, err)
	}

	return core.Entry{
		Month:    month,
		Category: cat,
		Amount:   amount,
		Comment:  p.Get("comment"),
	}, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

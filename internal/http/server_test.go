package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/ledger/memory"
	applog "expenses/internal/log"
	"expenses/internal/services"
)

var july2025 = core.NewMonth(2025, time.July)

func fixedNow() time.Time {
	return time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)
}

func testSettings() Settings {
	return Settings{
		CurrencySymbol: "₹",
		FirstYear:      2024,
		Now:            fixedNow,
		Logger:         applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentApp}),
	}
}

func newTestServer(t *testing.T) (*Server, *services.ExpenseService) {
	t.Helper()
	svc := services.NewExpenseService(memory.New(), nil)
	return NewServer(":0", svc, testSettings()), svc
}

// seed stores June 2025 Dining 2000 and July 2025 Dining 1000 + Fuel 500.
func seed(t *testing.T, svc *services.ExpenseService) {
	t.Helper()
	entries := []core.Entry{
		{Month: july2025.Previous(), Category: core.Dining, Amount: core.FromUnits(2000)},
		{Month: july2025, Category: core.Dining, Amount: core.FromUnits(1000)},
		{Month: july2025, Category: core.Fuel, Amount: core.FromUnits(500)},
	}
	for _, e := range entries {
		_, err := svc.AddExpense(context.Background(), e)
		require.NoError(t, err)
	}
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestIndex_EmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No data available yet.")
	assert.Contains(t, rr.Body.String(), `<option value="July" selected>`)
}

func TestIndex_SelectedMonth(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/?month=July&year=2025", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "This month expense")
	assert.Contains(t, body, "₹ 1,500")
	assert.Contains(t, body, "Last month (June 2025): ₹ 2,000")
	assert.Contains(t, body, `class="headline below"`)
	assert.Contains(t, body, `id="chart-data"`)
}

func TestIndex_MonthWithoutRecords(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/?month=3&year=2025", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No records for March 2025")
}

func TestIndex_CategoryFilter(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/?month=July&year=2025&label=Fuel", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Total for Fuel: ₹ 500")
}

func TestIndex_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown month name", "/?month=Smarch", http.StatusBadRequest},
		{"month out of range", "/?month=13", http.StatusBadRequest},
		{"short year", "/?month=July&year=25", http.StatusBadRequest},
		{"unknown label", "/?label=Groceries", http.StatusBadRequest},
		{"unknown path", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	rr := serve(srv, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

type unhealthyService struct {
	*services.ExpenseService
	err error
}

func (u unhealthyService) Ping(context.Context) error { return u.err }

func (u unhealthyService) Dashboard(context.Context, core.Month) (core.Dashboard, error) {
	return core.Dashboard{}, u.err
}

func TestReady_StoreDown(t *testing.T) {
	svc := unhealthyService{
		ExpenseService: services.NewExpenseService(memory.New(), nil),
		err:            errors.New("database is locked"),
	}
	srv := NewServer(":0", svc, testSettings())

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "ok", body.Checks["templates"])
	assert.Contains(t, body.Checks["store"], "database is locked")

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCreateExpense_HTMX(t *testing.T) {
	srv, svc := newTestServer(t)

	rr := serve(srv, postForm("/expenses", url.Values{
		"month":    {"July"},
		"year":     {"2025"},
		"category": {"Dining"},
		"amount":   {"250"},
	}, true))

	require.Equal(t, http.StatusOK, rr.Code)
	trigger := rr.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, "records:changed")
	assert.Contains(t, trigger, "form:reset")
	assert.Contains(t, trigger, "show-notification")
	assert.Contains(t, rr.Body.String(), "Added Dining ₹ 250 for July 2025")

	records, err := svc.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, july2025, records[0].Month)
	assert.Equal(t, core.FromUnits(250), records[0].Amount)
}

func TestCreateExpense_DefaultsToCurrentMonth(t *testing.T) {
	srv, svc := newTestServer(t)

	rr := serve(srv, postForm("/expenses", url.Values{
		"category": {"EMI"},
		"amount":   {"12000"},
	}, true))
	require.Equal(t, http.StatusOK, rr.Code)

	records, err := svc.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, july2025, records[0].Month)
}

func TestCreateExpense_Redirect(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, postForm("/expenses", url.Values{
		"month":    {"June"},
		"year":     {"2025"},
		"category": {"House"},
		"amount":   {"800"},
	}, false))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?month=June&year=2025", rr.Header().Get("Location"))
}

func TestCreateExpense_JSON(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader(`{"month":"July","year":2025,"category":"Fuel","amount":250.5,"comment":"full tank"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(srv, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "July 2025", body["month"])
	assert.Equal(t, "Fuel", body["category"])
	assert.Equal(t, "250.50", body["amount"])
	assert.Equal(t, "full tank", body["comment"])
}

func TestCreateExpense_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantBody string
	}{
		{
			name:     "non-essentials without comment",
			form:     url.Values{"category": {"Non-Essentials"}, "amount": {"300"}, "comment": {"   "}},
			wantCode: http.StatusUnprocessableEntity,
			wantBody: "Please add a comment for Non-Essentials expenses.",
		},
		{
			name:     "amount not a number",
			form:     url.Values{"category": {"Dining"}, "amount": {"abc"}},
			wantCode: http.StatusUnprocessableEntity,
			wantBody: "Please enter a valid amount.",
		},
		{
			name:     "negative amount",
			form:     url.Values{"category": {"Dining"}, "amount": {"-5"}},
			wantCode: http.StatusUnprocessableEntity,
			wantBody: "Please enter a valid amount.",
		},
		{
			name:     "missing category",
			form:     url.Values{"amount": {"10"}},
			wantCode: http.StatusUnprocessableEntity,
			wantBody: "Please choose a category.",
		},
		{
			name:     "malformed month",
			form:     url.Values{"month": {"Smarch"}, "category": {"Dining"}, "amount": {"10"}},
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid month selection.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := newTestServer(t)

			rr := serve(srv, postForm("/expenses", tt.form, true))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			assert.Contains(t, rr.Header().Get("HX-Trigger"), `"error"`)

			records, err := svc.Records(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestCreateExpense_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/expenses", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))
}

func TestCreateExpense_RateLimited(t *testing.T) {
	settings := testSettings()
	settings.WriteRequestsPerMinute = 1
	srv := NewServer(":0", services.NewExpenseService(memory.New(), nil), settings)
	defer srv.Shutdown(context.Background())

	form := url.Values{"category": {"Fuel"}, "amount": {"10"}}
	rr := serve(srv, postForm("/expenses", form, true))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(srv, postForm("/expenses", form, true))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "Too many requests")

	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeleteLast_EmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/expenses/last", nil)
	req.Header.Set("HX-Request", "true")
	rr := serve(srv, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No records to delete.")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "warning")
	assert.NotContains(t, rr.Header().Get("HX-Trigger"), "records:changed")
}

func TestDeleteLast_RemovesNewest(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/expenses/last", nil)
	req.Header.Set("HX-Request", "true")
	rr := serve(srv, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "records:changed")
	assert.Contains(t, rr.Body.String(), "Deleted Fuel ₹ 500 from July 2025")

	records, err := svc.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.NotEqual(t, core.Fuel, r.Category)
	}
}

func TestDeleteLast_Redirect(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	rr := serve(srv, httptest.NewRequest(http.MethodPost, "/expenses/last", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?month=July&year=2025", rr.Header().Get("Location"))
}

func TestSummaryCSV(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/summary.csv?month=July&year=2025", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "summary_totals_July_2025.csv")

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Category", "Total"},
		{"Basic (Essentials)", "1500.00"},
		{"Dog Expenses", "0.00"},
		{"EMI", "0.00"},
		{"Non-Essentials", "0.00"},
		{"Total", "1500.00"},
	}, rows)
}

func TestSummaryCSV_BadMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/summary.csv?month=0", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSeriesAPI(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/series", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body seriesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, []string{"June 2025", "July 2025"}, body.Groups.Months)
	require.Len(t, body.Groups.Series, 4)
	assert.Equal(t, "Basic (Essentials)", body.Groups.Series[0].Key)
	assert.Equal(t, []float64{2000, 1500}, body.Groups.Series[0].Values)

	require.Len(t, body.Categories.Series, 2)
	assert.Equal(t, "Dining", body.Categories.Series[0].Key)
	assert.Equal(t, []float64{2000, 1000}, body.Categories.Series[0].Values)
	assert.Equal(t, "Fuel", body.Categories.Series[1].Key)
	assert.Equal(t, []float64{0, 500}, body.Categories.Series[1].Values)
}

func TestComparisonAPI(t *testing.T) {
	srv, svc := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/api/comparison", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var empty comparisonResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.False(t, empty.Available)
	assert.Empty(t, empty.Deltas)

	seed(t, svc)
	rr = serve(srv, httptest.NewRequest(http.MethodGet, "/api/comparison", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body comparisonResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Available)
	assert.Equal(t, "July 2025", body.Current)
	assert.Equal(t, "June 2025", body.Previous)
	assert.Equal(t, []deltaJSON{
		{Category: "Dining", Current: 1000, Previous: 2000, Delta: -1000, Direction: "decreased"},
		{Category: "Fuel", Current: 500, Previous: 0, Delta: 500, Direction: "increased"},
	}, body.Deltas)
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "https://cdn.jsdelivr.net")
	assert.True(t, strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rr = serve(srv, req)
	assert.Equal(t, "trace-123", rr.Header().Get("X-Request-ID"))
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct peer", "203.0.113.7:5000", "", "203.0.113.7"},
		{"untrusted peer ignores forwarding", "203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy with junk header", "127.0.0.1:5000", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}

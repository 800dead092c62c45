package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"octo-backend/internal/portfolio/application"
	"octo-backend/internal/portfolio/infrastructure/memory"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	funds := memory.NewFundRepository()
	ledger := memory.NewLedgerRepository()
	reports := memory.NewReportRepository()

	fundService, err := application.NewFundService(funds, ledger, nil)
	if err != nil {
		t.Fatalf("fund service: %v", err)
	}
	ledgerService, err := application.NewLedgerService(funds, ledger, nil)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	reportService, err := application.NewReportService(funds, reports, nil)
	if err != nil {
		t.Fatalf("report service: %v", err)
	}
	summaryService, err := application.NewSummaryService(funds, ledger, reports, decimal.NewFromInt(1), nil)
	if err != nil {
		t.Fatalf("summary service: %v", err)
	}
	handler, err := NewHandler(fundService, ledgerService, reportService, summaryService, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func createTestFund(t *testing.T, handler *Handler) string {
	t.Helper()
	resp := do(t, handler, http.MethodPost, "/api/v1/funds", `{
		"name": "Octo Capital Partners I",
		"manager": "ALT Group",
		"vintage_year": 2024,
		"currency": "eur",
		"commitment": 5000000
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create fund status %d: %s", resp.Code, resp.Body.String())
	}
	var fund struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &fund); err != nil {
		t.Fatalf("decode fund: %v", err)
	}
	if fund.ID == "" {
		t.Fatalf("fund id missing in response: %s", resp.Body.String())
	}
	return fund.ID
}

func TestHandler_CreateAndDetail(t *testing.T) {
	handler := newTestHandler(t)
	fundID := createTestFund(t, handler)

	resp := do(t, handler, http.MethodGet, "/api/v1/funds/"+fundID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("detail status %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Octo Capital Partners I") {
		t.Fatalf("detail body: %s", resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"uncalled"`) {
		t.Fatalf("detail missing position fields: %s", resp.Body.String())
	}
}

func TestHandler_CreateFund_Validation(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(t, handler, http.MethodPost, "/api/v1/funds", `{"currency": "EUR"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing name status %d", resp.Code)
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/funds", `{"name": "x", "currency": "EURO"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad currency status %d", resp.Code)
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/funds", `not json`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad json status %d", resp.Code)
	}
}

func TestHandler_RecordCallAndSummary(t *testing.T) {
	handler := newTestHandler(t)
	fundID := createTestFund(t, handler)

	resp := do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/calls", `{
		"call_number": 1,
		"call_date": "2026-02-09",
		"payment_date": "2026-02-23",
		"amount": 292670,
		"investments": 275139,
		"fund_expenses": 5503,
		"mgmt_fee": 12028
	}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("record call status %d: %s", resp.Code, resp.Body.String())
	}

	resp = do(t, handler, http.MethodGet, "/api/v1/funds/"+fundID+"/summary?as_of=2026-03-01", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("summary status %d: %s", resp.Code, resp.Body.String())
	}
	var summary struct {
		CalledToDate decimal.Decimal `json:"called_to_date"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !summary.CalledToDate.Equal(decimal.RequireFromString("292670")) {
		t.Fatalf("called_to_date %s", summary.CalledToDate)
	}

	resp = do(t, handler, http.MethodGet, "/api/v1/funds/"+fundID+"/summary?as_of=2026-02-01", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("early summary status %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode early summary: %v", err)
	}
	if !summary.CalledToDate.IsZero() {
		t.Fatalf("early called_to_date %s", summary.CalledToDate)
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	handler := newTestHandler(t)
	fundID := createTestFund(t, handler)

	// unknown fund -> 404
	resp := do(t, handler, http.MethodGet, "/api/v1/funds/missing", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown fund status %d", resp.Code)
	}
	// missing amount -> 400 (validator)
	resp = do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/calls", `{"call_number": 1, "call_date": "2026-02-09"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing amount status %d", resp.Code)
	}
	// duplicate sequence -> 409
	body := `{"call_number": 1, "call_date": "2026-02-09", "amount": 100}`
	if resp := do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/calls", body); resp.Code != http.StatusCreated {
		t.Fatalf("first call status %d", resp.Code)
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/calls", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate call status %d", resp.Code)
	}
	// correcting an absent sequence -> 404
	resp = do(t, handler, http.MethodPut, "/api/v1/funds/"+fundID+"/calls/9", `{"call_date": "2026-02-09", "amount": 100}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("correct missing call status %d", resp.Code)
	}
}

func TestHandler_Reports(t *testing.T) {
	handler := newTestHandler(t)
	fundID := createTestFund(t, handler)

	body := `{"year": 2026, "quarter": 1, "nav": 300000, "tvpi": 1.1, "dpi": 0.1, "rvpi": 1.0, "irr": 0.12}`
	resp := do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/reports", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add report status %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/reports", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate report status %d", resp.Code)
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/funds/"+fundID+"/reports", `{"year": 2026, "quarter": 7, "nav": 1}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad quarter status %d", resp.Code)
	}

	resp = do(t, handler, http.MethodGet, "/api/v1/funds/"+fundID+"/summary?as_of=2026-04-15", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("summary status %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"multiples"`) {
		t.Fatalf("summary should carry multiples: %s", resp.Body.String())
	}
}

func TestHandler_StatementPDF(t *testing.T) {
	handler := newTestHandler(t)
	fundID := createTestFund(t, handler)

	resp := do(t, handler, http.MethodGet, "/api/v1/funds/"+fundID+"/statement.pdf", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("statement status %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("content type %s", resp.Header().Get("Content-Type"))
	}
	if resp.Body.Len() == 0 {
		t.Fatalf("pdf empty")
	}
}

func TestHandler_StatusAndDelete(t *testing.T) {
	handler := newTestHandler(t)
	fundID := createTestFund(t, handler)

	resp := do(t, handler, http.MethodPatch, "/api/v1/funds/"+fundID, `{"status": "realized"}`)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("patch status %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(t, handler, http.MethodPatch, "/api/v1/funds/"+fundID, `{"status": "paused"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad status code %d", resp.Code)
	}
	resp = do(t, handler, http.MethodDelete, "/api/v1/funds/"+fundID, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", resp.Code)
	}
	resp = do(t, handler, http.MethodGet, "/api/v1/funds/"+fundID, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("deleted fund status %d", resp.Code)
	}
}

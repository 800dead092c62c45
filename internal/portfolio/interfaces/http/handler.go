package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"octo-backend/internal/audit"
	"octo-backend/internal/portfolio/application"
	portfolio "octo-backend/internal/portfolio/domain"
	"octo-backend/internal/portfolio/interfaces"
)

const dateLayout = "2006-01-02"

// Handler serves fund, ledger, report and summary endpoints.
type Handler struct {
	funds       *application.FundService
	ledger      *application.LedgerService
	reports     *application.ReportService
	summaries   *application.SummaryService
	auditLogger audit.Logger
	validate    *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(funds *application.FundService, ledger *application.LedgerService, reports *application.ReportService, summaries *application.SummaryService, auditLogger audit.Logger) (*Handler, error) {
	if funds == nil || ledger == nil || reports == nil || summaries == nil {
		return nil, errors.New("portfolio handler: nil service")
	}
	return &Handler{
		funds:       funds,
		ledger:      ledger,
		reports:     reports,
		summaries:   summaries,
		auditLogger: auditLogger,
		validate:    validator.New(),
	}, nil
}

// ServeHTTP routes fund requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/funds" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api/v1/funds/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/funds/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fundID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleDetail(w, r, fundID)
		case http.MethodPatch:
			h.handleUpdateStatus(w, r, fundID)
		case http.MethodDelete:
			h.handleDelete(w, r, fundID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "calls" && r.Method == http.MethodPost:
		h.handleRecordCall(w, r, fundID)
	case len(parts) == 2 && parts[1] == "calls" && r.Method == http.MethodGet:
		h.handleListCalls(w, r, fundID)
	case len(parts) == 3 && parts[1] == "calls" && r.Method == http.MethodPut:
		h.handleCorrectCall(w, r, fundID, parts[2])
	case len(parts) == 2 && parts[1] == "distributions" && r.Method == http.MethodPost:
		h.handleRecordDistribution(w, r, fundID)
	case len(parts) == 2 && parts[1] == "distributions" && r.Method == http.MethodGet:
		h.handleListDistributions(w, r, fundID)
	case len(parts) == 3 && parts[1] == "distributions" && r.Method == http.MethodPut:
		h.handleCorrectDistribution(w, r, fundID, parts[2])
	case len(parts) == 2 && parts[1] == "reports" && r.Method == http.MethodPost:
		h.handleAddReport(w, r, fundID)
	case len(parts) == 2 && parts[1] == "reports" && r.Method == http.MethodGet:
		h.handleListReports(w, r, fundID)
	case len(parts) == 2 && parts[1] == "summary" && r.Method == http.MethodGet:
		h.handleSummary(w, r, fundID)
	case len(parts) == 2 && parts[1] == "statement.pdf" && r.Method == http.MethodGet:
		h.handleStatementPDF(w, r, fundID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type createFundRequest struct {
	Name        string          `json:"name" validate:"required"`
	Manager     string          `json:"manager"`
	VintageYear int             `json:"vintage_year"`
	Strategy    string          `json:"strategy"`
	Currency    string          `json:"currency" validate:"required,len=3"`
	Commitment  decimal.Decimal `json:"commitment"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fund, err := h.funds.Create(r.Context(), application.FundInput{
		Name:        req.Name,
		Manager:     req.Manager,
		VintageYear: req.VintageYear,
		Strategy:    req.Strategy,
		Currency:    strings.ToUpper(req.Currency),
		Commitment:  req.Commitment,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, fund)
	h.logAudit(r, "fund.create", "fund", fund.ID, fund.ID, req)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	funds, err := h.funds.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, funds)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request, fundID string) {
	detail, err := h.funds.Detail(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, fundID string) {
	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.funds.UpdateStatus(r.Context(), fundID, req.Status); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "fund.status.update", "fund", fundID, fundID, req)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, fundID string) {
	if err := h.funds.Delete(r.Context(), fundID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "fund.delete", "fund", fundID, fundID, nil)
}

type callRequest struct {
	CallNumber     int              `json:"call_number" validate:"required,min=1"`
	CallDate       string           `json:"call_date" validate:"required"`
	PaymentDate    string           `json:"payment_date"`
	Amount         *decimal.Decimal `json:"amount" validate:"required"`
	Investments    decimal.Decimal  `json:"investments"`
	FundExpenses   decimal.Decimal  `json:"fund_expenses"`
	MgmtFee        decimal.Decimal  `json:"mgmt_fee"`
	GPContribution decimal.Decimal  `json:"gp_contribution"`
}

func (h *Handler) callInput(req callRequest) (application.CallInput, error) {
	callDate, err := time.Parse(dateLayout, req.CallDate)
	if err != nil {
		return application.CallInput{}, fmt.Errorf("invalid call_date: %w", err)
	}
	var paymentDate time.Time
	if req.PaymentDate != "" {
		paymentDate, err = time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			return application.CallInput{}, fmt.Errorf("invalid payment_date: %w", err)
		}
	}
	return application.CallInput{
		CallNumber:     req.CallNumber,
		CallDate:       callDate,
		PaymentDate:    paymentDate,
		Amount:         req.Amount,
		Investments:    req.Investments,
		FundExpenses:   req.FundExpenses,
		MgmtFee:        req.MgmtFee,
		GPContribution: req.GPContribution,
	}, nil
}

func (h *Handler) handleRecordCall(w http.ResponseWriter, r *http.Request, fundID string) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := h.callInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call, err := h.ledger.RecordCall(r.Context(), fundID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, call)
	h.logAudit(r, "ledger.call.record", "capital_call", call.ID, fundID, req)
}

func (h *Handler) handleCorrectCall(w http.ResponseWriter, r *http.Request, fundID, seq string) {
	callNumber, err := strconv.Atoi(seq)
	if err != nil {
		http.Error(w, "invalid call number", http.StatusBadRequest)
		return
	}
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.CallNumber = callNumber
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := h.callInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call, err := h.ledger.CorrectCall(r.Context(), fundID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, call)
	h.logAudit(r, "ledger.call.correct", "capital_call", call.ID, fundID, req)
}

func (h *Handler) handleListCalls(w http.ResponseWriter, r *http.Request, fundID string) {
	calls, err := h.ledger.ListCalls(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, calls)
}

type distributionRequest struct {
	DistNumber int              `json:"dist_number" validate:"required,min=1"`
	DistDate   string           `json:"dist_date" validate:"required"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
	Type       string           `json:"type" validate:"required"`
}

func (h *Handler) distributionInput(req distributionRequest) (application.DistributionInput, error) {
	distDate, err := time.Parse(dateLayout, req.DistDate)
	if err != nil {
		return application.DistributionInput{}, fmt.Errorf("invalid dist_date: %w", err)
	}
	return application.DistributionInput{
		DistNumber: req.DistNumber,
		DistDate:   distDate,
		Amount:     req.Amount,
		Type:       req.Type,
	}, nil
}

func (h *Handler) handleRecordDistribution(w http.ResponseWriter, r *http.Request, fundID string) {
	var req distributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := h.distributionInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dist, err := h.ledger.RecordDistribution(r.Context(), fundID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dist)
	h.logAudit(r, "ledger.distribution.record", "distribution", dist.ID, fundID, req)
}

func (h *Handler) handleCorrectDistribution(w http.ResponseWriter, r *http.Request, fundID, seq string) {
	distNumber, err := strconv.Atoi(seq)
	if err != nil {
		http.Error(w, "invalid distribution number", http.StatusBadRequest)
		return
	}
	var req distributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.DistNumber = distNumber
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := h.distributionInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dist, err := h.ledger.CorrectDistribution(r.Context(), fundID, in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dist)
	h.logAudit(r, "ledger.distribution.correct", "distribution", dist.ID, fundID, req)
}

func (h *Handler) handleListDistributions(w http.ResponseWriter, r *http.Request, fundID string) {
	dists, err := h.ledger.ListDistributions(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dists)
}

type reportRequest struct {
	Year              int             `json:"year" validate:"required,min=1990"`
	Quarter           int             `json:"quarter" validate:"required,min=1,max=4"`
	NAV               decimal.Decimal `json:"nav"`
	TVPI              float64         `json:"tvpi"`
	DPI               float64         `json:"dpi"`
	RVPI              float64         `json:"rvpi"`
	IRR               float64         `json:"irr"`
	CalledToDate      decimal.Decimal `json:"called_to_date"`
	DistributedToDate decimal.Decimal `json:"distributed_to_date"`
}

func (h *Handler) handleAddReport(w http.ResponseWriter, r *http.Request, fundID string) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.reports.Add(r.Context(), fundID, application.ReportInput{
		Year:              req.Year,
		Quarter:           req.Quarter,
		NAV:               req.NAV,
		TVPI:              req.TVPI,
		DPI:               req.DPI,
		RVPI:              req.RVPI,
		IRR:               req.IRR,
		CalledToDate:      req.CalledToDate,
		DistributedToDate: req.DistributedToDate,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, report)
	h.logAudit(r, "report.add", "quarterly_report", report.ID, fundID, req)
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request, fundID string) {
	reports, err := h.reports.ListByFund(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request, fundID string) {
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			http.Error(w, "invalid as_of", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	summary, err := h.summaries.ComputeSummary(r.Context(), fundID, asOf)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleStatementPDF(w http.ResponseWriter, r *http.Request, fundID string) {
	detail, err := h.funds.Detail(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	calls, err := h.ledger.ListCalls(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	dists, err := h.ledger.ListDistributions(r.Context(), fundID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	summary, err := h.summaries.ComputeSummary(r.Context(), fundID, time.Time{})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	data, err := interfaces.BuildFundStatementPDF(detail, calls, dists, summary)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", detail.Fund.Name+"-statement.pdf"))
	_, _ = w.Write(data)
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID, fundID string, payload any) {
	if h.auditLogger == nil {
		return
	}
	var metadata json.RawMessage
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			metadata = data
		}
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		FundID:       fundID,
		Metadata:     metadata,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrFundNotFound),
		errors.Is(err, portfolio.ErrCallNotFound),
		errors.Is(err, portfolio.ErrDistributionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, portfolio.ErrAmountRequired),
		errors.Is(err, portfolio.ErrNegativeAmount),
		errors.Is(err, portfolio.ErrSequenceRequired),
		errors.Is(err, portfolio.ErrInvalidFundStatus),
		errors.Is(err, portfolio.ErrInvalidDistributionType),
		errors.Is(err, portfolio.ErrInvalidQuarter):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, portfolio.ErrDuplicateSequence),
		errors.Is(err, portfolio.ErrDuplicateReport):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/config"
	"github.com/segyhp/library-engine/internal/domain"
	customError "github.com/segyhp/library-engine/pkg/errors"
	"github.com/segyhp/library-engine/pkg/response"
)

// LoanService is the part of the loan ledger the HTTP layer drives
type LoanService interface {
	Borrow(ctx context.Context, userID int64, bookIDs []int64) ([]*domain.Loan, error)
	Return(ctx context.Context, userID int64, bookIDs []int64) (*domain.ReturnResult, error)
	ListOpenLoans(ctx context.Context, userID int64) ([]*domain.Loan, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)
	CountLoans(ctx context.Context, filter domain.LoanFilter) (int64, error)
}

// FineService is the part of the fine ledger the HTTP layer drives
type FineService interface {
	PayFines(ctx context.Context, userID int64, fineIDs []int64) (int64, error)
	List(ctx context.Context, filter domain.FineHistoryFilter) ([]*domain.FineHistory, error)
	Outstanding(ctx context.Context, userID int64) (int64, error)
}

const maxBodyBytes = 64 << 10

type LibraryHandler struct {
	loans     LoanService
	fines     FineService
	validator *validator.Validate
	maxItems  int
	logger    *zap.Logger
}

func NewLibraryHandler(loans LoanService, fines FineService, cfg config.LibraryConfig, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{
		loans:     loans,
		fines:     fines,
		validator: validator.New(),
		maxItems:  cfg.MaxBorrowBook,
		logger:    logger,
	}
}

// Register mounts the library routes on an /api/v1 subrouter
func (h *LibraryHandler) Register(api *mux.Router) {
	api.HandleFunc("/users/{userId}/borrows", h.Borrow).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}/returns", h.Return).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId}/loans", h.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/fines/pay", h.PayFines).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId}/fines/outstanding", h.Outstanding).Methods(http.MethodGet)
	api.HandleFunc("/loans", h.ListLoanHistory).Methods(http.MethodGet)
	api.HandleFunc("/loans/count", h.CountLoans).Methods(http.MethodGet)
	api.HandleFunc("/fine-histories", h.ListFineHistories).Methods(http.MethodGet)
}

// Borrow handles POST /users/{userId}/borrows
func (h *LibraryHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req domain.BorrowReturnRequest
	if !h.decodeBooks(w, r, &req) {
		return
	}

	loans, err := h.loans.Borrow(r.Context(), userID, req.BookIDs())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, domain.BorrowResponse{Loans: loans})
}

// Return handles PUT /users/{userId}/returns
func (h *LibraryHandler) Return(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req domain.BorrowReturnRequest
	if !h.decodeBooks(w, r, &req) {
		return
	}

	result, err := h.loans.Return(r.Context(), userID, req.BookIDs())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, domain.ReturnResponse{Fine: result.Fine})
}

// ListLoans handles GET /users/{userId}/loans
func (h *LibraryHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	loans, err := h.loans.ListOpenLoans(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loans)
}

// PayFines handles PUT /users/{userId}/fines/pay
func (h *LibraryHandler) PayFines(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req domain.PayFinesRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.fines.PayFines(r.Context(), userID, req.FineIDs())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, domain.PayFinesResponse{UpdatedCount: updated})
}

// Outstanding handles GET /users/{userId}/fines/outstanding
func (h *LibraryHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	amount, err := h.fines.Outstanding(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, domain.OutstandingResponse{UserID: userID, Outstanding: amount})
}

// ListLoanHistory handles GET /loans?userId=&bookId=&open=&offset=&limit=
func (h *LibraryHandler) ListLoanHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLoanFilter(r)
	if err != nil {
		response.BadRequest(w, "Invalid query parameters", err)
		return
	}

	loans, err := h.loans.ListLoans(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, loans)
}

// CountLoans handles GET /loans/count?userId=&bookId=&open=
func (h *LibraryHandler) CountLoans(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLoanFilter(r)
	if err != nil {
		response.BadRequest(w, "Invalid query parameters", err)
		return
	}

	count, err := h.loans.CountLoans(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, domain.LoanCountResponse{Count: count})
}

// ListFineHistories handles GET /fine-histories?userId=&hasPaid=&offset=&limit=
func (h *LibraryHandler) ListFineHistories(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFineHistoryFilter(r)
	if err != nil {
		response.BadRequest(w, "Invalid query parameters", err)
		return
	}

	histories, err := h.fines.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, histories)
}

func (h *LibraryHandler) decodeBooks(w http.ResponseWriter, r *http.Request, req *domain.BorrowReturnRequest) bool {
	if !h.decode(w, r, req) {
		return false
	}

	if len(req.BookIDs()) > h.maxItems {
		response.BadRequest(w, "Validation failed",
			fmt.Errorf("books must contain at most %d items", h.maxItems))
		return false
	}

	return true
}

// decode reads at most maxBodyBytes of JSON into dst and validates it
func (h *LibraryHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := response.Decode(r, dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return false
		}
		response.BadRequest(w, "Invalid request body", err)
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return false
	}

	return true
}

func (h *LibraryHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid user ID", customError.ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func (h *LibraryHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := response.StatusFor(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("code", customError.CodeOf(err)),
		zap.String("request_id", response.RequestID(r.Context())),
		zap.String("path", r.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Debug("request rejected", fields...)
	}
	response.Fail(w, err)
}

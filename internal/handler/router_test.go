package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/config"
	"github.com/segyhp/library-engine/internal/domain"
	"github.com/segyhp/library-engine/internal/mocks"
	"github.com/segyhp/library-engine/pkg/response"
)

func newAppRouter(loans *mocks.MockLoanService, checks ...Check) http.Handler {
	cfg := config.LibraryConfig{MaxBorrowBook: 4, MaxDayBorrowBook: 7, FinePerDay: 1000}
	library := NewLibraryHandler(loans, new(mocks.MockFineService), cfg, zap.NewNop())
	health := NewHealthHandler(time.Second)
	for _, check := range checks {
		health.With("dep", check)
	}
	return NewRouter(library, health, zap.NewNop())
}

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		checks         []Check
		setupMock      func(*mocks.MockLoanService)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "unknown route answers JSON 404",
			method:         http.MethodGet,
			path:           "/api/v1/nowhere",
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Route not found",
		},
		{
			name:           "wrong method answers 405",
			method:         http.MethodDelete,
			path:           "/health",
			expectedStatus: http.StatusMethodNotAllowed,
			expectedMsg:    "Method not allowed",
		},
		{
			name:           "liveness at root",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "readiness reports failing dependency",
			method:         http.MethodGet,
			path:           "/health/ready",
			checks:         []Check{func(ctx context.Context) error { return errors.New("down") }},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:   "library API mounted under /api/v1",
			method: http.MethodGet,
			path:   "/api/v1/users/1/loans",
			setupMock: func(m *mocks.MockLoanService) {
				m.On("ListOpenLoans", mock.Anything, int64(1)).Return([]*domain.Loan{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loans := new(mocks.MockLoanService)
			if tt.setupMock != nil {
				tt.setupMock(loans)
			}

			w, env := doRequest(t, newAppRouter(loans, tt.checks...), tt.method, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedMsg != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.expectedMsg, env.Message)
			}
			loans.AssertExpectations(t)
		})
	}
}

func TestNewRouter_AssignsRequestID(t *testing.T) {
	router := newAppRouter(new(mocks.MockLoanService))

	w, _ := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get(response.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(response.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(response.RequestIDHeader))
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// newTestContext builds an echo context for method and target with an
// optional JSON body
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// setupAuthContext stores userID on the request as the auth middleware does
func setupAuthContext(c echo.Context, userID int32) {
	c.SetRequest(c.Request().WithContext(middleware.WithUserID(c.Request().Context(), userID)))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	return problem
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"transaction not found", domain.ErrTransactionNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{"wrapped template not found", fmt.Errorf("load: %w", domain.ErrTemplateNotFound), http.StatusNotFound, ErrorTypeNotFound},
		{"validation", domain.ErrInvalidAmount, http.StatusBadRequest, ErrorTypeValidation},
		{"unknown frequency", &domain.UnknownFrequencyError{Frequency: "hourly"}, http.StatusBadRequest, ErrorTypeValidation},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, ErrorTypeForbidden},
		{"share exists", domain.ErrShareExists, http.StatusConflict, ErrorTypeConflict},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict, ErrorTypeConflict},
		{"storage", domain.NewStorageError("list", fmt.Errorf("connection refused")), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/api/v1/things", "")

			if err := respondServiceError(c, tt.err, "load things"); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			problem := decodeProblem(t, rec)
			if problem.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, problem.Type)
			}
			if problem.Instance != "/api/v1/things" {
				t.Errorf("Expected instance /api/v1/things, got %s", problem.Instance)
			}
		})
	}
}

func TestRespondServiceError_HidesInternalDetail(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/v1/things", "")

	_ = respondServiceError(c, fmt.Errorf("password=hunter2"), "load things")

	problem := decodeProblem(t, rec)
	if problem.Detail != "Failed to load things" {
		t.Errorf("Expected generic detail, got %q", problem.Detail)
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw    string
		wantID int32
		wantOK bool
	}{
		{"12", 12, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"99999999999", 0, false},
	}

	for _, tt := range tests {
		c, _ := newTestContext(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(tt.raw)

		id, ok := parseIDParam(c, "id")
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("parseIDParam(%q) = (%d, %v), want (%d, %v)", tt.raw, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestParseOptionalUserID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/", "")
	if id, ok := parseOptionalUserID(c); id != nil || !ok {
		t.Errorf("Expected (nil, true) without userId, got (%v, %v)", id, ok)
	}

	c, _ = newTestContext(http.MethodGet, "/?userId=7", "")
	if id, ok := parseOptionalUserID(c); !ok || id == nil || *id != 7 {
		t.Errorf("Expected userId 7, got (%v, %v)", id, ok)
	}

	c, _ = newTestContext(http.MethodGet, "/?userId=me", "")
	if _, ok := parseOptionalUserID(c); ok {
		t.Error("Expected malformed userId to be rejected")
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/service"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type templateFixture struct {
	handler      *RecurringTemplateHandler
	templates    *testutil.MockRecurringTemplateRepository
	transactions *testutil.MockTransactionRepository
}

func setupTemplateHandler() *templateFixture {
	templates := testutil.NewMockRecurringTemplateRepository()
	transactions := testutil.NewMockTransactionRepository()
	store := testutil.NewMockOccurrenceStore(transactions, templates)

	materializer := service.NewMaterializer(templates, store, service.NewRecurrenceEngine(), zerolog.Nop())
	materializer.SetClock(testutil.FixedClock(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)))

	return &templateFixture{
		handler:      NewRecurringTemplateHandler(service.NewRecurringTemplateService(templates, materializer)),
		templates:    templates,
		transactions: transactions,
	}
}

func addRentTemplate(repo *testutil.MockRecurringTemplateRepository, userID int32) *domain.RecurringTemplate {
	return repo.AddTemplate(&domain.RecurringTemplate{
		UserID:      userID,
		Type:        domain.TransactionTypeExpense,
		Amount:      decimal.NewFromInt(1000),
		Category:    "Housing",
		Description: "Rent",
		Frequency:   domain.FrequencyMonthly,
		StartDate:   testutil.Date(2024, 1, 15),
	})
}

func TestCreateTemplate_MaterializesDueOccurrence(t *testing.T) {
	f := setupTemplateHandler()

	body := `{"type": "expense", "amount": "1000", "category": "Housing", "description": "Rent", "frequency": "Monthly", "startDate": "2024-01-15"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/recurring-templates", body)
	setupAuthContext(c, 1)

	if err := f.handler.CreateTemplate(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TemplateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Frequency != "monthly" {
		t.Errorf("Expected normalized frequency 'monthly', got %s", response.Frequency)
	}
	if response.LastGeneratedDate == nil || *response.LastGeneratedDate != "2024-02-15" {
		t.Errorf("Expected lastGeneratedDate 2024-02-15, got %v", response.LastGeneratedDate)
	}

	txns := f.transactions.All()
	if len(txns) != 1 {
		t.Fatalf("Expected 1 materialized transaction, got %d", len(txns))
	}
	if !txns[0].TransactionDate.Equal(testutil.Date(2024, 2, 15)) {
		t.Errorf("Expected occurrence on 2024-02-15, got %s", txns[0].TransactionDate)
	}
}

func TestCreateTemplate_UnknownFrequency(t *testing.T) {
	f := setupTemplateHandler()

	body := `{"type": "expense", "amount": "10", "category": "Misc", "frequency": "quarterly", "startDate": "2024-01-01"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/recurring-templates", body)
	setupAuthContext(c, 1)

	_ = f.handler.CreateTemplate(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if len(f.templates.Templates) != 0 {
		t.Error("Expected no template to be stored")
	}
}

func TestCreateTemplate_EndBeforeStart(t *testing.T) {
	f := setupTemplateHandler()

	body := `{"type": "expense", "amount": "10", "category": "Misc", "frequency": "weekly", "startDate": "2024-05-01", "endDate": "2024-04-01"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/recurring-templates", body)
	setupAuthContext(c, 1)

	_ = f.handler.CreateTemplate(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateTemplate_MalformedStartDate(t *testing.T) {
	f := setupTemplateHandler()

	body := `{"type": "expense", "amount": "10", "category": "Misc", "frequency": "weekly", "startDate": "tomorrow"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/recurring-templates", body)
	setupAuthContext(c, 1)

	_ = f.handler.CreateTemplate(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	problem := decodeProblem(t, rec)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "startDate" {
		t.Errorf("Expected startDate field error, got %+v", problem.Errors)
	}
}

func TestListTemplates_OnlyOwn(t *testing.T) {
	f := setupTemplateHandler()
	addRentTemplate(f.templates, 1)
	addRentTemplate(f.templates, 2)

	c, rec := newTestContext(http.MethodGet, "/api/v1/recurring-templates", "")
	setupAuthContext(c, 1)

	if err := f.handler.ListTemplates(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var response []TemplateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 || response[0].UserID != 1 {
		t.Errorf("Expected only the user's template, got %+v", response)
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	f := setupTemplateHandler()
	other := addRentTemplate(f.templates, 2)

	c, rec := newTestContext(http.MethodGet, "/api/v1/recurring-templates/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, 1)

	_ = f.handler.GetTemplate(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for template %d, got %d", other.ID, rec.Code)
	}
}

func TestUpdateTemplate_Success(t *testing.T) {
	f := setupTemplateHandler()
	addRentTemplate(f.templates, 1)

	body := `{"type": "expense", "amount": "1200", "category": "Housing", "description": "Rent", "frequency": "monthly", "startDate": "2024-01-15", "endDate": "2024-12-15"}`
	c, rec := newTestContext(http.MethodPut, "/api/v1/recurring-templates/1", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, 1)

	if err := f.handler.UpdateTemplate(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TemplateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Amount != "1200.00" {
		t.Errorf("Expected amount 1200.00, got %s", response.Amount)
	}
	if response.EndDate == nil || *response.EndDate != "2024-12-15" {
		t.Errorf("Expected endDate 2024-12-15, got %v", response.EndDate)
	}
}

func TestDeleteTemplate_KeepsTransactions(t *testing.T) {
	f := setupTemplateHandler()
	tmpl := addRentTemplate(f.templates, 1)
	f.transactions.AddTransaction(&domain.Transaction{
		UserID:          1,
		Type:            domain.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(1000),
		Category:        "Housing",
		Description:     "Rent",
		TransactionDate: testutil.Date(2024, 2, 15),
		TemplateID:      &tmpl.ID,
	})

	c, rec := newTestContext(http.MethodDelete, "/api/v1/recurring-templates/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContext(c, 1)

	if err := f.handler.DeleteTemplate(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if f.templates.Get(tmpl.ID) != nil {
		t.Error("Expected template to be deleted")
	}
	if len(f.transactions.All()) != 1 {
		t.Error("Expected materialized transaction to survive")
	}
}

func TestMaterialize_CreatesOnePerRun(t *testing.T) {
	f := setupTemplateHandler()
	addRentTemplate(f.templates, 1)

	for run, wantCreated := range []int{1, 1, 0} {
		c, rec := newTestContext(http.MethodPost, "/api/v1/recurring-templates/materialize", "")
		setupAuthContext(c, 1)

		if err := f.handler.Materialize(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}

		var response MaterializeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.Created != wantCreated {
			t.Errorf("Run %d: expected %d created, got %d", run, wantCreated, response.Created)
		}
		if len(response.Transactions) != wantCreated {
			t.Errorf("Run %d: expected %d transactions in response, got %d", run, wantCreated, len(response.Transactions))
		}
	}

	if len(f.transactions.All()) != 2 {
		t.Errorf("Expected occurrences for February and March, got %d", len(f.transactions.All()))
	}
}

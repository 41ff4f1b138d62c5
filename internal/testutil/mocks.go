package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/ledgerly/ledgerly-backend/internal/domain"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/util"
	"github.com/dafibh/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// ErrMock is returned by mocks configured to fail
var ErrMock = errors.New("mock failure")

// FixedClock returns a clock that always reports t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Date builds a UTC date
func Date(year int, month time.Month, day int) time.Time {
	return util.Date(year, month, day)
}

// Int32Ptr returns a pointer to v
func Int32Ptr(v int32) *int32 {
	return &v
}

// StringPtr returns a pointer to v
func StringPtr(v string) *string {
	return &v
}

// TimePtr returns a pointer to v
func TimePtr(v time.Time) *time.Time {
	return &v
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mu       sync.Mutex
	Users    map[int32]*domain.User
	NextID   int32
	GetErr   error
	CreateFn func(auth0ID, email string, name *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:  make(map[int32]*domain.User),
		NextID: 1,
	}
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.NextID
	}
	if user.ID >= m.NextID {
		m.NextID = user.ID + 1
	}
	if user.Currency == "" {
		user.Currency = domain.DefaultCurrency
	}
	m.Users[user.ID] = user
	return user
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(_ context.Context, id int32) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(_ context.Context, auth0ID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.Users {
		if user.Auth0ID == auth0ID {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email, ignoring case
func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.Users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name)
	}
	if user, err := m.GetByAuth0ID(ctx, auth0ID); err == nil {
		return user, nil
	}
	return m.AddUser(&domain.User{Auth0ID: auth0ID, Email: email, Name: name}), nil
}

// UpdatePreferences stores new display preferences
func (m *MockUserRepository) UpdatePreferences(_ context.Context, id int32, prefs domain.UserPreferences) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Currency = prefs.Currency
	user.DarkModeEnabled = prefs.DarkModeEnabled
	return user, nil
}

// ListAllIDs returns every user id in ascending order
func (m *MockUserRepository) ListAllIDs(_ context.Context) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int32, 0, len(m.Users))
	for id := range m.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository.
// It also serves domain.SummaryRepository aggregations through MockSummaryRepository.
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions map[int32]*domain.Transaction
	NextID       int32
	CreateErr    error
	ListErr      error
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) *domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(transaction)
}

func (m *MockTransactionRepository) insert(transaction *domain.Transaction) *domain.Transaction {
	stored := *transaction
	if stored.ID == 0 {
		stored.ID = m.NextID
	}
	if stored.ID >= m.NextID {
		m.NextID = stored.ID + 1
	}
	stored.TransactionDate = util.TruncateToDate(stored.TransactionDate)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = stored.CreatedAt
	m.Transactions[stored.ID] = &stored
	out := stored
	return &out
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(_ context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.insert(transaction), nil
}

// GetByID retrieves a transaction by ID
func (m *MockTransactionRepository) GetByID(_ context.Context, id int32) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.Transactions[id]; ok {
		out := *txn
		return &out, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// List filters, sorts and paginates the transactions of userIDs
func (m *MockTransactionRepository) List(_ context.Context, userIDs []int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	search := strings.ToLower(filters.Search)
	var matched []*domain.Transaction
	for _, txn := range m.sorted(userIDs) {
		if filters.Month != "" && util.MonthKey(txn.TransactionDate) != filters.Month {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(txn.Description), search) &&
			!strings.Contains(strings.ToLower(txn.Category), search) {
			continue
		}
		matched = append(matched, txn)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filters.Descending {
			a, b = b, a
		}
		switch filters.SortBy {
		case domain.SortByAmount:
			return a.Amount.LessThan(b.Amount)
		case domain.SortByCategory:
			return a.Category < b.Category
		case domain.SortByType:
			return a.Type < b.Type
		default:
			return a.TransactionDate.Before(b.TransactionDate)
		}
	})

	page, pageSize := filters.Page, filters.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}
	total := int64(len(matched))
	start := int64((page - 1) * pageSize)
	end := start + int64(pageSize)
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]*domain.Transaction, 0, end-start)
	for _, txn := range matched[start:end] {
		out := *txn
		data = append(data, &out)
	}
	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Update replaces the editable fields of a transaction
func (m *MockTransactionRepository) Update(_ context.Context, id int32, data *domain.UpdateTransactionData) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.Transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	txn.Type = data.Type
	txn.Amount = data.Amount
	txn.Category = data.Category
	txn.Description = data.Description
	txn.TransactionDate = util.TruncateToDate(data.TransactionDate)
	txn.UpdatedAt = time.Now()
	out := *txn
	return &out, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(_ context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// ListByMonth returns the transactions of userIDs in month, oldest first
func (m *MockTransactionRepository) ListByMonth(_ context.Context, userIDs []int32, month string) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Transaction, 0)
	for _, txn := range m.sorted(userIDs) {
		if util.MonthKey(txn.TransactionDate) == month {
			out := *txn
			result = append(result, &out)
		}
	}
	return result, nil
}

// All returns every stored transaction ordered by date then id
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(nil)
}

// sorted returns stored transactions of userIDs (all when nil) by date then id.
// Callers hold the lock.
func (m *MockTransactionRepository) sorted(userIDs []int32) []*domain.Transaction {
	allowed := make(map[int32]bool, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = true
	}
	result := make([]*domain.Transaction, 0, len(m.Transactions))
	for _, txn := range m.Transactions {
		if userIDs != nil && !allowed[txn.UserID] {
			continue
		}
		result = append(result, txn)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].TransactionDate.Before(result[j].TransactionDate)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// MockSummaryRepository aggregates the transactions of a MockTransactionRepository
type MockSummaryRepository struct {
	Transactions *MockTransactionRepository
	// FailMonths makes both aggregations fail for the listed months
	FailMonths map[string]bool
	// Calls records the months asked for, in order
	Calls []string
	mu    sync.Mutex
}

// NewMockSummaryRepository creates a MockSummaryRepository over transactions
func NewMockSummaryRepository(transactions *MockTransactionRepository) *MockSummaryRepository {
	return &MockSummaryRepository{
		Transactions: transactions,
		FailMonths:   make(map[string]bool),
	}
}

func (m *MockSummaryRepository) record(month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, month)
	if m.FailMonths[month] {
		return fmt.Errorf("summary for %s: %w", month, ErrMock)
	}
	return nil
}

// MonthlySummary returns income and expense totals of userIDs in month
func (m *MockSummaryRepository) MonthlySummary(ctx context.Context, userIDs []int32, month string) (*domain.MonthlySummary, error) {
	if err := m.record(month); err != nil {
		return nil, err
	}
	txns, err := m.Transactions.ListByMonth(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	summary := &domain.MonthlySummary{TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero}
	for _, txn := range txns {
		if txn.Type == domain.TransactionTypeIncome {
			summary.TotalIncome = summary.TotalIncome.Add(txn.Amount)
		} else {
			summary.TotalExpenses = summary.TotalExpenses.Add(txn.Amount)
		}
	}
	return summary, nil
}

// CategoryBreakdown returns expense totals per category, largest first
func (m *MockSummaryRepository) CategoryBreakdown(ctx context.Context, userIDs []int32, month string) ([]domain.CategoryTotal, error) {
	if err := m.record(month); err != nil {
		return nil, err
	}
	txns, err := m.Transactions.ListByMonth(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.Type == domain.TransactionTypeExpense {
			sums[txn.Category] = sums[txn.Category].Add(txn.Amount)
		}
	}
	result := make([]domain.CategoryTotal, 0, len(sums))
	for category, amount := range sums {
		result = append(result, domain.CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// MockRecurringTemplateRepository is a mock implementation of domain.RecurringTemplateRepository
type MockRecurringTemplateRepository struct {
	mu        sync.Mutex
	Templates map[int32]*domain.RecurringTemplate
	NextID    int32
	ListErr   error
}

// NewMockRecurringTemplateRepository creates a new MockRecurringTemplateRepository
func NewMockRecurringTemplateRepository() *MockRecurringTemplateRepository {
	return &MockRecurringTemplateRepository{
		Templates: make(map[int32]*domain.RecurringTemplate),
		NextID:    1,
	}
}

// AddTemplate adds a template to the mock repository (helper for tests)
func (m *MockRecurringTemplateRepository) AddTemplate(template *domain.RecurringTemplate) *domain.RecurringTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(template)
}

func (m *MockRecurringTemplateRepository) insert(template *domain.RecurringTemplate) *domain.RecurringTemplate {
	stored := *template
	if stored.ID == 0 {
		stored.ID = m.NextID
	}
	if stored.ID >= m.NextID {
		m.NextID = stored.ID + 1
	}
	m.Templates[stored.ID] = &stored
	return copyTemplate(&stored)
}

func copyTemplate(t *domain.RecurringTemplate) *domain.RecurringTemplate {
	out := *t
	if t.EndDate != nil {
		end := *t.EndDate
		out.EndDate = &end
	}
	if t.LastGeneratedDate != nil {
		last := *t.LastGeneratedDate
		out.LastGeneratedDate = &last
	}
	return &out
}

// Create creates a new template
func (m *MockRecurringTemplateRepository) Create(_ context.Context, template *domain.RecurringTemplate) (*domain.RecurringTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(template), nil
}

// GetByID retrieves one of the user's templates
func (m *MockRecurringTemplateRepository) GetByID(_ context.Context, userID int32, id int32) (*domain.RecurringTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Templates[id]; ok && t.UserID == userID {
		return copyTemplate(t), nil
	}
	return nil, domain.ErrTemplateNotFound
}

// Get returns a stored template regardless of owner (helper for tests)
func (m *MockRecurringTemplateRepository) Get(id int32) *domain.RecurringTemplate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Templates[id]; ok {
		return copyTemplate(t)
	}
	return nil
}

// ListByUser returns the user's templates ordered by id
func (m *MockRecurringTemplateRepository) ListByUser(_ context.Context, userID int32) ([]*domain.RecurringTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.list(func(t *domain.RecurringTemplate) bool { return t.UserID == userID }), nil
}

// ListStartedBy returns templates with a start date on or before asOf
func (m *MockRecurringTemplateRepository) ListStartedBy(_ context.Context, asOf time.Time, userID *int32) ([]*domain.RecurringTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.list(func(t *domain.RecurringTemplate) bool {
		if userID != nil && t.UserID != *userID {
			return false
		}
		return !t.StartDate.After(asOf)
	}), nil
}

func (m *MockRecurringTemplateRepository) list(keep func(*domain.RecurringTemplate) bool) []*domain.RecurringTemplate {
	result := make([]*domain.RecurringTemplate, 0)
	for _, t := range m.Templates {
		if keep(t) {
			result = append(result, copyTemplate(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Update replaces the editable fields of one of the user's templates
func (m *MockRecurringTemplateRepository) Update(_ context.Context, userID int32, id int32, input *domain.RecurringTemplateInput) (*domain.RecurringTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Templates[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTemplateNotFound
	}
	t.Type = input.Type
	t.Amount = input.Amount
	t.Category = input.Category
	t.Description = input.Description
	t.Frequency = input.Frequency
	t.StartDate = input.StartDate
	t.EndDate = input.EndDate
	t.UpdatedAt = time.Now()
	return copyTemplate(t), nil
}

// Delete removes one of the user's templates
func (m *MockRecurringTemplateRepository) Delete(_ context.Context, userID int32, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Templates[id]
	if !ok || t.UserID != userID {
		return domain.ErrTemplateNotFound
	}
	delete(m.Templates, id)
	return nil
}

// MockOccurrenceStore is a mock implementation of domain.OccurrenceStore.
// Writes made inside a unit of work are applied only when fn succeeds.
type MockOccurrenceStore struct {
	Transactions *MockTransactionRepository
	Templates    *MockRecurringTemplateRepository
	// FailCreateFor makes CreateTransaction fail for the listed template ids
	FailCreateFor map[int32]bool
	// FailAdvance makes AdvanceLastGenerated fail
	FailAdvance bool
	// Units counts started units of work
	Units int
	mu    sync.Mutex
}

// NewMockOccurrenceStore creates a MockOccurrenceStore writing to the given mocks
func NewMockOccurrenceStore(transactions *MockTransactionRepository, templates *MockRecurringTemplateRepository) *MockOccurrenceStore {
	return &MockOccurrenceStore{
		Transactions:  transactions,
		Templates:     templates,
		FailCreateFor: make(map[int32]bool),
	}
}

type mockOccurrenceTx struct {
	store    *MockOccurrenceStore
	created  []*domain.Transaction
	advanced map[int32]time.Time
}

// WithinOccurrenceTx runs fn and commits its writes when it returns nil
func (s *MockOccurrenceStore) WithinOccurrenceTx(_ context.Context, fn func(tx domain.OccurrenceTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Units++

	tx := &mockOccurrenceTx{store: s, advanced: make(map[int32]time.Time)}
	if err := fn(tx); err != nil {
		return err
	}

	for _, txn := range tx.created {
		stored := s.Transactions.AddTransaction(txn)
		*txn = *stored
	}
	s.Templates.mu.Lock()
	for id, date := range tx.advanced {
		if t, ok := s.Templates.Templates[id]; ok {
			d := date
			t.LastGeneratedDate = &d
		}
	}
	s.Templates.mu.Unlock()
	return nil
}

func (tx *mockOccurrenceTx) OccurrenceExists(_ context.Context, key domain.OccurrenceKey) (bool, error) {
	matches := func(txn *domain.Transaction) bool {
		if txn.UserID != key.UserID || txn.Type != key.Type || txn.Category != key.Category {
			return false
		}
		if !txn.Amount.Equal(key.Amount) || !txn.TransactionDate.Equal(util.TruncateToDate(key.Date)) {
			return false
		}
		if txn.TemplateID != nil && *txn.TemplateID == key.TemplateID {
			return true
		}
		return strings.HasPrefix(txn.Description, key.DescriptionPrefix)
	}
	for _, txn := range tx.created {
		if matches(txn) {
			return true, nil
		}
	}
	for _, txn := range tx.store.Transactions.All() {
		if matches(txn) {
			return true, nil
		}
	}
	return false, nil
}

func (tx *mockOccurrenceTx) CreateTransaction(_ context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if transaction.TemplateID != nil && tx.store.FailCreateFor[*transaction.TemplateID] {
		return nil, ErrMock
	}
	staged := *transaction
	tx.created = append(tx.created, &staged)
	return &staged, nil
}

func (tx *mockOccurrenceTx) AdvanceLastGenerated(_ context.Context, templateID int32, date time.Time) error {
	if tx.store.FailAdvance {
		return ErrMock
	}
	tx.advanced[templateID] = date
	return nil
}

// MockShareRepository is a mock implementation of domain.ShareRepository
type MockShareRepository struct {
	mu      sync.Mutex
	Shares  map[int32]*domain.DataShare
	NextID  int32
	ListErr error
	// ListCalls counts ListSharedWith calls
	ListCalls int
}

// NewMockShareRepository creates a new MockShareRepository
func NewMockShareRepository() *MockShareRepository {
	return &MockShareRepository{
		Shares: make(map[int32]*domain.DataShare),
		NextID: 1,
	}
}

// Create creates a share, rejecting duplicates for the same pair
func (m *MockShareRepository) Create(_ context.Context, share *domain.DataShare) (*domain.DataShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Shares {
		if s.OwnerUserID == share.OwnerUserID && s.SharedWithUserID == share.SharedWithUserID {
			return nil, domain.ErrShareExists
		}
	}
	stored := *share
	stored.ID = m.NextID
	m.NextID++
	stored.CreatedAt = time.Now()
	m.Shares[stored.ID] = &stored
	out := stored
	return &out, nil
}

// UpdatePermission changes the level of one of the owner's shares
func (m *MockShareRepository) UpdatePermission(_ context.Context, ownerUserID int32, id int32, level domain.PermissionLevel) (*domain.DataShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Shares[id]
	if !ok || s.OwnerUserID != ownerUserID {
		return nil, domain.ErrShareNotFound
	}
	s.PermissionLevel = level
	out := *s
	return &out, nil
}

// Delete removes one of the owner's shares
func (m *MockShareRepository) Delete(_ context.Context, ownerUserID int32, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Shares[id]
	if !ok || s.OwnerUserID != ownerUserID {
		return domain.ErrShareNotFound
	}
	delete(m.Shares, id)
	return nil
}

// ListByOwner returns the shares the owner granted
func (m *MockShareRepository) ListByOwner(_ context.Context, ownerUserID int32) ([]*domain.DataShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(s *domain.DataShare) bool { return s.OwnerUserID == ownerUserID }), nil
}

// ListSharedWith returns the shares granted to a user
func (m *MockShareRepository) ListSharedWith(_ context.Context, sharedWithUserID int32) ([]*domain.DataShare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.list(func(s *domain.DataShare) bool { return s.SharedWithUserID == sharedWithUserID }), nil
}

func (m *MockShareRepository) list(keep func(*domain.DataShare) bool) []*domain.DataShare {
	result := make([]*domain.DataShare, 0)
	for _, s := range m.Shares {
		if keep(s) {
			out := *s
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetPermission returns the level granted by owner to sharedWith
func (m *MockShareRepository) GetPermission(_ context.Context, ownerUserID, sharedWithUserID int32) (domain.PermissionLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Shares {
		if s.OwnerUserID == ownerUserID && s.SharedWithUserID == sharedWithUserID {
			return s.PermissionLevel, nil
		}
	}
	return "", domain.ErrShareNotFound
}

// MockBillRepository is a mock implementation of domain.BillRepository
type MockBillRepository struct {
	mu      sync.Mutex
	Bills   map[int32]*domain.Bill
	NextID  int32
	ListErr error
}

// NewMockBillRepository creates a new MockBillRepository
func NewMockBillRepository() *MockBillRepository {
	return &MockBillRepository{
		Bills:  make(map[int32]*domain.Bill),
		NextID: 1,
	}
}

// AddBill adds a bill to the mock repository (helper for tests)
func (m *MockBillRepository) AddBill(bill *domain.Bill) *domain.Bill {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *bill
	if stored.ID == 0 {
		stored.ID = m.NextID
	}
	if stored.ID >= m.NextID {
		m.NextID = stored.ID + 1
	}
	m.Bills[stored.ID] = &stored
	out := stored
	return &out
}

// Create creates a new bill
func (m *MockBillRepository) Create(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	return m.AddBill(bill), nil
}

// GetByID retrieves one of the user's bills
func (m *MockBillRepository) GetByID(_ context.Context, userID int32, id int32) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.Bills[id]; ok && b.UserID == userID {
		out := *b
		return &out, nil
	}
	return nil, domain.ErrBillNotFound
}

// Update replaces one of the user's bills
func (m *MockBillRepository) Update(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Bills[bill.ID]
	if !ok || existing.UserID != bill.UserID {
		return nil, domain.ErrBillNotFound
	}
	stored := *bill
	stored.CreatedAt = existing.CreatedAt
	m.Bills[bill.ID] = &stored
	out := stored
	return &out, nil
}

// SetPaid marks one of the user's bills paid or unpaid
func (m *MockBillRepository) SetPaid(_ context.Context, userID int32, id int32, isPaid bool) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Bills[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrBillNotFound
	}
	b.IsPaid = isPaid
	out := *b
	return &out, nil
}

// Delete removes one of the user's bills
func (m *MockBillRepository) Delete(_ context.Context, userID int32, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Bills[id]
	if !ok || b.UserID != userID {
		return domain.ErrBillNotFound
	}
	delete(m.Bills, id)
	return nil
}

// ListByUser orders by due date, unpaid first on the same day
func (m *MockBillRepository) ListByUser(_ context.Context, userID int32) ([]*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.list(func(b *domain.Bill) bool { return b.UserID == userID }), nil
}

// ListUnpaidDueBetween returns unpaid bills due within [from, to]
func (m *MockBillRepository) ListUnpaidDueBetween(_ context.Context, userID int32, from, to time.Time) ([]*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.list(func(b *domain.Bill) bool {
		return b.UserID == userID && !b.IsPaid && !b.DueDate.Before(from) && !b.DueDate.After(to)
	}), nil
}

func (m *MockBillRepository) list(keep func(*domain.Bill) bool) []*domain.Bill {
	result := make([]*domain.Bill, 0)
	for _, b := range m.Bills {
		if keep(b) {
			out := *b
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.IsPaid != b.IsPaid {
			return !a.IsPaid
		}
		return a.ID < b.ID
	})
	return result
}

// MockReportStore is an in-memory domain.ReportStore
type MockReportStore struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	SaveErr    error
	PresignErr error
}

// NewMockReportStore creates a new MockReportStore
func NewMockReportStore() *MockReportStore {
	return &MockReportStore{Objects: make(map[string][]byte)}
}

// Save stores body under key
func (m *MockReportStore) Save(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Objects[key] = append([]byte(nil), body...)
	return nil
}

// PresignedURL returns a fake download URL for key
func (m *MockReportStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	return fmt.Sprintf("https://reports.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	UserID int32
	Event  websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records event for userID
func (m *MockEventPublisher) Publish(userID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{UserID: userID, Event: event})
}

// Types returns the names of recorded events in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		names = append(names, e.Event.Type)
	}
	return names
}

package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	user.ID = uuid.New()
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

func (m *MockUserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	user, ok := m.Users[auth0ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces    map[int32]*domain.Workspace
	ByUserID      map[uuid.UUID]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces:    make(map[int32]*domain.Workspace),
		ByUserID:      make(map[uuid.UUID]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	if ws, ok := m.ByUserID[userID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetAll() ([]*domain.Workspace, error) {
	result := make([]*domain.Workspace, 0, len(m.Workspaces))
	for _, ws := range m.Workspaces {
		result = append(result, ws)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockWorkspaceRepository) Create(ws *domain.Workspace) (*domain.Workspace, error) {
	ws.ID = m.NextID
	m.NextID++
	m.Workspaces[ws.ID] = ws
	m.ByUserID[ws.UserID] = ws
	return ws, nil
}

// AddWorkspace adds a workspace keyed by its owner's Auth0 ID (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(ws *domain.Workspace, auth0ID string) {
	m.Workspaces[ws.ID] = ws
	m.ByUserID[ws.UserID] = ws
	if auth0ID != "" {
		m.ByUserAuth0ID[auth0ID] = ws
	}
	if ws.ID >= m.NextID {
		m.NextID = ws.ID + 1
	}
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts map[int32]*domain.Account
	NextID   int32
	CreateFn func(account *domain.Account) (*domain.Account, error)
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[int32]*domain.Account),
		NextID:   1,
	}
}

func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(account)
	}
	account.ID = m.NextID
	m.NextID++
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.Accounts[account.ID] = account
	return account, nil
}

func (m *MockAccountRepository) GetByID(workspaceID int32, id int32) (*domain.Account, error) {
	account, ok := m.Accounts[id]
	if !ok || account.WorkspaceID != workspaceID || account.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (m *MockAccountRepository) GetAllByWorkspace(workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	var result []*domain.Account
	for _, a := range m.Accounts {
		if a.WorkspaceID != workspaceID {
			continue
		}
		if a.DeletedAt != nil && !includeArchived {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockAccountRepository) Update(workspaceID int32, id int32, data *domain.UpdateAccountData) (*domain.Account, error) {
	account, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	account.Name = data.Name
	account.CashAdjustment = data.CashAdjustment
	account.UpdatedAt = time.Now()
	return account, nil
}

func (m *MockAccountRepository) SoftDelete(workspaceID int32, id int32) error {
	account, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	account.DeletedAt = &now
	return nil
}

// AddAccount adds an account to the mock repository (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	m.Accounts[account.ID] = account
	if account.ID >= m.NextID {
		m.NextID = account.ID + 1
	}
}

// MockLedgerRepository is a mock implementation of domain.LedgerRepository
type MockLedgerRepository struct {
	Entries map[int32]*domain.LedgerEntry
	NextID  int32

	SummariesFn func(workspaceID int32, through time.Time) ([]*domain.EntrySummary, error)
}

// NewMockLedgerRepository creates a new MockLedgerRepository
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		Entries: make(map[int32]*domain.LedgerEntry),
		NextID:  1,
	}
}

func (m *MockLedgerRepository) Create(entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	entry.ID = m.NextID
	m.NextID++
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.Entries[entry.ID] = entry
	return entry, nil
}

func (m *MockLedgerRepository) GetByID(workspaceID int32, id int32) (*domain.LedgerEntry, error) {
	entry, ok := m.Entries[id]
	if !ok || entry.WorkspaceID != workspaceID || entry.DeletedAt != nil {
		return nil, domain.ErrEntryNotFound
	}
	return entry, nil
}

func (m *MockLedgerRepository) GetByWorkspace(workspaceID int32, filters *domain.EntryFilters) (*domain.PaginatedEntries, error) {
	var all []*domain.LedgerEntry
	for _, e := range m.Entries {
		if e.WorkspaceID != workspaceID || e.DeletedAt != nil {
			continue
		}
		if filters.AccountID != nil && e.AccountID != *filters.AccountID {
			continue
		}
		if filters.Kind != nil && e.Kind != *filters.Kind {
			continue
		}
		if filters.Category != nil && e.Category != *filters.Category {
			continue
		}
		if filters.StartDate != nil && e.EntryDate.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && e.EntryDate.After(*filters.EndDate) {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntryDate.After(all[j].EntryDate) })

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}

	total := int64(len(all))
	start := int((page - 1) * pageSize)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}

	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedEntries{
		Data:       all[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (m *MockLedgerRepository) Update(workspaceID int32, id int32, data *domain.UpdateEntryData) (*domain.LedgerEntry, error) {
	entry, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	entry.AccountID = data.AccountID
	entry.Category = data.Category
	entry.SubCategory = data.SubCategory
	entry.Description = data.Description
	entry.Amount = data.Amount
	entry.EntryDate = data.EntryDate
	entry.Notes = data.Notes
	entry.UpdatedAt = time.Now()
	return entry, nil
}

func (m *MockLedgerRepository) SoftDelete(workspaceID int32, id int32) error {
	entry, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	entry.DeletedAt = &now
	return nil
}

func (m *MockLedgerRepository) CreateTransferPair(fromEntry, toEntry *domain.LedgerEntry) (*domain.TransferResult, error) {
	from, _ := m.Create(fromEntry)
	to, _ := m.Create(toEntry)
	return &domain.TransferResult{FromEntry: from, ToEntry: to}, nil
}

func (m *MockLedgerRepository) SoftDeleteTransferPair(workspaceID int32, pairID uuid.UUID) error {
	now := time.Now()
	found := false
	for _, e := range m.Entries {
		if e.WorkspaceID == workspaceID && e.TransferPairID != nil && *e.TransferPairID == pairID && e.DeletedAt == nil {
			e.DeletedAt = &now
			found = true
		}
	}
	if !found {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (m *MockLedgerRepository) SetReceiptKey(workspaceID int32, id int32, key *string) error {
	entry, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	entry.ReceiptKey = key
	return nil
}

// GetAccountEntrySummaries folds live entries the way the SQL aggregate does
func (m *MockLedgerRepository) GetAccountEntrySummaries(workspaceID int32, through time.Time) ([]*domain.EntrySummary, error) {
	if m.SummariesFn != nil {
		return m.SummariesFn(workspaceID, through)
	}
	byAccount := make(map[int32]*domain.EntrySummary)
	for _, e := range m.Entries {
		if e.WorkspaceID != workspaceID || e.DeletedAt != nil {
			continue
		}
		if !through.IsZero() && e.EntryDate.After(through) {
			continue
		}
		s, ok := byAccount[e.AccountID]
		if !ok {
			s = &domain.EntrySummary{AccountID: e.AccountID}
			byAccount[e.AccountID] = s
		}
		switch e.Kind {
		case domain.EntryKindIncome:
			s.SumIncome = s.SumIncome.Add(e.Amount)
		case domain.EntryKindExpense:
			s.SumExpense = s.SumExpense.Add(e.Amount)
		case domain.EntryKindTransfer:
			if e.Direction != nil && *e.Direction == domain.TransferIn {
				s.SumTransferIn = s.SumTransferIn.Add(e.Amount)
			} else {
				s.SumTransferOut = s.SumTransferOut.Add(e.Amount)
			}
		}
	}
	result := make([]*domain.EntrySummary, 0, len(byAccount))
	for _, s := range byAccount {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AccountID < result[j].AccountID })
	return result, nil
}

func (m *MockLedgerRepository) CountByCategory(workspaceID int32, category string) (int64, error) {
	var count int64
	for _, e := range m.Entries {
		if e.WorkspaceID == workspaceID && e.DeletedAt == nil && e.Category == category {
			count++
		}
	}
	return count, nil
}

// RenameCategory is a test helper that rewrites the category on live
// entries, standing in for the cascade CategoryRepository.Rename runs
// inside its transaction.
func (m *MockLedgerRepository) RenameCategory(workspaceID int32, oldName, newName string) (int64, error) {
	var count int64
	for _, e := range m.Entries {
		if e.WorkspaceID == workspaceID && e.DeletedAt == nil && e.Category == oldName {
			e.Category = newName
			count++
		}
	}
	return count, nil
}

func (m *MockLedgerRepository) EarliestEntryDate(workspaceID int32) (*time.Time, error) {
	var earliest *time.Time
	for _, e := range m.Entries {
		if e.WorkspaceID != workspaceID || e.DeletedAt != nil {
			continue
		}
		if earliest == nil || e.EntryDate.Before(*earliest) {
			d := e.EntryDate
			earliest = &d
		}
	}
	return earliest, nil
}

// AddEntry adds an entry to the mock repository (helper for tests)
func (m *MockLedgerRepository) AddEntry(entry *domain.LedgerEntry) {
	m.Entries[entry.ID] = entry
	if entry.ID >= m.NextID {
		m.NextID = entry.ID + 1
	}
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	NextID     int32
	RenameFn   func(workspaceID int32, id int32, newName string) (int64, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		NextID:     1,
	}
}

func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	category.ID = m.NextID
	m.NextID++
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.Categories[category.ID] = category
	return category, nil
}

func (m *MockCategoryRepository) GetByID(workspaceID int32, id int32) (*domain.Category, error) {
	category, ok := m.Categories[id]
	if !ok || category.WorkspaceID != workspaceID || category.DeletedAt != nil {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (m *MockCategoryRepository) GetByName(workspaceID int32, name string) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.WorkspaceID == workspaceID && c.DeletedAt == nil && c.Name == name {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Category, error) {
	var result []*domain.Category
	for _, c := range m.Categories {
		if c.WorkspaceID == workspaceID && c.DeletedAt == nil {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockCategoryRepository) Update(workspaceID int32, id int32, name string, subCategories []string) (*domain.Category, error) {
	category, err := m.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	category.SubCategories = subCategories
	category.UpdatedAt = time.Now()
	return category, nil
}

func (m *MockCategoryRepository) Rename(workspaceID int32, id int32, newName string) (int64, error) {
	if m.RenameFn != nil {
		return m.RenameFn(workspaceID, id, newName)
	}
	category, err := m.GetByID(workspaceID, id)
	if err != nil {
		return 0, err
	}
	category.Name = newName
	category.UpdatedAt = time.Now()
	return 0, nil
}

func (m *MockCategoryRepository) SoftDelete(workspaceID int32, id int32) error {
	category, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	category.DeletedAt = &now
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
	if category.ID >= m.NextID {
		m.NextID = category.ID + 1
	}
}

// MockTradeRepository is a mock implementation of domain.TradeRepository.
// It is safe for concurrent use so worker tests can poll it.
type MockTradeRepository struct {
	mu     sync.Mutex
	Trades map[int32]*domain.StockTrade
	NextID int32
}

// NewMockTradeRepository creates a new MockTradeRepository
func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{
		Trades: make(map[int32]*domain.StockTrade),
		NextID: 1,
	}
}

func (m *MockTradeRepository) Create(trade *domain.StockTrade) (*domain.StockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trade.ID = m.NextID
	m.NextID++
	trade.CreatedAt = time.Now()
	trade.UpdatedAt = trade.CreatedAt
	m.Trades[trade.ID] = trade
	return trade, nil
}

func (m *MockTradeRepository) get(workspaceID int32, id int32) (*domain.StockTrade, error) {
	trade, ok := m.Trades[id]
	if !ok || trade.WorkspaceID != workspaceID || trade.DeletedAt != nil {
		return nil, domain.ErrTradeNotFound
	}
	return trade, nil
}

func (m *MockTradeRepository) GetByID(workspaceID int32, id int32) (*domain.StockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(workspaceID, id)
}

func (m *MockTradeRepository) GetByWorkspace(workspaceID int32, filters *domain.TradeFilters) (*domain.PaginatedTrades, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.StockTrade
	for _, t := range m.Trades {
		if t.WorkspaceID != workspaceID || t.DeletedAt != nil {
			continue
		}
		if filters.AccountID != nil && t.AccountID != *filters.AccountID {
			continue
		}
		if filters.Ticker != nil && t.Ticker != *filters.Ticker {
			continue
		}
		if filters.Side != nil && t.Side != *filters.Side {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TradeDate.After(all[j].TradeDate) })

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}

	total := int64(len(all))
	start := int((page - 1) * pageSize)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}

	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedTrades{
		Data:       all[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (m *MockTradeRepository) GetAllByWorkspace(workspaceID int32, through time.Time) ([]*domain.StockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.StockTrade
	for _, t := range m.Trades {
		if t.WorkspaceID != workspaceID || t.DeletedAt != nil {
			continue
		}
		if !through.IsZero() && t.TradeDate.After(through) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TradeDate.Equal(result[j].TradeDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].TradeDate.Before(result[j].TradeDate)
	})
	return result, nil
}

func (m *MockTradeRepository) Update(workspaceID int32, id int32, data *domain.UpdateTradeData) (*domain.StockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trade, err := m.get(workspaceID, id)
	if err != nil {
		return nil, err
	}
	trade.TradeDate = data.TradeDate
	trade.Quantity = data.Quantity
	trade.Price = data.Price
	trade.Fee = data.Fee
	trade.Name = data.Name
	trade.UpdatedAt = time.Now()
	return trade, nil
}

func (m *MockTradeRepository) SoftDelete(workspaceID int32, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trade, err := m.get(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	trade.DeletedAt = &now
	return nil
}

func (m *MockTradeRepository) GetCashSummaries(workspaceID int32, through time.Time) ([]*domain.TradeCashSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type key struct {
		accountID int32
		currency  domain.Currency
	}
	sums := make(map[key]decimal.Decimal)
	for _, t := range m.Trades {
		if t.WorkspaceID != workspaceID || t.DeletedAt != nil {
			continue
		}
		if !through.IsZero() && t.TradeDate.After(through) {
			continue
		}
		k := key{t.AccountID, t.Currency}
		sums[k] = sums[k].Add(t.CashImpact())
	}
	result := make([]*domain.TradeCashSummary, 0, len(sums))
	for k, v := range sums {
		result = append(result, &domain.TradeCashSummary{AccountID: k.accountID, Currency: k.currency, NetCash: v})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AccountID == result[j].AccountID {
			return result[i].Currency < result[j].Currency
		}
		return result[i].AccountID < result[j].AccountID
	})
	return result, nil
}

func (m *MockTradeRepository) DistinctTickers(workspaceID int32) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for _, t := range m.Trades {
		if t.WorkspaceID == workspaceID && t.DeletedAt == nil {
			seen[t.Ticker] = true
		}
	}
	result := make([]string, 0, len(seen))
	for ticker := range seen {
		result = append(result, ticker)
	}
	sort.Strings(result)
	return result, nil
}

func (m *MockTradeRepository) EarliestTradeDate(workspaceID int32) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var earliest *time.Time
	for _, t := range m.Trades {
		if t.WorkspaceID != workspaceID || t.DeletedAt != nil {
			continue
		}
		if earliest == nil || t.TradeDate.Before(*earliest) {
			d := t.TradeDate
			earliest = &d
		}
	}
	return earliest, nil
}

// AddTrade adds a trade to the mock repository (helper for tests)
func (m *MockTradeRepository) AddTrade(trade *domain.StockTrade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Trades[trade.ID] = trade
	if trade.ID >= m.NextID {
		m.NextID = trade.ID + 1
	}
}

// TradeCount returns the number of stored trades (live and deleted)
func (m *MockTradeRepository) TradeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Trades)
}

// MockQuoteRepository is a mock implementation of domain.QuoteRepository.
// It is safe for concurrent use so worker tests can poll it.
type MockQuoteRepository struct {
	mu      sync.Mutex
	Prices  map[int32]map[string]*domain.StockPrice
	FXRates map[int32]map[string]*domain.FXRate
}

// NewMockQuoteRepository creates a new MockQuoteRepository
func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{
		Prices:  make(map[int32]map[string]*domain.StockPrice),
		FXRates: make(map[int32]map[string]*domain.FXRate),
	}
}

func (m *MockQuoteRepository) Upsert(workspaceID int32, price *domain.StockPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Prices[workspaceID] == nil {
		m.Prices[workspaceID] = make(map[string]*domain.StockPrice)
	}
	m.Prices[workspaceID][price.Ticker] = price
	return nil
}

func (m *MockQuoteRepository) GetByTicker(workspaceID int32, ticker string) (*domain.StockPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Prices[workspaceID][ticker]; ok {
		return p, nil
	}
	return nil, domain.ErrQuoteNotFound
}

func (m *MockQuoteRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.StockPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.StockPrice
	for _, p := range m.Prices[workspaceID] {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ticker < result[j].Ticker })
	return result, nil
}

func (m *MockQuoteRepository) UpsertFXRate(workspaceID int32, rate *domain.FXRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FXRates[workspaceID] == nil {
		m.FXRates[workspaceID] = make(map[string]*domain.FXRate)
	}
	m.FXRates[workspaceID][string(rate.Base)+string(rate.Quote)] = rate
	return nil
}

func (m *MockQuoteRepository) GetFXRate(workspaceID int32, base, quote domain.Currency) (*domain.FXRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.FXRates[workspaceID][string(base)+string(quote)]; ok {
		return r, nil
	}
	return nil, domain.ErrQuoteNotFound
}

// MockDCAPlanRepository is a mock implementation of domain.DCAPlanRepository.
// It is safe for concurrent use so worker tests can poll it.
type MockDCAPlanRepository struct {
	mu     sync.Mutex
	Plans  map[int32]*domain.DCAPlan
	NextID int32
}

// NewMockDCAPlanRepository creates a new MockDCAPlanRepository
func NewMockDCAPlanRepository() *MockDCAPlanRepository {
	return &MockDCAPlanRepository{
		Plans:  make(map[int32]*domain.DCAPlan),
		NextID: 1,
	}
}

func (m *MockDCAPlanRepository) Create(plan *domain.DCAPlan) (*domain.DCAPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan.ID = m.NextID
	m.NextID++
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	m.Plans[plan.ID] = plan
	return plan, nil
}

func (m *MockDCAPlanRepository) get(workspaceID int32, id int32) (*domain.DCAPlan, error) {
	plan, ok := m.Plans[id]
	if !ok || plan.WorkspaceID != workspaceID || plan.DeletedAt != nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (m *MockDCAPlanRepository) GetByID(workspaceID int32, id int32) (*domain.DCAPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(workspaceID, id)
}

func (m *MockDCAPlanRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.DCAPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.DCAPlan
	for _, p := range m.Plans {
		if p.WorkspaceID == workspaceID && p.DeletedAt == nil {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockDCAPlanRepository) GetEnabled() ([]*domain.DCAPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.DCAPlan
	for _, p := range m.Plans {
		if p.Enabled && p.DeletedAt == nil {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockDCAPlanRepository) Update(workspaceID int32, id int32, data *domain.UpdateDCAPlanData) (*domain.DCAPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, err := m.get(workspaceID, id)
	if err != nil {
		return nil, err
	}
	plan.Amount = data.Amount
	plan.DayOfMonth = data.DayOfMonth
	plan.Hour = data.Hour
	plan.Minute = data.Minute
	plan.Enabled = data.Enabled
	plan.UpdatedAt = time.Now()
	return plan, nil
}

func (m *MockDCAPlanRepository) MarkRun(workspaceID int32, id int32, ranAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, err := m.get(workspaceID, id)
	if err != nil {
		return err
	}
	plan.LastRunAt = &ranAt
	return nil
}

func (m *MockDCAPlanRepository) SoftDelete(workspaceID int32, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, err := m.get(workspaceID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	plan.DeletedAt = &now
	return nil
}

// AddPlan adds a plan to the mock repository (helper for tests)
func (m *MockDCAPlanRepository) AddPlan(plan *domain.DCAPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plans[plan.ID] = plan
	if plan.ID >= m.NextID {
		m.NextID = plan.ID + 1
	}
}

// MockAPITokenRepository is a mock implementation of domain.APITokenRepository
type MockAPITokenRepository struct {
	mu     sync.Mutex
	Tokens map[uuid.UUID]*domain.APIToken
	ByHash map[string]*domain.APIToken
}

// NewMockAPITokenRepository creates a new MockAPITokenRepository
func NewMockAPITokenRepository() *MockAPITokenRepository {
	return &MockAPITokenRepository{
		Tokens: make(map[uuid.UUID]*domain.APIToken),
		ByHash: make(map[string]*domain.APIToken),
	}
}

func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	m.Tokens[token.ID] = token
	m.ByHash[token.TokenHash] = token
	return nil
}

func (m *MockAPITokenRepository) GetByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.APIToken
	for _, t := range m.Tokens {
		if t.WorkspaceID == workspaceID && t.RevokedAt == nil {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockAPITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.ByHash[hash]
	if !ok || token.RevokedAt != nil {
		return nil, domain.ErrAPITokenNotFound
	}
	return token, nil
}

func (m *MockAPITokenRepository) Revoke(ctx context.Context, workspaceID int32, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.Tokens[id]
	if !ok || token.WorkspaceID != workspaceID || token.RevokedAt != nil {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

func (m *MockAPITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.Tokens[id]
	if !ok {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	token.LastUsedAt = &now
	return nil
}

// LastUsed returns a token's last-used timestamp (helper for tests, since
// UpdateLastUsed runs on a background goroutine)
func (m *MockAPITokenRepository) LastUsed(id uuid.UUID) *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.Tokens[id]
	if !ok {
		return nil
	}
	return token.LastUsedAt
}

// MockQuoteProvider is a mock quote provider for tests
type MockQuoteProvider struct {
	Quotes  map[string]*domain.StockPrice
	Rates   map[string]*domain.FXRate
	QuoteFn func(ctx context.Context, ticker string) (*domain.StockPrice, error)
	Calls   int
}

// NewMockQuoteProvider creates a new MockQuoteProvider
func NewMockQuoteProvider() *MockQuoteProvider {
	return &MockQuoteProvider{
		Quotes: make(map[string]*domain.StockPrice),
		Rates:  make(map[string]*domain.FXRate),
	}
}

func (m *MockQuoteProvider) FetchQuote(ctx context.Context, ticker string) (*domain.StockPrice, error) {
	m.Calls++
	if m.QuoteFn != nil {
		return m.QuoteFn(ctx, ticker)
	}
	if q, ok := m.Quotes[ticker]; ok {
		return q, nil
	}
	return nil, domain.ErrQuoteNotFound
}

func (m *MockQuoteProvider) FetchFXRate(ctx context.Context, base, quote domain.Currency) (*domain.FXRate, error) {
	m.Calls++
	if r, ok := m.Rates[string(base)+string(quote)]; ok {
		return r, nil
	}
	return nil, domain.ErrQuoteNotFound
}

// CapturingPublisher records published events for assertions
type CapturingPublisher struct {
	Events []websocket.Event
}

// Publish appends the event to the captured list
func (p *CapturingPublisher) Publish(workspaceID int32, event websocket.Event) {
	p.Events = append(p.Events, event)
}

// LastEvent returns the most recently published event, or nil
func (p *CapturingPublisher) LastEvent() *websocket.Event {
	if len(p.Events) == 0 {
		return nil
	}
	return &p.Events[len(p.Events)-1]
}

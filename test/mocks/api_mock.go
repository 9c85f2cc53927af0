package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// MockPickPointAPI implements ports.PickPointAPI in memory. It enforces the
// server rules the console relies on (credential validity, referential
// conflicts on location delete) and records every call.
type MockPickPointAPI struct {
	mu sync.RWMutex

	accounts map[string]mockAccount
	tokens   map[string]domain.Identity

	Locations  []domain.Location
	Recipients []domain.Recipient
	Packages   []domain.Package
	Staff      []domain.StaffAccount
	Templates  []domain.NotificationTemplate
	Dashboard  domain.Dashboard

	// PickupCharge, when set, is returned as the authoritative finalPrice.
	PickupCharge *int64

	// Call tracking for verification
	LoginCalls           []string
	MeCalls              []string
	ListPackagesCalls    []domain.ListQuery
	ListRecipientsCalls  []domain.ListQuery
	ListStaffCalls       []domain.ListQuery
	ListLocationsCalls   []string
	CreatePackageCalls   []domain.NewPackage
	PickupCalls          []domain.PickupRequest
	NotifyCalls          []int64
	CreateRecipientCalls []domain.RecipientInput
	DeleteRecipientCalls []int64
	CreateLocationCalls  []domain.LocationInput
	DeleteLocationCalls  []int64
	CreateStaffCalls     []domain.StaffInput
	UpdateStaffCalls     []domain.StaffInput
	PricingCalls         []domain.PricingUpdate
	TemplateSaves        []domain.TemplateInput
	TestMessages         []domain.TestMessage
	DashboardCalls       []domain.DashboardQuery

	// Error injection keyed by method name, e.g. "ListPackages".
	errors map[string]error
}

type mockAccount struct {
	password string
	identity domain.Identity
}

var _ ports.PickPointAPI = (*MockPickPointAPI)(nil)

func NewMockPickPointAPI() *MockPickPointAPI {
	return &MockPickPointAPI{
		accounts: make(map[string]mockAccount),
		tokens:   make(map[string]domain.Identity),
		errors:   make(map[string]error),
	}
}

// SeedAccount registers a user that can log in.
func (m *MockPickPointAPI) SeedAccount(password string, identity domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[identity.Username] = mockAccount{password: password, identity: identity}
}

// SeedToken makes token valid for identity without a login.
func (m *MockPickPointAPI) SeedToken(token string, identity domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = identity
}

// RevokeToken makes token invalid, as an expired credential would be.
func (m *MockPickPointAPI) RevokeToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

// FailWith makes method return err until cleared with a nil err.
func (m *MockPickPointAPI) FailWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

// Conflict builds the error the real client returns for HTTP 409.
func Conflict(message string) error {
	return &domain.APIError{Status: http.StatusConflict, Message: message, Kind: domain.ErrConflict}
}

// Unauthorized builds the error the real client returns for HTTP 401.
func Unauthorized() error {
	return &domain.APIError{Status: http.StatusUnauthorized, Message: "Invalid token", Kind: domain.ErrUnauthorized}
}

// Unavailable builds the error the real client returns for network failures.
func Unavailable() error {
	return &domain.APIError{Status: http.StatusBadGateway, Kind: domain.ErrUnavailable}
}

// check must be called with m.mu held.
func (m *MockPickPointAPI) check(method, token string) error {
	if err := m.errors[method]; err != nil {
		return err
	}
	if method == "Login" {
		return nil
	}
	if _, ok := m.tokens[token]; !ok {
		return Unauthorized()
	}
	return nil
}

func (m *MockPickPointAPI) Login(ctx context.Context, username, password string) (string, domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoginCalls = append(m.LoginCalls, username)
	if err := m.check("Login", ""); err != nil {
		return "", domain.Identity{}, err
	}
	acc, ok := m.accounts[username]
	if !ok || acc.password != password {
		return "", domain.Identity{}, &domain.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials", Kind: domain.ErrUnauthorized}
	}
	token := "token-" + username
	m.tokens[token] = acc.identity
	return token, acc.identity, nil
}

func (m *MockPickPointAPI) Me(ctx context.Context, token string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MeCalls = append(m.MeCalls, token)
	if err := m.check("Me", token); err != nil {
		return domain.Identity{}, err
	}
	return m.tokens[token], nil
}

func (m *MockPickPointAPI) MeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.MeCalls)
}

func (m *MockPickPointAPI) ListLocations(ctx context.Context, token, search string) ([]domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListLocationsCalls = append(m.ListLocationsCalls, search)
	if err := m.check("ListLocations", token); err != nil {
		return nil, err
	}
	out := make([]domain.Location, len(m.Locations))
	copy(out, m.Locations)
	return out, nil
}

func (m *MockPickPointAPI) CreateLocation(ctx context.Context, token string, in domain.LocationInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateLocationCalls = append(m.CreateLocationCalls, in)
	if err := m.check("CreateLocation", token); err != nil {
		return err
	}
	for _, l := range m.Locations {
		if l.Name == in.Name {
			return Conflict("Location name already exists")
		}
	}
	m.Locations = append(m.Locations, domain.Location{ID: int64(len(m.Locations) + 1), Name: in.Name, Address: in.Address})
	return nil
}

func (m *MockPickPointAPI) UpdateLocation(ctx context.Context, token string, id int64, in domain.LocationInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("UpdateLocation", token); err != nil {
		return err
	}
	for i := range m.Locations {
		if m.Locations[i].ID == id {
			m.Locations[i].Name = in.Name
			m.Locations[i].Address = in.Address
			return nil
		}
	}
	return &domain.APIError{Status: http.StatusNotFound, Kind: domain.ErrNotFound}
}

// DeleteLocation rejects locations that still have staff or packages.
func (m *MockPickPointAPI) DeleteLocation(ctx context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteLocationCalls = append(m.DeleteLocationCalls, id)
	if err := m.check("DeleteLocation", token); err != nil {
		return err
	}
	for i, l := range m.Locations {
		if l.ID != id {
			continue
		}
		if l.StaffCount > 0 || l.PackageCount > 0 {
			return Conflict("Location has associated records")
		}
		m.Locations = append(m.Locations[:i], m.Locations[i+1:]...)
		return nil
	}
	return &domain.APIError{Status: http.StatusNotFound, Kind: domain.ErrNotFound}
}

func (m *MockPickPointAPI) ListLocationPrices(ctx context.Context, token string) ([]domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListLocationPrices", token); err != nil {
		return nil, err
	}
	out := make([]domain.Location, len(m.Locations))
	copy(out, m.Locations)
	return out, nil
}

func (m *MockPickPointAPI) UpdateLocationPrices(ctx context.Context, token string, id int64, update domain.PricingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PricingCalls = append(m.PricingCalls, update)
	return m.check("UpdateLocationPrices", token)
}

func (m *MockPickPointAPI) ListRecipients(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.Recipient], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListRecipientsCalls = append(m.ListRecipientsCalls, q)
	if err := m.check("ListRecipients", token); err != nil {
		return domain.Page[domain.Recipient]{}, err
	}
	return paginate(m.Recipients, q), nil
}

func (m *MockPickPointAPI) CreateRecipient(ctx context.Context, token string, in domain.RecipientInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateRecipientCalls = append(m.CreateRecipientCalls, in)
	if err := m.check("CreateRecipient", token); err != nil {
		return err
	}
	m.Recipients = append(m.Recipients, domain.Recipient{
		ID: int64(len(m.Recipients) + 1), Name: in.Name, Phone: in.Phone, Unit: in.Unit, LocationID: in.LocationID,
	})
	return nil
}

func (m *MockPickPointAPI) UpdateRecipient(ctx context.Context, token string, id int64, in domain.RecipientInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check("UpdateRecipient", token)
}

func (m *MockPickPointAPI) DeleteRecipient(ctx context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteRecipientCalls = append(m.DeleteRecipientCalls, id)
	if err := m.check("DeleteRecipient", token); err != nil {
		return err
	}
	for i, r := range m.Recipients {
		if r.ID != id {
			continue
		}
		if r.PackageCount > 0 && m.tokens[token].Role != domain.RoleAdmin {
			return Conflict("Recipient has packages")
		}
		m.Recipients = append(m.Recipients[:i], m.Recipients[i+1:]...)
		return nil
	}
	return nil
}

func (m *MockPickPointAPI) ListPackages(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.Package], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListPackagesCalls = append(m.ListPackagesCalls, q)
	if err := m.check("ListPackages", token); err != nil {
		return domain.Page[domain.Package]{}, err
	}
	return paginate(m.Packages, q), nil
}

func (m *MockPickPointAPI) ListPackagesCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ListPackagesCalls)
}

func (m *MockPickPointAPI) CreatePackage(ctx context.Context, token string, p domain.NewPackage) (domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatePackageCalls = append(m.CreatePackageCalls, p)
	if err := m.check("CreatePackage", token); err != nil {
		return domain.Package{}, err
	}
	created := domain.Package{
		ID:             int64(len(m.Packages) + 1),
		TrackingNumber: p.TrackingNumber,
		Recipient:      domain.Party{Name: p.RecipientName, Phone: p.RecipientPhone, Unit: p.RecipientUnit},
		Sender:         domain.Party{Name: p.SenderName},
		Carrier:        domain.Party{Name: p.CarrierName},
		LocationID:     p.LocationID,
		Status:         domain.StatusStored,
	}
	m.Packages = append(m.Packages, created)
	return created, nil
}

func (m *MockPickPointAPI) PickupPackage(ctx context.Context, token string, id int64, req domain.PickupRequest) (domain.PickupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PickupCalls = append(m.PickupCalls, req)
	if err := m.check("PickupPackage", token); err != nil {
		return domain.PickupResult{}, err
	}
	for i := range m.Packages {
		if m.Packages[i].ID == id {
			if err := m.Packages[i].Transition(domain.StatusPickedUp); err != nil {
				return domain.PickupResult{}, Conflict("Package already picked up")
			}
		}
	}
	result := domain.PickupResult{Message: "Package picked up"}
	if m.PickupCharge != nil {
		charge := domain.Amount(*m.PickupCharge)
		result.FinalPrice = &charge
	}
	return result, nil
}

func (m *MockPickPointAPI) NotifyPackage(ctx context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = append(m.NotifyCalls, id)
	return m.check("NotifyPackage", token)
}

func (m *MockPickPointAPI) ListStaff(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.StaffAccount], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListStaffCalls = append(m.ListStaffCalls, q)
	if err := m.check("ListStaff", token); err != nil {
		return domain.Page[domain.StaffAccount]{}, err
	}
	return paginate(m.Staff, q), nil
}

func (m *MockPickPointAPI) CreateStaff(ctx context.Context, token string, in domain.StaffInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateStaffCalls = append(m.CreateStaffCalls, in)
	if err := m.check("CreateStaff", token); err != nil {
		return err
	}
	for _, s := range m.Staff {
		if s.Username == in.Username {
			return Conflict("Username already exists")
		}
	}
	m.Staff = append(m.Staff, domain.StaffAccount{
		ID: int64(len(m.Staff) + 1), Username: in.Username, FullName: in.FullName, LocationID: in.LocationID,
	})
	return nil
}

func (m *MockPickPointAPI) UpdateStaff(ctx context.Context, token string, id int64, in domain.StaffInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStaffCalls = append(m.UpdateStaffCalls, in)
	return m.check("UpdateStaff", token)
}

func (m *MockPickPointAPI) DeleteStaff(ctx context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check("DeleteStaff", token)
}

func (m *MockPickPointAPI) ListTemplates(ctx context.Context, token string) ([]domain.NotificationTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ListTemplates", token); err != nil {
		return nil, err
	}
	out := make([]domain.NotificationTemplate, len(m.Templates))
	copy(out, m.Templates)
	return out, nil
}

func (m *MockPickPointAPI) CreateTemplate(ctx context.Context, token string, in domain.TemplateInput) (domain.NotificationTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TemplateSaves = append(m.TemplateSaves, in)
	if err := m.check("CreateTemplate", token); err != nil {
		return domain.NotificationTemplate{}, err
	}
	t := domain.NotificationTemplate{ID: int64(len(m.Templates) + 1), TemplateName: in.TemplateName, TemplateContent: in.TemplateContent}
	m.Templates = append(m.Templates, t)
	return t, nil
}

func (m *MockPickPointAPI) UpdateTemplate(ctx context.Context, token string, id int64, in domain.TemplateInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TemplateSaves = append(m.TemplateSaves, in)
	if err := m.check("UpdateTemplate", token); err != nil {
		return err
	}
	for i := range m.Templates {
		if m.Templates[i].ID == id {
			m.Templates[i].TemplateName = in.TemplateName
			m.Templates[i].TemplateContent = in.TemplateContent
		}
	}
	return nil
}

func (m *MockPickPointAPI) SendTestMessage(ctx context.Context, token string, msg domain.TestMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TestMessages = append(m.TestMessages, msg)
	return m.check("SendTestMessage", token)
}

func (m *MockPickPointAPI) DashboardStats(ctx context.Context, token string, q domain.DashboardQuery) (domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DashboardCalls = append(m.DashboardCalls, q)
	if err := m.check("DashboardStats", token); err != nil {
		return domain.Dashboard{}, err
	}
	return m.Dashboard, nil
}

func paginate[T any](items []T, q domain.ListQuery) domain.Page[T] {
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	total := (len(items) + limit - 1) / limit
	if total < 1 {
		total = 1
	}
	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return domain.Page[T]{Items: out, TotalPages: total}
}

package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tkivila/craftshop/internal/domain/product"
	"github.com/tkivila/craftshop/internal/domain/shipping"
	"github.com/tkivila/craftshop/internal/domain/user"
)

// --- Mock implementations ---

type mockUsers struct {
	user *user.User
	err  error
}

func (m *mockUsers) ResolveOrCreate(_ context.Context, email string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user != nil {
		return m.user, nil
	}
	return &user.User{ID: "u1", Username: email, Email: email, Role: user.RoleCustomer}, nil
}

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockProviderRepo struct {
	provider *shipping.Provider
}

func (m *mockProviderRepo) List(_ context.Context) ([]shipping.Provider, error) { return nil, nil }

func (m *mockProviderRepo) GetByID(_ context.Context, id string) (*shipping.Provider, error) {
	if m.provider == nil || m.provider.ID != id {
		return nil, shipping.ErrProviderNotFound
	}
	return m.provider, nil
}

type mockSequences struct {
	next int64
	err  error
}

func (m *mockSequences) Next(_ context.Context, _ int) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.next++
	return m.next, nil
}

type mockOrderRepo struct {
	created      *Order
	createErr    error
	attachErr    error
	attachCalls  int
	statusOrders map[string]*Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	return nil
}

func (m *mockOrderRepo) AttachToUser(_ context.Context, _, _ string) error {
	m.attachCalls++
	return m.attachErr
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, number string) (*Order, error) {
	if o, ok := m.statusOrders[number]; ok {
		return o, nil
	}
	if m.created != nil && m.created.Number == number {
		return m.created, nil
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, number string, status Status) error {
	if o, ok := m.statusOrders[number]; ok {
		o.Status = status
		return nil
	}
	return ErrNotFound
}

type mockInvoices struct {
	ref   string
	err   error
	calls int
}

func (m *mockInvoices) Generate(_ context.Context, _ *Order, _ string) (string, error) {
	m.calls++
	return m.ref, m.err
}

type mockNotifier struct {
	mailErr    error
	alertErr   error
	mailRef    string
	mailCalls  int
	alertCalls int
}

func (m *mockNotifier) NotifyCustomer(_ context.Context, _ *Order, _, _, invoiceRef string) error {
	m.mailCalls++
	m.mailRef = invoiceRef
	return m.mailErr
}

func (m *mockNotifier) NotifyOps(_ context.Context, _ *Order, _ string) error {
	m.alertCalls++
	return m.alertErr
}

// --- Helpers ---

type fixture struct {
	users     *mockUsers
	products  *mockProductRepo
	providers *mockProviderRepo
	sequences *mockSequences
	orders    *mockOrderRepo
	invoices  *mockInvoices
	notifier  *mockNotifier
}

func newFixture(products ...product.Product) *fixture {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &fixture{
		users:    &mockUsers{},
		products: &mockProductRepo{byID: byID},
		providers: &mockProviderRepo{provider: &shipping.Provider{
			ID:        "sp1",
			Name:      "Omniva",
			Addresses: []string{"Tallinn", "Tartu"},
			Options: []shipping.Option{
				{Name: "Courier", Price: decimal.RequireFromString("5.00")},
				{Name: "Parcel machine", Price: decimal.RequireFromString("3.50")},
			},
		}},
		sequences: &mockSequences{},
		orders:    &mockOrderRepo{},
		invoices:  &mockInvoices{ref: "invoices/doc-1.pdf"},
		notifier:  &mockNotifier{},
	}
}

func (f *fixture) service() *Service {
	return NewService(
		f.users, f.products, f.providers, f.sequences, f.orders,
		f.invoices, f.notifier, time.Second, zap.NewNop(),
	)
}

func newTestProduct(id, title, price string) product.Product {
	return product.Product{
		ID:        id,
		Title:     product.Localized{"en": title},
		Price:     decimal.RequireFromString(price),
		Available: true,
	}
}

func validRequest(items ...ItemRequest) PlaceOrderRequest {
	return PlaceOrderRequest{
		Email:      "buyer@example.com",
		ProviderID: "sp1",
		Address:    "Tallinn",
		Items:      items,
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.service().PlaceOrder(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrEmptyItems)
	assert.Nil(t, f.orders.created)
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	f := newFixture(
		newTestProduct("p1", "Wool socks", "6.67"),
		newTestProduct("p2", "Mittens", "3.33"),
	)

	result, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 3},
		ItemRequest{ProductID: "p2", Quantity: 2},
	))
	require.NoError(t, err)

	o := result.Order
	assert.Equal(t, StatusNew, o.Status)
	assert.True(t, decimal.RequireFromString("26.67").Equal(o.Subtotal), "subtotal = %s", o.Subtotal)
	assert.True(t, decimal.RequireFromString("30.17").Equal(o.Total), "total = %s", o.Total)
	assert.Equal(t, "Parcel machine", o.Shipping.OptionName)
	assert.Equal(t, "u1", o.UserID)
	assert.Len(t, o.Lines, 2)
	assert.Equal(t, "Wool socks", o.Lines[0].Title)

	// Number is {year}-{sequence}, starting at 1.
	assert.Equal(t, fmt.Sprintf("%d-1", time.Now().Year()), o.Number)

	assert.NotNil(t, f.orders.created)
	assert.Equal(t, 1, f.orders.attachCalls)
	assert.False(t, result.FollowUps.Degraded())
	assert.Equal(t, "invoices/doc-1.pdf", f.notifier.mailRef)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))

	_, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 0},
	))

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
	assert.Nil(t, f.orders.created)
}

func TestPlaceOrder_IncompleteCatalog(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))

	_, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
		ItemRequest{ProductID: "deleted", Quantity: 1},
	))

	var icErr *IncompleteCatalogError
	require.ErrorAs(t, err, &icErr)
	assert.Equal(t, 2, icErr.Requested)
	assert.Equal(t, 1, icErr.Found)
	assert.Nil(t, f.orders.created, "no order may be persisted")
	assert.Equal(t, 0, f.invoices.calls)
}

func TestPlaceOrder_InvalidAddress(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))

	req := validRequest(ItemRequest{ProductID: "p1", Quantity: 1})
	req.Address = "Narva"

	_, err := f.service().PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, shipping.ErrInvalidAddress)
	assert.Nil(t, f.orders.created, "no order may be persisted")
}

func TestPlaceOrder_SequenceIncrements(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))
	svc := f.service()

	first, err := svc.PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)
	second, err := svc.PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	assert.NotEqual(t, first.Order.Number, second.Order.Number)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))
	f.orders.createErr = errors.New("db write failed")

	_, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Equal(t, 0, f.invoices.calls, "no follow-ups without a persisted order")
}

func TestPlaceOrder_InvoiceFailureDegrades(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))
	f.invoices.err = errors.New("invoice service down")
	f.invoices.ref = ""

	result, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err, "invoice failure must not fail the order")

	assert.Equal(t, StatusNew, result.Order.Status)
	assert.True(t, result.FollowUps.Degraded())
	assert.False(t, result.FollowUps.InvoiceDocument)
	assert.True(t, result.FollowUps.CustomerMail)
	assert.Equal(t, "", f.notifier.mailRef, "mail goes out without attachment")

	// Still retrievable afterwards.
	got, err := f.service().GetByNumber(context.Background(), result.Order.Number)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, got.Status)
}

func TestPlaceOrder_MailFailureDegrades(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))
	f.notifier.mailErr = errors.New("smtp relay down")

	result, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err, "mail failure must not fail the order")
	assert.True(t, result.FollowUps.Degraded())
	assert.False(t, result.FollowUps.CustomerMail)
	assert.True(t, result.FollowUps.OpsAlert)
	assert.NotNil(t, f.orders.created)
}

func TestPlaceOrder_AttachRetried(t *testing.T) {
	f := newFixture(newTestProduct("p1", "Wool socks", "6.67"))
	f.orders.attachErr = errors.New("deadlock")

	result, err := f.service().PlaceOrder(context.Background(), validRequest(
		ItemRequest{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err, "attach failure leaves the order standing")
	assert.Equal(t, attachRetries, f.orders.attachCalls)
	assert.NotNil(t, result.Order)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newFixture()
	f.orders.statusOrders = map[string]*Order{
		"2025-7": {Number: "2025-7", Status: StatusNew},
	}
	svc := f.service()

	o, err := svc.UpdateStatus(context.Background(), "2025-7", StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)

	// RECEIVED is not reachable from PAID.
	_, err = svc.UpdateStatus(context.Background(), "2025-7", StatusReceived)
	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)

	// CANCELLED is reachable from any non-terminal state.
	o, err = svc.UpdateStatus(context.Background(), "2025-7", StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)

	// Terminal states never change.
	_, err = svc.UpdateStatus(context.Background(), "2025-7", StatusPaid)
	require.ErrorAs(t, err, &itErr)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.service().UpdateStatus(context.Background(), "2025-404", StatusPaid)
	require.ErrorIs(t, err, ErrNotFound)
}

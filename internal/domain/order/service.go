package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tkivila/craftshop/internal/domain/product"
	"github.com/tkivila/craftshop/internal/domain/shipping"
	"github.com/tkivila/craftshop/internal/domain/user"
)

// UserResolver resolves a customer account by email, creating one on first
// order.
type UserResolver interface {
	ResolveOrCreate(ctx context.Context, email string) (*user.User, error)
}

// DocumentGenerator produces an invoice document for a placed order via an
// external service. A failure is best-effort: the order stands regardless.
type DocumentGenerator interface {
	Generate(ctx context.Context, o *Order, clientName string) (string, error)
}

// Notifier dispatches the order confirmation email and the internal ops
// alert. Both are best-effort.
type Notifier interface {
	NotifyCustomer(ctx context.Context, o *Order, email, language, invoiceRef string) error
	NotifyOps(ctx context.Context, o *Order, email string) error
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Email      string
	Phone      string
	ClientName string
	Language   string
	ProviderID string
	Address    string
	Items      []ItemRequest
}

// FollowUps reports the outcome of the best-effort steps that run after the
// order is durably persisted. A false field means that step degraded; it
// never fails the order.
type FollowUps struct {
	InvoiceDocument bool
	CustomerMail    bool
	OpsAlert        bool
}

// Degraded reports whether any post-commit step failed.
func (f FollowUps) Degraded() bool {
	return !f.InvoiceDocument || !f.CustomerMail || !f.OpsAlert
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order     *Order
	FollowUps FollowUps
}

const attachRetries = 3

// Service encapsulates the order placement workflow.
type Service struct {
	users     UserResolver
	products  product.Repository
	providers shipping.Repository
	sequences SequenceAllocator
	orders    Repository
	invoices  DocumentGenerator
	notifier  Notifier
	lg        *zap.Logger

	followUpTimeout time.Duration
	now             func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(
	users UserResolver,
	products product.Repository,
	providers shipping.Repository,
	sequences SequenceAllocator,
	orders Repository,
	invoices DocumentGenerator,
	notifier Notifier,
	followUpTimeout time.Duration,
	lg *zap.Logger,
) *Service {
	if followUpTimeout <= 0 {
		followUpTimeout = 15 * time.Second
	}
	return &Service{
		users:           users,
		products:        products,
		providers:       providers,
		sequences:       sequences,
		orders:          orders,
		invoices:        invoices,
		notifier:        notifier,
		lg:              lg,
		followUpTimeout: followUpTimeout,
		now:             time.Now,
	}
}

// PlaceOrder runs the full placement workflow: resolve the customer, fetch
// and validate the catalog snapshot, price the lines, select shipping,
// allocate the per-year invoice number, persist, and dispatch the
// best-effort follow-ups (invoice document, confirmation mail, ops alert).
//
// Validation and store errors before persistence abort the order. Once the
// order row is committed nothing rolls it back: follow-up failures are
// logged and reported through FollowUps.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	u, err := s.users.ResolveOrCreate(ctx, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "resolve user")
	}

	// Batch fetch the distinct requested products. A shortfall means at
	// least one id is unknown; reject before touching any money math.
	ids := distinctIDs(req.Items)
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	if len(fetched) < len(ids) {
		return nil, &IncompleteCatalogError{Requested: len(ids), Found: len(fetched)}
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines, subtotal, err := PriceLines(req.Items, byID, req.Language)
	if err != nil {
		return nil, err
	}

	provider, err := s.providers.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, errors.Wrap(err, "get shipping provider")
	}
	sel, err := shipping.Select(provider, req.Address)
	if err != nil {
		return nil, err
	}

	year := s.now().Year()
	seq, err := s.sequences.Next(ctx, year)
	if err != nil {
		return nil, errors.Wrap(err, "allocate invoice number")
	}

	o := &Order{
		ID:         uuid.New().String(),
		Number:     fmt.Sprintf("%d-%d", year, seq),
		Status:     StatusNew,
		Subtotal:   subtotal,
		Total:      subtotal.Add(sel.Price).Round(2),
		Lines:      lines,
		Shipping:   sel,
		UserID:     u.ID,
		Phone:      req.Phone,
		ClientName: req.ClientName,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// The order row is the source of truth from here on. Attaching it to
	// the user's history is idempotent and retried; an orphan is logged and
	// left for the reconciliation sweep, never rolled back.
	s.attachToUser(ctx, u.ID, o)

	return &PlaceOrderResult{
		Order:     o,
		FollowUps: s.runFollowUps(ctx, o, req),
	}, nil
}

// UpdateStatus applies an administrative status change, enforcing the
// lifecycle state machine.
func (s *Service) UpdateStatus(ctx context.Context, number string, next Status) (*Order, error) {
	o, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}
	if err := s.orders.UpdateStatus(ctx, number, next); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	o.Status = next
	return o, nil
}

// GetByNumber returns a placed order.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

func (s *Service) attachToUser(ctx context.Context, userID string, o *Order) {
	var err error
	for range attachRetries {
		if err = s.orders.AttachToUser(ctx, userID, o.ID); err == nil {
			return
		}
	}
	s.lg.Warn("order left unattached to user history",
		zap.String("order", o.Number),
		zap.String("user", userID),
		zap.Error(err),
	)
}

// runFollowUps executes the post-commit best-effort steps. The context is
// detached from the request so a client disconnect cannot cancel them, and
// each batch is bounded by the follow-up timeout.
func (s *Service) runFollowUps(ctx context.Context, o *Order, req PlaceOrderRequest) FollowUps {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.followUpTimeout)
	defer cancel()

	result := FollowUps{InvoiceDocument: true, CustomerMail: true, OpsAlert: true}

	invoiceRef, err := s.invoices.Generate(ctx, o, req.ClientName)
	if err != nil {
		result.InvoiceDocument = false
		invoiceRef = ""
		s.lg.Warn("invoice document generation failed",
			zap.String("order", o.Number), zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Mail goes out without the attachment when generation failed.
		if err := s.notifier.NotifyCustomer(gctx, o, req.Email, req.Language, invoiceRef); err != nil {
			result.CustomerMail = false
			s.lg.Warn("order confirmation mail failed",
				zap.String("order", o.Number), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := s.notifier.NotifyOps(gctx, o, req.Email); err != nil {
			result.OpsAlert = false
			s.lg.Warn("ops alert failed",
				zap.String("order", o.Number), zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()

	return result
}

func distinctIDs(items []ItemRequest) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

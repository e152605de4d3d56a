// Package invoice calls the external invoice-document service. The call is
// best-effort: order placement never fails because a document could not be
// produced.
package invoice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tkivila/craftshop/internal/auth"
	"github.com/tkivila/craftshop/internal/domain/order"
)

// ErrUnavailable is returned for any failure to obtain an invoice document.
var ErrUnavailable = errors.New("invoice service unavailable")

// serviceLine is the line-item shape the invoice service expects.
type serviceLine struct {
	Cnt   int             `json:"cnt"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Client generates invoice documents over HTTP, authenticating each call
// with a short-lived signed token.
type Client struct {
	endpoint   string
	tokens     *auth.TokenCodec
	httpClient *http.Client
}

// NewClient creates an invoice Client. tokens must be a codec dedicated to
// the invoice service (its own secret, short TTL). An empty endpoint yields
// a client whose Generate always reports ErrUnavailable.
func NewClient(endpoint string, tokens *auth.TokenCodec, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Generate posts the order's line items to the invoice service and returns
// an opaque document handle. The shipping provider label is included only
// when shipping actually costs something.
func (c *Client) Generate(ctx context.Context, o *order.Order, clientName string) (string, error) {
	if c.endpoint == "" {
		return "", ErrUnavailable
	}

	lines := make([]serviceLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = serviceLine{Cnt: l.Quantity, Name: l.Title, Price: l.Price}
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return "", errors.Wrap(err, "marshal lines")
	}

	form := url.Values{
		"productsJson": {string(linesJSON)},
		"client":       {clientName},
		"reference":    {o.Number},
		"login":        {c.tokens.Issue("invoice-service", "service")},
	}
	if o.Shipping.Price.IsPositive() {
		form.Set("shippingProvider", o.Shipping.ProviderName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return "", ErrUnavailable
	}
	return string(body), nil
}

// Package notify dispatches order confirmations to customers and alerts to
// the operations channel. Every send is best-effort.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tkivila/craftshop/internal/domain/content"
	"github.com/tkivila/craftshop/internal/domain/order"
)

// ErrNotConfigured is returned when a transport has no endpoint configured.
var ErrNotConfigured = errors.New("notification transport not configured")

const (
	mailGroup  = "mail"
	mailHandle = "order_complete_mail"
)

// Message is an outbound email.
type Message struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// MailClient sends email through the mail provider's HTTP API.
type MailClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewMailClient creates a MailClient posting to endpoint.
func NewMailClient(endpoint string, timeout time.Duration) *MailClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MailClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Send posts the message to the mail API.
func (c *MailClient) Send(ctx context.Context, msg Message) error {
	if c.endpoint == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send mail")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("mail api: %s", resp.Status)
	}
	return nil
}

// RenderTemplate builds the subject and body for an order confirmation from
// a content entry, substituting {{orderId}} and {{amount}} placeholders in
// the requested language (English fallback per field).
func RenderTemplate(e *content.Entry, lang, orderNumber, amount string) (subject, text string) {
	replace := func(s string) string {
		s = strings.ReplaceAll(s, "{{orderId}}", orderNumber)
		return strings.ReplaceAll(s, "{{amount}}", amount)
	}

	subject = e.Title.Get(lang)
	if subject == "" {
		subject = "Order nr " + orderNumber
	} else {
		subject = replace(subject)
	}

	paragraphs := make([]string, 0, len(e.Paragraphs))
	for _, p := range e.Paragraphs {
		if v := p.Get(lang); v != "" {
			paragraphs = append(paragraphs, replace(v))
		}
	}
	return subject, strings.Join(paragraphs, "\n")
}

// Dispatcher implements order.Notifier on top of the mail and alert clients.
type Dispatcher struct {
	contents content.Repository
	mail     *MailClient
	alerts   *TelegramClient
}

var _ order.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher.
func NewDispatcher(contents content.Repository, mail *MailClient, alerts *TelegramClient) *Dispatcher {
	return &Dispatcher{contents: contents, mail: mail, alerts: alerts}
}

// NotifyCustomer sends the localized order confirmation. invoiceRef may be
// empty when document generation degraded; the mail still goes out, just
// without an attachment.
func (d *Dispatcher) NotifyCustomer(ctx context.Context, o *order.Order, email, language, invoiceRef string) error {
	e, err := d.contents.GetByHandle(ctx, mailGroup, mailHandle)
	if err != nil {
		return errors.Wrap(err, "load mail template")
	}

	subject, text := RenderTemplate(e, language, o.Number, o.Total.StringFixed(2))
	return d.mail.Send(ctx, Message{
		To:         email,
		Subject:    subject,
		Text:       text,
		Attachment: invoiceRef,
	})
}

// NotifyOps posts a short alert about the new order to the operations chat.
func (d *Dispatcher) NotifyOps(ctx context.Context, o *order.Order, email string) error {
	return d.alerts.Send(ctx,
		"New order "+o.Number+" for "+o.Total.StringFixed(2)+" from "+email)
}

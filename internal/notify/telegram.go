package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const telegramAPI = "https://api.telegram.org"

// TelegramClient posts alerts to the operations chat via the Telegram bot API.
type TelegramClient struct {
	baseURL    string
	botToken   string
	chatID     string
	httpClient *http.Client
}

// NewTelegramClient creates a TelegramClient. An empty botToken yields a
// client whose Send reports ErrNotConfigured.
func NewTelegramClient(botToken, chatID string, timeout time.Duration) *TelegramClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramClient{
		baseURL:  telegramAPI,
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Send posts text to the configured chat.
func (c *TelegramClient) Send(ctx context.Context, text string) error {
	if c.botToken == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{
		"chat_id": c.chatID,
		"text":    text,
	})
	if err != nil {
		return errors.Wrap(err, "marshal alert")
	}

	url := c.baseURL + "/bot" + c.botToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send alert")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("telegram api: %s", resp.Status)
	}
	return nil
}

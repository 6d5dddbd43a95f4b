package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
)

const (
	maxRetries      = 3
	initialInterval = 200 * time.Millisecond
)

// Client talks to a Paystack-compatible transfer API. Network failures
// and 5xx responses are retried with backoff; 4xx responses are final
// and map to domain.ErrTransferRejected.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Client.
func NewClient(baseURL, secretKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateRecipient registers a payout destination and returns its
// recipient code.
func (c *Client) CreateRecipient(ctx context.Context, account domain.BankAccount) (string, error) {
	payload := map[string]string{
		"type":           "nuban",
		"name":           account.AccountName,
		"account_number": account.AccountNumber,
		"bank_code":      account.BankCode,
	}

	data, err := c.post(ctx, "/transferrecipient", payload)
	if err != nil {
		return "", err
	}

	var out struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode recipient response: %w", err)
	}
	if out.RecipientCode == "" {
		return "", fmt.Errorf("%w: missing recipient code", domain.ErrTransferRejected)
	}

	return out.RecipientCode, nil
}

// InitiateTransfer starts a transfer to a recipient and returns the
// transfer code. Completion arrives later via webhook.
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference string) (string, error) {
	payload := map[string]any{
		"source":    "balance",
		"amount":    amount,
		"recipient": recipientCode,
		"reference": reference,
	}

	data, err := c.post(ctx, "/transfer", payload)
	if err != nil {
		return "", err
	}

	var out struct {
		TransferCode string `json:"transfer_code"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode transfer response: %w", err)
	}
	if out.TransferCode == "" {
		return "", fmt.Errorf("%w: missing transfer code", domain.ErrTransferRejected)
	}

	return out.TransferCode, nil
}

// VerifySignature checks a webhook body against its HMAC-SHA512 signature.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var data json.RawMessage

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("paystack %s: http %d", path, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%w: http %d: %s", domain.ErrTransferRejected, resp.StatusCode, raw))
		}

		var parsed apiResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		if !parsed.Status {
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrTransferRejected, parsed.Message))
		}

		data = parsed.Data
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(initialInterval),
	), maxRetries)

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("paystack request failed")
		return nil, err
	}

	return data, nil
}

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPNotifier posts notification events to an external dispatcher.
// Delivery is best effort; callers treat a returned error as loggable,
// never as a reason to fail the operation that produced the event.
type HTTPNotifier struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a new HTTPNotifier.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type notification struct {
	UserID  string         `json:"user_id"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Notify sends one event for one user.
func (n *HTTPNotifier) Notify(ctx context.Context, userID, event string, payload map[string]any) error {
	body, err := json.Marshal(notification{
		UserID:  userID,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: http %d", resp.StatusCode)
	}

	return nil
}

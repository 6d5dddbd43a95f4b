package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ovik/wagerd/internal/domain"
)

// Client asks an external resolver service to propose the outcome of an
// expired wager. Callers decide whether the proposal is decisive; this
// client only reports what the service said.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type resolveRequest struct {
	WagerID     string `json:"wager_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SideALabel  string `json:"side_a_label"`
	SideBLabel  string `json:"side_b_label"`
	Deadline    string `json:"deadline"`
}

type resolveResponse struct {
	WinningSide *string `json:"winning_side"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// ProposeOutcome submits the wager to the resolver service.
func (c *Client) ProposeOutcome(ctx context.Context, wager *domain.Wager) (*domain.OutcomeProposal, error) {
	body, err := json.Marshal(resolveRequest{
		WagerID:     wager.ID,
		Title:       wager.Title,
		Description: wager.Description,
		SideALabel:  wager.SideALabel,
		SideBLabel:  wager.SideBLabel,
		Deadline:    wager.Deadline.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resolve", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver: http %d", resp.StatusCode)
	}

	var out resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("resolver: failed to decode response: %w", err)
	}

	proposal := &domain.OutcomeProposal{
		Confidence: out.Confidence,
		Reasoning:  out.Reasoning,
	}
	if out.WinningSide != nil {
		side := domain.Side(*out.WinningSide)
		if side.Valid() {
			proposal.WinningSide = &side
		}
	}

	return proposal, nil
}

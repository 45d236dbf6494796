package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	effectLookupPath    = "/api/v1/ledger/effects/%s"
	commandDispatchPath = "/api/v1/ledger/commands"
)

// Client talks to the downstream accounting ledger service. It implements
// both reconciliation ports: AccountingLookup for the effect-exists probe
// and CommandHandler for redispatching a decoded command.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a ledger client from configuration
func NewClient(cfg config.AccountingConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// EffectExists reports whether the ledger already holds an accounting
// effect for the transaction reference. Network and server failures are
// transient: the caller retries on a later tick rather than guessing.
func (c *Client) EffectExists(ctx context.Context, txRef string) (bool, error) {
	url := c.baseURL + fmt.Sprintf(effectLookupPath, txRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("accounting: build effect lookup request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: effect lookup: %v", shared.ErrTransientDownstream, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("%w: effect lookup returned %d: %s",
			shared.ErrTransientDownstream, resp.StatusCode, string(body))
	}
}

// dispatchRequest is the wire form of a redispatched accounting command
type dispatchRequest struct {
	CommandTag string                 `json:"commandTag"`
	Command    reconciliation.Command `json:"command"`
}

// Handle redispatches a decoded command to the ledger. A 2xx response
// means the effect was posted (or already existed; the ledger dedupes on
// transaction reference). 4xx responses are permanent: the same payload
// will be rejected again tomorrow. Everything else is transient.
func (c *Client) Handle(ctx context.Context, cmd reconciliation.Command) error {
	body, err := json.Marshal(dispatchRequest{
		CommandTag: cmd.CommandTag(),
		Command:    cmd,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal command %s: %v", shared.ErrPermanentPayload, cmd.CommandTag(), err)
	}

	url := c.baseURL + commandDispatchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("accounting: build dispatch request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: dispatch %s: %v", shared.ErrTransientDownstream, cmd.CommandTag(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: ledger rejected %s with %d: %s",
			shared.ErrPermanentPayload, cmd.CommandTag(), resp.StatusCode, string(respBody))
	}
	return fmt.Errorf("%w: dispatch %s returned %d: %s",
		shared.ErrTransientDownstream, cmd.CommandTag(), resp.StatusCode, string(respBody))
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

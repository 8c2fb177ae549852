// Package chainhook registers the monitoring subscription with the
// upstream notification provider. Registration is a one-shot call: a
// failure is reported to the caller, who decides whether it is fatal
// (it is not at service startup, since the predicate may already be
// registered from a prior run).
package chainhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Predicate is the provider-side subscription descriptor.
type Predicate struct {
	UUID     string             `json:"uuid"`
	Name     string             `json:"name"`
	Version  int                `json:"version"`
	Chain    string             `json:"chain"`
	Networks map[string]Network `json:"networks"`
}

// Network binds a trigger condition to a delivery action for one
// network.
type Network struct {
	IfThis   IfThis   `json:"if_this"`
	ThenThat ThenThat `json:"then_that"`
}

// IfThis matches contract-call activity on the monitored contract.
type IfThis struct {
	Scope              string `json:"scope"`
	ContractIdentifier string `json:"contract_identifier"`
	Method             string `json:"method"`
}

// ThenThat describes webhook delivery.
type ThenThat struct {
	HTTPPost HTTPPost `json:"http_post"`
}

// HTTPPost carries the delivery URL and the authorization header the
// provider sends back with each payload.
type HTTPPost struct {
	URL                 string `json:"url"`
	AuthorizationHeader string `json:"authorization_header"`
}

// NewContractCallPredicate builds a wildcard contract-call predicate
// delivering to webhookURL on the given network.
func NewContractCallPredicate(contract, network, webhookURL, apiKey string) Predicate {
	return Predicate{
		UUID:    uuid.NewString(),
		Name:    fmt.Sprintf("stackwatch %s", contract),
		Version: 1,
		Chain:   "stacks",
		Networks: map[string]Network{
			network: {
				IfThis: IfThis{
					Scope:              "contract_call",
					ContractIdentifier: contract,
					Method:             "*",
				},
				ThenThat: ThenThat{
					HTTPPost: HTTPPost{
						URL:                 webhookURL,
						AuthorizationHeader: "Bearer " + apiKey,
					},
				},
			},
		},
	}
}

// Client submits predicates to the provider's registration endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a registration client for the given endpoint.
func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Register submits one predicate. Any non-2xx status is an error.
func (c *Client) Register(ctx context.Context, pred Predicate) error {
	body, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("marshal predicate: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post predicate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("register predicate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	c.logger.Info("predicate registered",
		zap.String("uuid", pred.UUID),
		zap.String("endpoint", c.endpoint),
	)
	return nil
}

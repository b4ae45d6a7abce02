// Package subgraph implements the client for the external reference-data
// source: a GraphQL endpoint serving this indexer's allocations, payer escrow
// balances, and the network's dispute-manager address.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/PanGan21/indexer-go/model/payments"
)

const (
	requestTimeout    = 10 * time.Second
	retryBaseDelay    = 500 * time.Millisecond
	maxRequestRetries = 3
)

// Client queries one subgraph endpoint. Transient transport failures are
// retried with fibonacci backoff inside a single Fetch; persistent failures
// surface to the calling syncer, which keeps its stale snapshot and retries
// on its own schedule.
type Client struct {
	name     string
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

func NewClient(log zerolog.Logger, name string, endpoint string) *Client {
	return &Client{
		name:     name,
		endpoint: endpoint,
		http:     &http.Client{Timeout: requestTimeout},
		log:      log.With().Str("subgraph", name).Logger(),
	}
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("could not encode query: %w", err)
	}

	backoff := retry.WithMaxRetries(maxRequestRetries, retry.NewFibonacci(retryBaseDelay))
	var data json.RawMessage
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("could not build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request failed: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("subgraph returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("subgraph returned status %d", resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("could not read response: %w", err))
		}
		var parsed response
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("could not decode response: %w", err)
		}
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("subgraph error: %s", parsed.Errors[0].Message)
		}
		data = parsed.Data
		return nil
	})
	if err != nil {
		return fmt.Errorf("query against %s subgraph failed: %w", c.name, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode %s subgraph data: %w", c.name, err)
	}
	return nil
}

const allocationsQuery = `
query ($indexer: String!) {
  allocations(where: { indexer: $indexer }) {
    id
    subgraphDeployment { id }
    createdAtEpoch
    closedAtEpoch
  }
}`

// Allocations returns the indexer's allocations, open and recently closed.
func (c *Client) Allocations(ctx context.Context, indexer common.Address) ([]*payments.Allocation, error) {
	var data struct {
		Allocations []struct {
			ID                 string `json:"id"`
			SubgraphDeployment struct {
				ID string `json:"id"`
			} `json:"subgraphDeployment"`
			CreatedAtEpoch uint64 `json:"createdAtEpoch"`
			ClosedAtEpoch  uint64 `json:"closedAtEpoch"`
		} `json:"allocations"`
	}
	err := c.execute(ctx, allocationsQuery, map[string]interface{}{"indexer": indexer.Hex()}, &data)
	if err != nil {
		return nil, err
	}

	allocations := make([]*payments.Allocation, 0, len(data.Allocations))
	for _, raw := range data.Allocations {
		if !common.IsHexAddress(raw.ID) {
			return nil, fmt.Errorf("invalid allocation id %q", raw.ID)
		}
		allocations = append(allocations, &payments.Allocation{
			ID:             common.HexToAddress(raw.ID),
			Deployment:     payments.DeploymentID(common.HexToHash(raw.SubgraphDeployment.ID)),
			CreatedAtEpoch: raw.CreatedAtEpoch,
			ClosedAtEpoch:  raw.ClosedAtEpoch,
		})
	}
	return allocations, nil
}

const escrowQuery = `
query ($receiver: String!) {
  escrowAccounts(where: { receiver: $receiver }) {
    sender { id }
    balance
  }
}`

// EscrowAccounts returns escrow balances per payer for this indexer.
func (c *Client) EscrowAccounts(ctx context.Context, indexer common.Address) (map[common.Address]*big.Int, error) {
	var data struct {
		EscrowAccounts []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Balance string `json:"balance"`
		} `json:"escrowAccounts"`
	}
	err := c.execute(ctx, escrowQuery, map[string]interface{}{"receiver": indexer.Hex()}, &data)
	if err != nil {
		return nil, err
	}

	balances := make(map[common.Address]*big.Int, len(data.EscrowAccounts))
	for _, raw := range data.EscrowAccounts {
		if !common.IsHexAddress(raw.Sender.ID) {
			return nil, fmt.Errorf("invalid payer address %q", raw.Sender.ID)
		}
		balance, ok := new(big.Int).SetString(raw.Balance, 10)
		if !ok {
			return nil, fmt.Errorf("invalid escrow balance %q for payer %s", raw.Balance, raw.Sender.ID)
		}
		balances[common.HexToAddress(raw.Sender.ID)] = balance
	}
	return balances, nil
}

const disputeManagerQuery = `
query {
  graphNetwork(id: "1") {
    disputeManager
  }
}`

// DisputeManager returns the network's dispute-manager address.
func (c *Client) DisputeManager(ctx context.Context) (common.Address, error) {
	var data struct {
		GraphNetwork struct {
			DisputeManager string `json:"disputeManager"`
		} `json:"graphNetwork"`
	}
	err := c.execute(ctx, disputeManagerQuery, nil, &data)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(data.GraphNetwork.DisputeManager) {
		return common.Address{}, fmt.Errorf("invalid dispute manager address %q", data.GraphNetwork.DisputeManager)
	}
	return common.HexToAddress(data.GraphNetwork.DisputeManager), nil
}

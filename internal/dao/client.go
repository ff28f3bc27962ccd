package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Client wraps interactions with the governance node's JSON-RPC endpoint.
// It only formats and posts the three governance calls; signing and contract
// ABI handling live with the node.
type Client struct {
	nodeURL    string
	contract   string
	chainID    int64
	httpClient *http.Client
	nextID     atomic.Int64
}

// NewClient constructs a new client.
func NewClient(nodeURL, contract string, chainID int64) *Client {
	return &Client{
		nodeURL:  nodeURL,
		contract: contract,
		chainID:  chainID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Ping checks if the governance node answers JSON-RPC calls.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "web3_clientVersion")
	return err
}

// Propose submits a new governance proposal and returns its id.
func (c *Client) Propose(ctx context.Context, proposer, description string) (string, error) {
	result, err := c.call(ctx, "cq_propose", map[string]any{
		"contract":    c.contract,
		"chainId":     c.chainID,
		"proposer":    proposer,
		"description": description,
	})
	if err != nil {
		return "", err
	}
	var proposalID string
	if err := json.Unmarshal(result, &proposalID); err != nil {
		return "", fmt.Errorf("dao: decode proposal id: %w", err)
	}
	return proposalID, nil
}

// CastVote records a vote on a proposal. support is 0 against, 1 for,
// 2 abstain.
func (c *Client) CastVote(ctx context.Context, voter, proposalID string, support int) (string, error) {
	result, err := c.call(ctx, "cq_castVote", map[string]any{
		"contract":   c.contract,
		"chainId":    c.chainID,
		"voter":      voter,
		"proposalId": proposalID,
		"support":    support,
	})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("dao: decode vote tx: %w", err)
	}
	return txHash, nil
}

// Execute runs a passed proposal and returns the execution tx hash.
func (c *Client) Execute(ctx context.Context, proposalID string) (string, error) {
	result, err := c.call(ctx, "cq_execute", map[string]any{
		"contract":   c.contract,
		"chainId":    c.chainID,
		"proposalId": proposalID,
	})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("dao: decode execution tx: %w", err)
	}
	return txHash, nil
}

func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("dao node returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("dao: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

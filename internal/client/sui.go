package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

const (
	// SUICoinType is the native coin type.
	SUICoinType = "0x2::sui::SUI"

	executeRequestType = "WaitForLocalExecution"
)

var ErrNameNotFound = errors.New("name not registered")

// Balance is the suix_getBalance result.
type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

// Coin is one coin object owned by an address.
type Coin struct {
	CoinType            string `json:"coinType"`
	CoinObjectID        string `json:"coinObjectId"`
	Version             string `json:"version"`
	Digest              string `json:"digest"`
	Balance             string `json:"balance"`
	PreviousTransaction string `json:"previousTransaction"`
}

// CoinPage is one page of suix_getCoins.
type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// CoinMetadata is the suix_getCoinMetadata result.
type CoinMetadata struct {
	Decimals int    `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

type executeOptions struct {
	ShowEffects bool `json:"showEffects"`
	ShowEvents  bool `json:"showEvents"`
}

// SuiClient is a JSON-RPC client for a Sui fullnode
type SuiClient struct {
	rpcClient jsonrpc.RPCClient
	rpcURL    string
}

// NewSuiClient creates a client for the fullnode at rpcURL.
func NewSuiClient(rpcURL string) *SuiClient {
	return &SuiClient{
		rpcClient: jsonrpc.NewClient(rpcURL),
		rpcURL:    rpcURL,
	}
}

// Close releases the underlying HTTP client.
func (c *SuiClient) Close() error {
	return c.rpcClient.Close()
}

func (c *SuiClient) call(ctx context.Context, out any, method string, params ...any) error {
	if err := c.rpcClient.CallForInto(ctx, out, method, params); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}

// GetBalance returns the total balance of coinType owned by owner. An empty
// coinType means SUI.
func (c *SuiClient) GetBalance(ctx context.Context, owner, coinType string) (*Balance, error) {
	if coinType == "" {
		coinType = SUICoinType
	}

	var out Balance
	if err := c.call(ctx, &out, "suix_getBalance", owner, coinType); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCoins returns one page of coin objects. cursor is nil for the first
// page; limit 0 lets the node choose.
func (c *SuiClient) GetCoins(ctx context.Context, owner, coinType string, cursor *string, limit uint) (*CoinPage, error) {
	if coinType == "" {
		coinType = SUICoinType
	}

	var lim any
	if limit > 0 {
		lim = limit
	}

	var out CoinPage
	if err := c.call(ctx, &out, "suix_getCoins", owner, coinType, cursor, lim); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCoinMetadata returns display metadata of coinType.
func (c *SuiClient) GetCoinMetadata(ctx context.Context, coinType string) (*CoinMetadata, error) {
	var out CoinMetadata
	if err := c.call(ctx, &out, "suix_getCoinMetadata", coinType); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteTransactionBlock submits signed transaction bytes (base64) and
// returns the node's response unchanged.
func (c *SuiClient) ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string) (json.RawMessage, error) {
	var out json.RawMessage
	opts := executeOptions{ShowEffects: true, ShowEvents: true}
	if err := c.call(ctx, &out, "sui_executeTransactionBlock", txBytes, signatures, opts, executeRequestType); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveNameServiceAddress resolves a SuiNS name such as "alice.sui".
func (c *SuiClient) ResolveNameServiceAddress(ctx context.Context, name string) (string, error) {
	var out *string
	if err := c.call(ctx, &out, "suix_resolveNameServiceAddress", name); err != nil {
		return "", err
	}
	if out == nil || *out == "" {
		return "", ErrNameNotFound
	}
	return *out, nil
}

package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	log "github.com/colorfulnotion/polyjuice/log"
	"github.com/colorfulnotion/polyjuice/types"
)

// RPCClient is the interface for making JSON-RPC calls.
type RPCClient interface {
	Call(method string, params interface{}, result interface{}) error
}

// HTTPClient is an RPCClient over plain HTTP POST.
type HTTPClient struct {
	url    string
	client *http.Client
	nextID uint64
}

func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
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

// Call posts one JSON-RPC request and unmarshals the result.
func (c *HTTPClient) Call(method string, params interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      atomic.AddUint64(&c.nextID, 1),
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("%s: %w", method, decoded.Error)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(decoded.Result, result)
}

// ChainClient wraps the node methods the indexer and call service need.
type ChainClient struct {
	client RPCClient
}

func NewChainClient(client RPCClient) *ChainClient {
	return &ChainClient{client: client}
}

// DialChain connects a ChainClient to a node RPC URL.
func DialChain(url string) *ChainClient {
	return NewChainClient(NewHTTPClient(url))
}

// GetTipBlockNumber returns the current chain tip height.
func (c *ChainClient) GetTipBlockNumber() (uint64, error) {
	var result string
	if err := c.client.Call("get_tip_block_number", []interface{}{}, &result); err != nil {
		return 0, err
	}
	number, err := parseHexUint64(result)
	if err != nil {
		return 0, fmt.Errorf("get_tip_block_number: %w", err)
	}
	return number, nil
}

// GetBlockByNumber fetches a full block by height.
func (c *ChainClient) GetBlockByNumber(number uint64) (*types.Block, error) {
	var block types.Block
	param := fmt.Sprintf("0x%x", number)
	if err := c.client.Call("get_block_by_number", []interface{}{param}, &block); err != nil {
		return nil, err
	}
	log.Trace(log.ChainMonitoring, "fetched block", "number", number, "txs", len(block.Transactions))
	return &block, nil
}

// SendTransaction submits a signed transaction, returning its hash.
func (c *ChainClient) SendTransaction(tx *types.Transaction) (string, error) {
	var hash string
	if err := c.client.Call("send_transaction", []interface{}{tx}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

func parseHexUint64(s string) (uint64, error) {
	if len(s) < 3 || s[:2] != "0x" {
		return 0, fmt.Errorf("invalid hex quantity: %q", s)
	}
	return strconv.ParseUint(s[2:], 16, 64)
}

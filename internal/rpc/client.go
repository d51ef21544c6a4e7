// Package rpc is a minimal JSON-RPC 2.0 client for Ethereum execution
// clients, covering the calls the comparison harness needs: callTracer
// traces, receipt polling, and endpoint diagnostics.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tracekit/tracediff"
)

// Client talks JSON-RPC 2.0 over HTTP to a single endpoint.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// NewClient creates a Client for the given endpoint URL with a 30 second
// request timeout.
func NewClient(url string) *Client {
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RPCError is a JSON-RPC error object returned by the endpoint.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call invokes one JSON-RPC method and returns the raw result. A non-nil
// error object in the response surfaces as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rpc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpRes, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: %s: %w", method, err)
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc: %s: unexpected status %d", method, httpRes.StatusCode)
	}

	var res response
	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("rpc: %s: decode response: %w", method, err)
	}
	if res.Error != nil {
		return nil, fmt.Errorf("rpc: %s: %w", method, res.Error)
	}
	return res.Result, nil
}

// tracerConfig selects the callTracer with log collection disabled, the
// configuration both clients support.
var tracerConfig = map[string]any{"tracer": "callTracer"}

// TraceTransaction fetches the callTracer output for a transaction and
// decodes it into a trace tree. Satisfies tracediff.TraceFetcher.
func (c *Client) TraceTransaction(ctx context.Context, txHash string) (tracediff.Value, error) {
	raw, err := c.Call(ctx, "debug_traceTransaction", txHash, tracerConfig)
	if err != nil {
		return tracediff.Value{}, err
	}
	v, err := tracediff.Parse(raw)
	if err != nil {
		return tracediff.Value{}, fmt.Errorf("rpc: parse trace for %s: %w", txHash, err)
	}
	return v, nil
}

// WaitMined polls eth_getTransactionReceipt until the transaction is mined
// or ctx expires. Poll interval is one second.
func (c *Client) WaitMined(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		raw, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
		if err != nil {
			return err
		}
		if len(raw) > 0 && string(raw) != "null" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("rpc: waiting for %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// CheckResult is the outcome of one diagnostic probe.
type CheckResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
	Err     string `json:"error,omitempty"`
}

// diagnosticMethods are the read-only probes Diagnose runs, in order.
var diagnosticMethods = []string{"web3_clientVersion", "eth_blockNumber", "eth_chainId"}

// Diagnose probes the endpoint: basic HTTP reachability, then a set of
// read-only RPC methods. It never returns an error; failures are reported
// per-check.
func (c *Client) Diagnose(ctx context.Context) []CheckResult {
	results := []CheckResult{c.checkConnectivity(ctx)}
	for _, method := range diagnosticMethods {
		results = append(results, c.checkMethod(ctx, method))
	}
	return results
}

func (c *Client) checkConnectivity(ctx context.Context) CheckResult {
	check := CheckResult{Name: "connectivity"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		check.Err = err.Error()
		return check
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		check.Err = err.Error()
		return check
	}
	res.Body.Close()

	// 405 on GET means the endpoint exists but only accepts POST, which is
	// normal for JSON-RPC servers.
	check.Success = res.StatusCode == http.StatusOK || res.StatusCode == http.StatusMethodNotAllowed
	check.Detail = fmt.Sprintf("status %d", res.StatusCode)
	return check
}

func (c *Client) checkMethod(ctx context.Context, method string) CheckResult {
	check := CheckResult{Name: method}
	raw, err := c.Call(ctx, method)
	if err != nil {
		check.Err = err.Error()
		return check
	}
	check.Success = true
	check.Detail = string(raw)
	return check
}

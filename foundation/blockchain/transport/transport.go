// Package transport implements the node to node protocol over HTTP. Every
// call maps the peer response onto a small set of errors so the state
// package can decide what a failure means.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// Set of errors returned by the transport.
var (
	ErrDeclined    = errors.New("peer declined")
	ErrConflict    = errors.New("peer reported a conflict")
	ErrUnreachable = errors.New("peer unreachable")
)

const baseURL = "http://%s/v1/node"

// DefaultTimeout bounds a single request when no other deadline applies.
const DefaultTimeout = 5 * time.Second

// BlockEnvelope is the body used to broadcast a block.
type BlockEnvelope struct {
	Block database.Block `json:"block"`
}

// =============================================================================

// HTTP sends and requests ledger data from peers over HTTP.
type HTTP struct {
	client *http.Client
}

// New constructs an HTTP transport with the specified request timeout.
func New(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTP{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendTransaction relays a transaction to the peer.
func (h *HTTP) SendTransaction(ctx context.Context, host string, tx database.Transaction) error {
	url := fmt.Sprintf("%s/tx/broadcast", fmt.Sprintf(baseURL, host))
	return h.send(ctx, http.MethodPost, url, tx, nil)
}

// SendBlock offers a newly mined block to the peer.
func (h *HTTP) SendBlock(ctx context.Context, host string, block database.Block) error {
	url := fmt.Sprintf("%s/block/broadcast", fmt.Sprintf(baseURL, host))
	return h.send(ctx, http.MethodPost, url, BlockEnvelope{Block: block}, nil)
}

// FetchChain requests the full chain held by the peer.
func (h *HTTP) FetchChain(ctx context.Context, host string) ([]database.Block, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, host))

	var chain []database.Block
	if err := h.send(ctx, http.MethodGet, url, nil, &chain); err != nil {
		return nil, err
	}

	return chain, nil
}

// FetchStatus requests the status of the peer.
func (h *HTTP) FetchStatus(ctx context.Context, host string) (peer.Status, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, host))

	var status peer.Status
	if err := h.send(ctx, http.MethodGet, url, nil, &status); err != nil {
		return peer.Status{}, err
	}

	return status, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func (h *HTTP) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, readMessage(resp.Body))

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status[%d]: %s", ErrDeclined, resp.StatusCode, readMessage(resp.Body))
	}

	if dataRecv != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// readMessage pulls the error message out of a failed response.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return err.Error()
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}

	return strings.TrimSpace(string(data))
}

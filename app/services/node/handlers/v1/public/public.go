// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/nameservice"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// submitRules maps the admission errors to the status reported to clients.
var submitRules = []errs.Rule{
	{Target: state.ErrInvalidSignature, Status: http.StatusBadRequest},
	{Target: state.ErrInvalidAmount, Status: http.StatusBadRequest},
	{Target: state.ErrRewardSender, Status: http.StatusBadRequest},
	{Target: state.ErrInsufficientFunds, Status: http.StatusBadRequest},
	{Target: state.ErrMiningUnavailable, Status: http.StatusBadRequest},
	{Target: state.ErrPeerDeclined, Status: http.StatusBadGateway},
}

// mineRules maps the mining errors to the status reported to clients.
var mineRules = []errs.Rule{
	{Target: state.ErrMiningUnavailable, Status: http.StatusBadRequest},
	{Target: state.ErrChainAdvanced, Status: http.StatusConflict},
}

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	NS      *nameservice.NameService
	WS      websocket.Upgrader
	Evts    *events.Events
	KeyPath string
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			// The connection is hijacked, a write failure means the client
			// went away and nothing can be written back.
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				h.Log.Infow("events", "traceid", v.TraceID, "status", "client disconnected", "ERROR", err)
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// CreateWallet generates a new node identity and stores the key.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := identity.Generate()
	if err != nil {
		return err
	}

	if err := id.Save(h.KeyPath); err != nil {
		return fmt.Errorf("saving the wallet: %w", err)
	}

	h.State.SetIdentity(id)

	return web.Respond(ctx, w, h.wallet(id.PublicKey()), http.StatusCreated)
}

// LoadWallet loads the stored node identity.
func (h Handlers) LoadWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := identity.Load(h.KeyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.NewTrusted(errors.New("no wallet has been created"), http.StatusNotFound)
		}
		return err
	}

	h.State.SetIdentity(id)

	return web.Respond(ctx, w, h.wallet(id.PublicKey()), http.StatusOK)
}

// Balance returns the balance of the specified account or of the node
// identity when no account is provided.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")
	if account == "" {
		account = h.State.RetrieveIdentity()
		if account == "" {
			return errs.NewTrusted(state.ErrMiningUnavailable, http.StatusBadRequest)
		}
	}

	bal := balance{
		Account: account,
		Name:    h.NS.Lookup(account),
		Funds:   h.State.Balance(account),
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// SubmitTransaction signs a transfer with the node identity and adds it to
// the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx NewTx
	if err := web.Decode(r, &ntx); err != nil {
		return decodeError(err)
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "recipient", ntx.Recipient, "amount", *ntx.Amount)

	tran, err := h.State.SubmitLocal(ctx, ntx.Recipient, *ntx.Amount)
	if err != nil {
		return errs.Map(err, submitRules...)
	}

	resp := submitted{
		Message:     "transaction added to mempool",
		Transaction: tran,
		Funds:       h.State.Balance(tran.Sender),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// SubmitSigned adds a transfer signed outside of the node to the mempool.
func (h Handlers) SubmitSigned(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var stx SignedTx
	if err := web.Decode(r, &stx); err != nil {
		return decodeError(err)
	}

	tran := stx.ToTransaction()

	h.Log.Infow("submit signed tx", "traceid", v.TraceID, "tx", tran)

	if err := h.State.SubmitTransaction(ctx, tran, false); err != nil {
		return errs.Map(err, submitRules...)
	}

	resp := submitted{
		Message:     "transaction added to mempool",
		Transaction: tran,
		Funds:       h.State.Balance(tran.Sender),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.RetrieveMempool()

	trans := make([]tx, len(pool))
	for i, tran := range pool {
		trans[i] = tx{
			Sender:        tran.Sender,
			SenderName:    h.NS.Lookup(tran.Sender),
			Recipient:     tran.Recipient,
			RecipientName: h.NS.Lookup(tran.Recipient),
			Signature:     tran.Signature,
			Amount:        tran.Amount,
		}
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// VerifyPool reports whether every pooled transaction has a valid signature.
func (h Handlers) VerifyPool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid bool `json:"valid"`
	}{
		Valid: h.State.VerifyPool(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine mines the mempool into a new block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.ResolveConflicts() {
		return errs.NewTrusted(errors.New("resolve conflicts first, block not added"), http.StatusConflict)
	}

	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return errs.Map(err, mineRules...)
	}

	resp := mined{
		Message: "block added successfully",
		Block:   block,
		Funds:   h.State.Balance(""),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Resolve replaces the local chain with the longest valid peer chain.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := resolved{
		Replaced: h.State.Resolve(ctx),
		Message:  "local chain kept",
	}
	if resp.Replaced {
		resp.Message = "local chain was replaced"
	}
	resp.Chain = h.State.RetrieveChain()

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// AddPeer adds a node to the known peers.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var np NewPeer
	if err := web.Decode(r, &np); err != nil {
		return decodeError(err)
	}

	if !h.State.AddKnownPeer(peer.New(np.Node)) {
		return errs.NewTrusted(fmt.Errorf("peer %q not added", np.Node), http.StatusBadRequest)
	}

	resp := peers{
		Message:  "node added",
		AllNodes: h.hosts(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// RemovePeer removes a node from the known peers.
func (h Handlers) RemovePeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	host := web.Param(r, "host")

	if !h.State.RemoveKnownPeer(peer.New(host)) {
		return errs.NewTrusted(fmt.Errorf("peer %q not found", host), http.StatusNotFound)
	}

	resp := peers{
		Message:  "node removed",
		AllNodes: h.hosts(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, peers{AllNodes: h.hosts()}, http.StatusOK)
}

// Names returns the name service mapping of public keys to names.
func (h Handlers) Names(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.NS.Copy(), http.StatusOK)
}

// =============================================================================

func (h Handlers) wallet(publicKey string) wallet {
	return wallet{
		PublicKey: publicKey,
		Name:      h.NS.Lookup(publicKey),
		Funds:     h.State.Balance(publicKey),
	}
}

func (h Handlers) hosts() []string {
	known := h.State.RetrieveKnownPeers()

	hosts := make([]string, len(known))
	for i, pr := range known {
		hosts[i] = pr.Host
	}
	return hosts
}

// decodeError reports a payload the handler could not use as a bad request.
func decodeError(err error) error {
	if errs.IsTrusted(err) || validate.IsFieldErrors(err) {
		return err
	}

	return errs.NewTrusted(err, http.StatusBadRequest)
}

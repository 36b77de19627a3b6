// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/validate"
	"github.com/ardanlabs/powchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// BroadcastTransaction adds a transaction relayed by a peer to the mempool.
// The transaction is not shared any further.
func (h Handlers) BroadcastTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var rtx RelayTx
	if err := web.Decode(r, &rtx); err != nil {
		return badRequest(err)
	}

	tx := database.NewTransaction(rtx.Sender, rtx.Recipient, rtx.Signature, *rtx.Amount)

	h.Log.Infow("relay tx", "traceid", v.TraceID, "tx", tx)

	err = h.State.SubmitTransaction(ctx, tx, true)
	if err != nil {
		return errs.Map(err,
			errs.Rule{Target: state.ErrInvalidSignature, Status: http.StatusBadRequest},
			errs.Rule{Target: state.ErrInvalidAmount, Status: http.StatusBadRequest},
			errs.Rule{Target: state.ErrRewardSender, Status: http.StatusBadRequest},
			errs.Rule{Target: state.ErrInsufficientFunds, Status: http.StatusBadRequest},
		)
	}

	resp := relayed{
		Message:     "transaction added to mempool",
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// BroadcastBlock takes a block mined by a peer. A block that extends the
// local chain is validated and added. A block further ahead marks the node
// for conflict resolution. A block at or behind the local tip is refused.
func (h Handlers) BroadcastBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pb ProposedBlock
	if err := web.Decode(r, &pb); err != nil {
		return badRequest(err)
	}

	block := *pb.Block

	h.Log.Infow("proposed block", "traceid", v.TraceID, "index", block.Index, "prevhash", block.PreviousHash)

	err = h.State.ProcessProposedBlock(block)
	switch {
	case err == nil:
		return web.Respond(ctx, w, proposed{Message: "block added", Block: block}, http.StatusCreated)

	case errors.Is(err, state.ErrChainAhead):
		resp := proposed{
			Message: "blockchain seems to differ from local blockchain",
			Block:   block,
		}
		return web.Respond(ctx, w, resp, http.StatusOK)

	default:
		return errs.Map(err,
			errs.Rule{Target: state.ErrChainBehind, Status: http.StatusConflict},
			errs.Rule{Target: state.ErrInvalidBlock, Status: http.StatusConflict},
		)
	}
}

// Chain returns the full chain for a peer to compare against.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

func badRequest(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}

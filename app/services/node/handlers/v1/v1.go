// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/powchain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/powchain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/nameservice"
	"github.com/ardanlabs/powchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	NS      *nameservice.NameService
	Evts    *events.Events
	KeyPath string
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		NS:      cfg.NS,
		Evts:    cfg.Evts,
		KeyPath: cfg.KeyPath,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodPost, version, "/wallet", pbl.CreateWallet)
	app.Handle(http.MethodGet, version, "/wallet", pbl.LoadWallet)
	app.Handle(http.MethodGet, version, "/balance", pbl.Balance)
	app.Handle(http.MethodGet, version, "/balance/:account", pbl.Balance)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/signed", pbl.SubmitSigned)
	app.Handle(http.MethodGet, version, "/tx/list", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/tx/verify", pbl.VerifyPool)
	app.Handle(http.MethodPost, version, "/mine", pbl.Mine)
	app.Handle(http.MethodPost, version, "/resolve", pbl.Resolve)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/peers", pbl.Peers)
	app.Handle(http.MethodPost, version, "/peers", pbl.AddPeer)
	app.Handle(http.MethodDelete, version, "/peers/:host", pbl.RemovePeer)
	app.Handle(http.MethodGet, version, "/accounts/names", pbl.Names)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, version, "/node/tx/broadcast", prv.BroadcastTransaction)
	app.Handle(http.MethodPost, version, "/node/block/broadcast", prv.BroadcastBlock)
	app.Handle(http.MethodGet, version, "/node/chain", prv.Chain)
	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
}

package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powchain/app/services/node/handlers"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/powchain/foundation/blockchain/transport"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/nameservice"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// node is a running ledger node with its public and private servers.
type node struct {
	st       *state.State
	id       *identity.Identity
	evts     *events.Events
	shutdown chan os.Signal
	public   *httptest.Server
	private  *httptest.Server
}

func Test_Ledger(t *testing.T) {
	a := startNode(t)
	b := startNode(t)

	a.st.AddKnownPeer(peer.New(b.private.Listener.Addr().String()))
	b.st.AddKnownPeer(peer.New(a.private.Listener.Addr().String()))

	t.Log("Given the need to run the ledger through the node api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a node without funds submits a transfer.", testID)
		{
			body := map[string]any{"recipient": b.id.PublicKey(), "amount": 5}
			call(t, testID, a.public, http.MethodPost, "/v1/tx/submit", body, http.StatusBadRequest, nil)
			t.Logf("\t%s\tTest %d:\tShould refuse the transfer.", success, testID)

			call(t, testID, a.public, http.MethodPost, "/v1/tx/submit", map[string]any{"amount": 5}, http.StatusBadRequest, nil)
			t.Logf("\t%s\tTest %d:\tShould refuse a transfer without a recipient.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a node mines a block.", testID)
		{
			ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(a.public.URL, "http")+"/v1/events", nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the events stream: %v", failed, testID, err)
			}
			defer ws.Close()

			// The stream subscribes once the upgrade is done.
			for i := 0; a.evts.Count() == 0; i++ {
				if i == 100 {
					t.Fatalf("\t%s\tTest %d:\tShould subscribe to the events stream.", failed, testID)
				}
				time.Sleep(10 * time.Millisecond)
			}

			var resp struct {
				Block database.Block `json:"block"`
				Funds float64        `json:"funds"`
			}
			call(t, testID, a.public, http.MethodPost, "/v1/mine", nil, http.StatusCreated, &resp)

			if resp.Block.Index != 1 || resp.Funds != 10 {
				t.Fatalf("\t%s\tTest %d:\tShould mine block 1 with the reward: %+v", failed, testID, resp)
			}
			t.Logf("\t%s\tTest %d:\tShould mine block 1 with the reward.", success, testID)

			if got := len(b.st.RetrieveChain()); got != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould propagate the block to the peer: %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould propagate the block to the peer.", success, testID)

			ws.SetReadDeadline(time.Now().Add(5 * time.Second))
			for {
				typ, msg, err := ws.ReadMessage()
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould receive the block event: %v", failed, testID, err)
				}
				if typ == websocket.TextMessage && strings.HasPrefix(string(msg), "ledger: block:") {
					break
				}
			}
			t.Logf("\t%s\tTest %d:\tShould receive the block event.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node with funds submits a transfer.", testID)
		{
			body := map[string]any{"recipient": b.id.PublicKey(), "amount": 5}
			call(t, testID, a.public, http.MethodPost, "/v1/tx/submit", body, http.StatusCreated, nil)
			t.Logf("\t%s\tTest %d:\tShould accept the transfer.", success, testID)

			if got := len(b.st.RetrieveMempool()); got != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould relay the transfer to the peer: %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould relay the transfer to the peer.", success, testID)

			var bal struct {
				Funds float64 `json:"funds"`
			}
			call(t, testID, a.public, http.MethodGet, "/v1/balance", nil, http.StatusOK, &bal)
			if bal.Funds != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould debit the pending transfer: %v", failed, testID, bal.Funds)
			}
			call(t, testID, a.public, http.MethodGet, "/v1/balance/"+b.id.PublicKey(), nil, http.StatusOK, &bal)
			if bal.Funds != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not credit the pending transfer: %v", failed, testID, bal.Funds)
			}
			t.Logf("\t%s\tTest %d:\tShould report the balances.", success, testID)

			var verify struct {
				Valid bool `json:"valid"`
			}
			call(t, testID, a.public, http.MethodGet, "/v1/tx/verify", nil, http.StatusOK, &verify)
			if !verify.Valid {
				t.Fatalf("\t%s\tTest %d:\tShould verify the pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould verify the pool.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer proposes blocks.", testID)
		{
			call(t, testID, a.private, http.MethodPost, "/v1/node/block/broadcast", map[string]any{}, http.StatusBadRequest, nil)
			t.Logf("\t%s\tTest %d:\tShould refuse a body without a block.", success, testID)

			behind := transport.BlockEnvelope{Block: database.Genesis()}
			call(t, testID, a.private, http.MethodPost, "/v1/node/block/broadcast", behind, http.StatusConflict, nil)
			t.Logf("\t%s\tTest %d:\tShould refuse a block behind the tip.", success, testID)

			tip := a.st.RetrieveLatestBlock()
			ahead := transport.BlockEnvelope{Block: database.NewBlock(tip.Index+3, tip.Hash(), nil, 0)}
			call(t, testID, a.private, http.MethodPost, "/v1/node/block/broadcast", ahead, http.StatusOK, nil)
			if !a.st.ResolveConflicts() {
				t.Fatalf("\t%s\tTest %d:\tShould mark the node for resolution.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mark the node for resolution.", success, testID)

			call(t, testID, a.public, http.MethodPost, "/v1/mine", nil, http.StatusConflict, nil)
			t.Logf("\t%s\tTest %d:\tShould not mine before resolving.", success, testID)

			var res struct {
				Replaced bool `json:"replaced"`
			}
			call(t, testID, a.public, http.MethodPost, "/v1/resolve", nil, http.StatusOK, &res)
			if res.Replaced || a.st.ResolveConflicts() {
				t.Fatalf("\t%s\tTest %d:\tShould keep the local chain and clear the flag: %+v", failed, testID, res)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the local chain and clear the flag.", success, testID)

			var status peer.Status
			call(t, testID, a.private, http.MethodGet, "/v1/node/status", nil, http.StatusOK, &status)
			if status.ChainLength != 2 || status.LatestBlockHash != a.st.RetrieveLatestBlock().Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould report the node status: %+v", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report the node status.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen managing the known peers.", testID)
		{
			var list struct {
				AllNodes []string `json:"all_nodes"`
			}
			call(t, testID, a.public, http.MethodPost, "/v1/peers", map[string]string{"node": "10.0.0.1:9080"}, http.StatusCreated, &list)
			if len(list.AllNodes) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould add the peer: %v", failed, testID, list.AllNodes)
			}
			t.Logf("\t%s\tTest %d:\tShould add the peer.", success, testID)

			call(t, testID, a.public, http.MethodDelete, "/v1/peers/10.0.0.1:9080", nil, http.StatusOK, &list)
			call(t, testID, a.public, http.MethodDelete, "/v1/peers/10.0.0.1:9080", nil, http.StatusNotFound, nil)
			if len(list.AllNodes) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould remove the peer once: %v", failed, testID, list.AllNodes)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the peer once.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer relays a zero amount transfer.", testID)
		{
			sig, err := b.id.Sign(b.id.PublicKey(), a.id.PublicKey(), 0)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %v", failed, testID, err)
			}

			relay := map[string]any{"sender": b.id.PublicKey(), "recipient": a.id.PublicKey(), "signature": sig}
			call(t, testID, a.private, http.MethodPost, "/v1/node/tx/broadcast", relay, http.StatusBadRequest, nil)
			t.Logf("\t%s\tTest %d:\tShould refuse a transfer without an amount.", success, testID)

			relay["amount"] = -1
			call(t, testID, a.private, http.MethodPost, "/v1/node/tx/broadcast", relay, http.StatusBadRequest, nil)
			t.Logf("\t%s\tTest %d:\tShould refuse a negative amount.", success, testID)

			before := len(a.st.RetrieveMempool())

			relay["amount"] = 0
			call(t, testID, a.private, http.MethodPost, "/v1/node/tx/broadcast", relay, http.StatusCreated, nil)
			if got := len(a.st.RetrieveMempool()); got != before+1 {
				t.Fatalf("\t%s\tTest %d:\tShould pool the zero amount transfer: %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould pool the zero amount transfer.", success, testID)
		}
	}
}

func Test_Wallet(t *testing.T) {
	t.Log("Given the need to manage the node identity through the api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the node starts without an identity.", testID)
		{
			keyPath := filepath.Join(t.TempDir(), "wallet", "node.ecdsa")
			n := startNodeWith(t, nil, keyPath)

			call(t, testID, n.public, http.MethodGet, "/v1/wallet", nil, http.StatusNotFound, nil)
			call(t, testID, n.public, http.MethodPost, "/v1/mine", nil, http.StatusBadRequest, nil)
			t.Logf("\t%s\tTest %d:\tShould not load or mine without a wallet.", success, testID)

			var created struct {
				PublicKey string `json:"public_key"`
			}
			call(t, testID, n.public, http.MethodPost, "/v1/wallet", nil, http.StatusCreated, &created)
			if _, err := os.Stat(keyPath); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould store the key: %v", failed, testID, err)
			}
			if created.PublicKey != n.st.RetrieveIdentity() {
				t.Fatalf("\t%s\tTest %d:\tShould use the new identity.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould create and use a wallet.", success, testID)

			var loaded struct {
				PublicKey string `json:"public_key"`
			}
			call(t, testID, n.public, http.MethodGet, "/v1/wallet", nil, http.StatusOK, &loaded)
			if loaded.PublicKey != created.PublicKey {
				t.Fatalf("\t%s\tTest %d:\tShould load the stored wallet.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould load the stored wallet.", success, testID)

			call(t, testID, n.public, http.MethodPost, "/v1/mine", nil, http.StatusCreated, nil)
			t.Logf("\t%s\tTest %d:\tShould mine with the wallet.", success, testID)
		}
	}
}

func Test_EventsDisconnect(t *testing.T) {
	n := startNode(t)

	t.Log("Given the need to keep the node running when an events client leaves.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a client drops the events stream while events flow.", testID)
		{
			ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(n.public.URL, "http")+"/v1/events", nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the events stream: %v", failed, testID, err)
			}

			for i := 0; n.evts.Count() == 0; i++ {
				if i == 100 {
					t.Fatalf("\t%s\tTest %d:\tShould subscribe to the events stream.", failed, testID)
				}
				time.Sleep(10 * time.Millisecond)
			}

			ws.UnderlyingConn().Close()

			// The subscription is released once the handler returns.
			deadline := time.Now().Add(5 * time.Second)
			for n.evts.Count() != 0 {
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest %d:\tShould release the subscription.", failed, testID)
				}
				n.evts.Send("ledger: state: test event")
				time.Sleep(time.Millisecond)
			}
			t.Logf("\t%s\tTest %d:\tShould release the subscription.", success, testID)

			select {
			case sig := <-n.shutdown:
				t.Fatalf("\t%s\tTest %d:\tShould not signal a shutdown: %v", failed, testID, sig)
			case <-time.After(100 * time.Millisecond):
			}
			t.Logf("\t%s\tTest %d:\tShould not signal a shutdown.", success, testID)

			call(t, testID, n.public, http.MethodGet, "/v1/chain", nil, http.StatusOK, nil)
			t.Logf("\t%s\tTest %d:\tShould keep serving requests.", success, testID)
		}
	}
}

// =============================================================================

func startNode(t *testing.T) *node {
	id, err := identity.Generate()
	if err != nil {
		t.Fatalf("generating identity: %v", err)
	}

	return startNodeWith(t, id, filepath.Join(t.TempDir(), "node.ecdsa"))
}

func startNodeWith(t *testing.T, id *identity.Identity, keyPath string) *node {
	log := zap.NewNop().Sugar()

	public := httptest.NewUnstartedServer(nil)
	private := httptest.NewUnstartedServer(nil)

	evts := events.New("ledger:")

	cfg := state.Config{
		Host:        private.Listener.Addr().String(),
		Storage:     memory.New(),
		Transport:   transport.New(time.Second),
		PeerTimeout: time.Second,
		EvHandler: func(v string, args ...any) {
			evts.Send(fmt.Sprintf(v, args...))
		},
	}
	if id != nil {
		cfg.Identity = id
	}

	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("starting state: %v", err)
	}

	ns, err := nameservice.New(filepath.Join(t.TempDir(), "accounts"))
	if err != nil {
		t.Fatalf("starting name service: %v", err)
	}

	shutdown := make(chan os.Signal, 1)

	mux := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		NS:       ns,
		Evts:     evts,
		KeyPath:  keyPath,
	}

	public.Config.Handler = handlers.PublicMux(mux)
	private.Config.Handler = handlers.PrivateMux(mux)
	public.Start()
	private.Start()

	t.Cleanup(func() {
		evts.Shutdown()
		public.Close()
		private.Close()
		st.Shutdown()
	})

	return &node{
		st:       st,
		id:       id,
		evts:     evts,
		shutdown: shutdown,
		public:   public,
		private:  private,
	}
}

func call(t *testing.T, testID int, srv *httptest.Server, method string, path string, body any, exp int, resp any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould be able to encode the body: %v", failed, testID, err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to build the request: %v", failed, testID, err)
	}

	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to call %s %s: %v", failed, testID, method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != exp {
		t.Fatalf("\t%s\tTest %d:\tShould get %d from %s %s, got %d.", failed, testID, exp, method, path, res.StatusCode)
	}

	if resp != nil {
		if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould be able to decode the response: %v", failed, testID, err)
		}
	}
}

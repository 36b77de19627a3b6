package mid_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/business/web/mid"
	"github.com/ardanlabs/powchain/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Chain(t *testing.T) {
	log := zap.NewNop().Sugar()

	app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Cors("http://wallet.local"), mid.Panics())

	app.Handle(http.MethodGet, "v1", "/trusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.NewTrusted(errors.New("behind"), http.StatusConflict)
	})
	app.Handle(http.MethodGet, "v1", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})
	app.Handle(http.MethodGet, "v1", "/ok", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	type table struct {
		name   string
		path   string
		status int
	}

	tt := []table{
		{name: "trusted", path: "/v1/trusted", status: http.StatusConflict},
		{name: "panic", path: "/v1/panic", status: http.StatusInternalServerError},
		{name: "ok", path: "/v1/ok", status: http.StatusOK},
	}

	t.Log("Given the need to handle requests through the middleware chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s route.", testID, tst.name)
			{
				f := func(t *testing.T) {
					r := httptest.NewRequest(http.MethodGet, tst.path, nil)
					r.Header.Set("Origin", "http://wallet.local")
					w := httptest.NewRecorder()

					app.ServeHTTP(w, r)

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould get status %d: got %d", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)

					if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://wallet.local" {
						t.Fatalf("\t%s\tTest %d:\tShould allow the configured origin: %q", failed, testID, got)
					}
					t.Logf("\t%s\tTest %d:\tShould allow the configured origin.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

// Package checkgrp maintains the group of handlers for health checking.
package checkgrp

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"go.uber.org/zap"
)

// Handlers manages the set of check endpoints.
type Handlers struct {
	Build string
	Log   *zap.SugaredLogger
	State *state.State
}

// Readiness checks if the local chain is usable and the node is ready to
// handle requests. A node that knows it is behind its peers still serves.
func (h Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	statusCode := http.StatusOK

	if err := database.ValidateChain(h.State.RetrieveChain(), database.NoopHandler); err != nil {
		status = "chain invalid"
		statusCode = http.StatusInternalServerError
	}

	data := struct {
		Status           string `json:"status"`
		Blocks           int    `json:"blocks"`
		ResolveConflicts bool   `json:"resolve_conflicts"`
	}{
		Status:           status,
		Blocks:           len(h.State.RetrieveChain()),
		ResolveConflicts: h.State.ResolveConflicts(),
	}

	if err := response(w, statusCode, data); err != nil {
		h.Log.Errorw("readiness", "ERROR", err)
	}

	h.Log.Infow("readiness", "statusCode", statusCode, "method", r.Method, "path", r.URL.Path, "remoteaddr", r.RemoteAddr)
}

// Liveness returns simple status info if the service is alive. If the
// app is deployed to a Kubernetes cluster, it will also return pod, node, and
// namespace details via the Downward API. The Kubernetes environment variables
// need to be set within your Pod/Deployment manifest.
func (h Handlers) Liveness(w http.ResponseWriter, r *http.Request) {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	data := struct {
		Status    string `json:"status,omitempty"`
		Build     string `json:"build,omitempty"`
		Host      string `json:"host,omitempty"`
		Node      string `json:"node,omitempty"`
		PodIP     string `json:"podIP,omitempty"`
		Namespace string `json:"namespace,omitempty"`
		Identity  string `json:"identity,omitempty"`
	}{
		Status:    "up",
		Build:     h.Build,
		Host:      host,
		Node:      os.Getenv("KUBERNETES_NODENAME"),
		PodIP:     os.Getenv("KUBERNETES_PODIP"),
		Namespace: os.Getenv("KUBERNETES_NAMESPACE"),
		Identity:  h.State.RetrieveIdentity(),
	}

	statusCode := http.StatusOK
	if err := response(w, statusCode, data); err != nil {
		h.Log.Errorw("liveness", "ERROR", err)
	}

	h.Log.Infow("liveness", "statusCode", statusCode, "method", r.Method, "path", r.URL.Path, "remoteaddr", r.RemoteAddr)
}

func response(w http.ResponseWriter, statusCode int, data any) error {

	// Convert the response value to JSON.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	// Set the content type and headers once we know marshaling has succeeded.
	w.Header().Set("Content-Type", "application/json")

	// Write the status code to the response.
	w.WriteHeader(statusCode)

	// Send the result back to the client.
	if _, err := w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

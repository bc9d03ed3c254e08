package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/system"
	"github.com/visgate/visgate/api/pkg/types"
)

// streamDeployment godoc
// GET /v1/deployments/{id}/stream: server-sent events with a status event
// on every change plus any new log lines, closing once the deployment is
// terminal. The stream polls the store so it works identically against
// Firestore and the in-memory store.
func (apiServer *VisgateAPIServer) streamDeployment(res http.ResponseWriter, req *http.Request) {
	c := getCaller(req)
	id := mux.Vars(req)["id"]
	logLimit := parseLimit(req, 200)

	flusher, ok := res.(http.Flusher)
	if !ok {
		system.WriteError(res, types.NewAPIError(types.ErrorKindInternal, "streaming not supported"))
		return
	}

	st := apiServer.Controller.Store()

	deployment, err := st.GetDeployment(req.Context(), id, c.OwnerHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			system.WriteError(res, types.NewDeploymentNotFoundError(id))
			return
		}
		system.WriteError(res, system.AsAPIError(err))
		return
	}

	res.Header().Set("Content-Type", "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	lastStatus := types.DeploymentStatus("")
	sentLogs := 0

	ticker := time.NewTicker(apiServer.streamInterval)
	defer ticker.Stop()

	for {
		if deployment.Status != lastStatus {
			writeSSE(res, "status", deployment)
			lastStatus = deployment.Status
		}

		logs, logErr := st.ListLogs(req.Context(), id, logLimit)
		if logErr == nil && len(logs) > sentLogs {
			for _, entry := range logs[sentLogs:] {
				writeSSE(res, "log", entry)
			}
			sentLogs = len(logs)
		}
		flusher.Flush()

		if deployment.Status.IsTerminal() {
			return
		}

		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
		}

		deployment, err = st.GetDeployment(req.Context(), id, c.OwnerHash)
		if err != nil {
			// deleted documents stay readable with status=deleted, so any
			// error here is transient; end the stream and let the client
			// reconnect
			return
		}
	}
}

func writeSSE(res http.ResponseWriter, event string, data any) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, encoded)
}

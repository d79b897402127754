package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Mohammed-el-Amine/check-port/pkg/scanexec"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/api"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/jobs"
)

// Request and response payloads in this file are part of the public API
// contract. Fields may be added (optional, with safe zero values and
// `omitempty`) but never removed or renamed; breaking changes need /api/v2.

// ScanRequest is the body of POST /api/v1/scans.
type ScanRequest struct {
	Target string `json:"target"`
	Ports  string `json:"ports,omitempty"`
	// Timeout is a Go duration string such as "750ms". Empty means tuned.
	Timeout     string `json:"timeout,omitempty"`
	Workers     int    `json:"workers,omitempty"`
	ShowDynamic bool   `json:"show_dynamic,omitempty"`
}

// ListScansResponse is the body of GET /api/v1/scans.
type ListScansResponse struct {
	Scans []jobs.Status `json:"scans"`
	Total int           `json:"total"`
}

var errNoJobManager = errors.New("job manager not configured")

// Params converts the request into scan parameters. defaultPorts fills an
// empty Ports.
func (r ScanRequest) Params(defaultPorts string) (scanexec.Params, error) {
	p := scanexec.Params{
		Target:      r.Target,
		Ports:       r.Ports,
		Workers:     r.Workers,
		ShowDynamic: r.ShowDynamic,
	}
	if p.Ports == "" {
		p.Ports = defaultPorts
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return scanexec.Params{}, &jobs.InvalidInputError{Field: "timeout", Err: err}
		}
		p.Timeout = d
	}
	return p, nil
}

// CreateScanHandler handles POST /api/v1/scans
//
// Queues a scan and answers 202 Accepted with the job status. The Location
// header points at the job.
//
// Request format:
//
//	{"target": "192.0.2.10", "ports": "22,80,8000-8100", "timeout": "500ms"}
//
// Returns 400 for a malformed body, target or port spec and 503 when the
// queue is full.
func CreateScanHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Jobs == nil {
			api.WriteError(w, r, errNoJobManager)
			return
		}

		if deps.Config.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, deps.Config.MaxBodyBytes)
		}
		var req ScanRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "INVALID_BODY", fmt.Sprintf("invalid request body: %v", err))
			return
		}

		params, err := req.Params(deps.Config.DefaultPorts)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		status, err := deps.Jobs.Submit(r.Context(), params)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		w.Header().Set("Location", "/api/v1/scans/"+status.ID)
		api.WriteJSON(w, http.StatusAccepted, status)
	}
}

// ListScansHandler handles GET /api/v1/scans
//
// Returns retained jobs, newest first.
//
// Query parameters:
//   - state: Filter by state (queued, running, completed, failed, canceled)
func ListScansHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := jobs.State(r.URL.Query().Get("state"))
		if state != "" && !validState(state) {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "INVALID_QUERY", fmt.Sprintf("unknown state %q", state))
			return
		}
		if deps.Jobs == nil {
			api.WriteError(w, r, errNoJobManager)
			return
		}

		scans := make([]jobs.Status, 0)
		for _, st := range deps.Jobs.List() {
			if state == "" || st.State == state {
				scans = append(scans, st)
			}
		}
		api.WriteJSON(w, http.StatusOK, ListScansResponse{Scans: scans, Total: len(scans)})
	}
}

// GetScanHandler handles GET /api/v1/scans/{id}
//
// Returns the job status, including open ports found so far and, once
// finished, the full report. Returns 404 if the job is unknown.
func GetScanHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "SCAN_ID_REQUIRED", "scan id is required")
			return
		}
		if deps.Jobs == nil {
			api.WriteError(w, r, errNoJobManager)
			return
		}

		status, err := deps.Jobs.Get(id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, status)
	}
}

// CancelScanHandler handles DELETE /api/v1/scans/{id}
//
// Requests cooperative cancellation and answers 202 Accepted with the
// status at that moment. Probes already in flight still finish.
func CancelScanHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "SCAN_ID_REQUIRED", "scan id is required")
			return
		}
		if deps.Jobs == nil {
			api.WriteError(w, r, errNoJobManager)
			return
		}

		status, err := deps.Jobs.Cancel(id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusAccepted, status)
	}
}

func validState(s jobs.State) bool {
	switch s {
	case jobs.StateQueued, jobs.StateRunning, jobs.StateCompleted, jobs.StateFailed, jobs.StateCanceled:
		return true
	}
	return false
}

package httpx

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/pkg/config"
	"github.com/Mohammed-el-Amine/check-port/pkg/server/api"
	v1 "github.com/Mohammed-el-Amine/check-port/pkg/server/api/v1"
)

// NewRouter builds the HTTP handler: health probes plus the v1 scan API,
// wrapped in panic recovery and request logging.
func NewRouter(cfg config.ServerConfig, deps *api.Deps) http.Handler {
	logger := log.With().Str("component", "httpx.router").Logger()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	if deps.Jobs == nil {
		logger.Info().Msg("Job manager not provided - skipping scan API routes")
	} else {
		logger.Info().Msg("mounting scan API routes")
		mux.HandleFunc("POST /api/v1/scans", v1.CreateScanHandler(deps))
		mux.HandleFunc("GET /api/v1/scans", v1.ListScansHandler(deps))
		mux.HandleFunc("GET /api/v1/scans/{id}", v1.GetScanHandler(deps))
		mux.HandleFunc("DELETE /api/v1/scans/{id}", v1.CancelScanHandler(deps))
	}

	logger.Debug().Str("addr", cfg.ListenAddr()).Msg("router ready")
	return Chain(mux, Recoverer, RequestLogger)
}

// HealthzHandler answers liveness probes. It always returns 200 "OK".
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

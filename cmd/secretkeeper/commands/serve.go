package commands

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/internal/config"
	skeeper "github.com/systmms/secretkeeper/internal/keeper"
	"github.com/systmms/secretkeeper/internal/metrics"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

func NewServeCommand(cfg *config.Config) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatch endpoint and Prometheus metrics",
		Long: `Expose the transport-agnostic operation dispatch as a small JSON
endpoint plus a Prometheus /metrics endpoint.

This is a demo shim, not a hardened API surface: authentication is
assumed to happen upstream and the handler trusts the X-Requester-ID
header as the authenticated identity.

Endpoints:
  POST /v1/secrets   dispatch {operation, payload} for X-Requester-ID
  GET  /metrics      Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics.InitPrometheus()

			service, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.Handle("/v1/secrets", dispatchHandler(service))

			server := &http.Server{
				Addr:              listen,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			cfg.Logger.Info("listening on %s", listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8080", "Listen address")

	return cmd
}

// dispatchHandler adapts the JSON request shape onto Service.Handle. Error
// responses carry only the stable status kind, never internal details.
func dispatchHandler(service *skeeper.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req skeeper.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, skeeper.Response{Status: "invalid_request"})
			return
		}
		// Identity comes from the upstream authenticator, never the body.
		req.RequesterID = r.Header.Get("X-Requester-ID")

		resp, err := service.Handle(r.Context(), req)
		writeJSON(w, statusCodeFor(err), resp)
	})
}

func statusCodeFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, keeper.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, keeper.ErrInvalidRequest):
		return http.StatusBadRequest
	case keeper.IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

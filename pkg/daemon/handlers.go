// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telekom/hoptrace/internal/logger"
	"github.com/telekom/hoptrace/pkg"
	"github.com/telekom/hoptrace/pkg/api"
	"github.com/telekom/hoptrace/pkg/watch"
)

const (
	resultPath = "/v1/result"
	streamPath = "/v1/stream"
)

// routes returns the routes served by the daemon's API
func (d *Daemon) routes() ([]api.Route, error) {
	doc, err := api.OpenAPI(pkg.Version, api.Endpoint{
		Path:        resultPath,
		Method:      http.MethodGet,
		Name:        "getResult",
		Description: "Result of the latest traceroute to " + d.config.Target.Address,
		Schema:      watch.Schema,
		NotFound:    true,
	})
	if err != nil {
		return nil, err
	}

	return []api.Route{
		{Path: resultPath, Method: http.MethodGet, Handler: d.handleResultRequest},
		{Path: streamPath, Method: http.MethodGet, Handler: d.hub.ServeHTTP},
		{Path: "/openapi", Method: http.MethodGet, Handler: api.OpenAPIHandler(doc)},
		{
			Path:   "/metrics",
			Method: "*",
			Handler: promhttp.HandlerFor(
				d.telemetry.GetRegistry(),
				promhttp.HandlerOpts{Registry: d.telemetry.GetRegistry()},
			).ServeHTTP,
		},
	}, nil
}

// handleResultRequest returns the latest traceroute result as JSON
func (d *Daemon) handleResultRequest(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	res, ok := d.watcher.Latest()
	if !ok {
		http.Error(w, "no traceroute finished yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.ErrorContext(r.Context(), "Failed to encode response body", "error", err)
	}
}

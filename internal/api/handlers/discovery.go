package handlers

import (
	"net/http"
	"strings"

	"github.com/anstrom/scanbridge/internal/api/middleware"
	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
)

// DiscoveryHandler handles the host discovery endpoint.
type DiscoveryHandler struct {
	orch   Orchestrator
	logger *logging.Logger
}

// NewDiscoveryHandler creates a new discovery handler.
func NewDiscoveryHandler(orch Orchestrator, logger *logging.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		orch:   orch,
		logger: logger.WithComponent("discovery_handler"),
	}
}

// DiscoveryResponse lists the live hosts of a network. IPList carries the
// same hosts newline-joined.
type DiscoveryResponse struct {
	Status     string   `json:"status"`
	Network    string   `json:"network"`
	HostsFound int      `json:"hosts_found"`
	IPList     string   `json:"ip_list"`
	Hosts      []string `json:"hosts"`
}

// Discover handles GET /nmap-scan?ip_range=. A network without live hosts
// is a successful, empty discovery here.
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	network := strings.TrimSpace(r.URL.Query().Get("ip_range"))
	if err := discovery.ValidateNetwork(network); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorFields(r, err, map[string]interface{}{"network": network}))
		return
	}

	h.logger.InfoDiscovery("Discovery requested", network, "request_id", middleware.GetRequestID(r))

	hosts := []string{}
	res, err := h.orch.Discover(r.Context(), network)
	switch {
	case err == nil:
		hosts = res.Hosts
	case errors.IsCode(err, errors.CodeNoLiveHosts):
	default:
		h.logger.ErrorDiscovery("Discovery failed", network, err, "request_id", middleware.GetRequestID(r))
		writeJSON(w, r, errors.HTTPStatus(err), errorFields(r, err, map[string]interface{}{"network": network}))
		return
	}

	writeJSON(w, r, http.StatusOK, DiscoveryResponse{
		Status:     statusSuccess,
		Network:    network,
		HostsFound: len(hosts),
		IPList:     strings.Join(hosts, "\n"),
		Hosts:      hosts,
	})
}

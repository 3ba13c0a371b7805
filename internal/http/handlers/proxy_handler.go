package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeline/booking-engine/internal/http/response"
	"github.com/lodgeline/booking-engine/internal/platform/pms"
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// Forwarder issues a raw upstream GET with the credential header injected.
type Forwarder interface {
	Forward(ctx context.Context, path string, params url.Values) (*pms.Reply, error)
}

// ProxyHandler passes ad hoc rate/restriction/availability queries through to
// the PMS. The upstream credential is injected server-side and never reaches
// the browser.
type ProxyHandler struct {
	client Forwarder
}

func NewProxyHandler(client Forwarder) *ProxyHandler {
	return &ProxyHandler{client: client}
}

// Only these sub-resources may be queried through the proxy.
var proxyResources = map[string]bool{
	"rates":        true,
	"restrictions": true,
	"availability": true,
}

func (h *ProxyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{resource}", h.forward)
	return r
}

func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !proxyResources[resource] {
		response.NotFound(w, "unknown resource")
		return
	}

	params := r.URL.Query()
	unitTypeID, err := strconv.ParseInt(params.Get("unit_type_id"), 10, 64)
	if err != nil || unitTypeID <= 0 {
		response.BadRequest(w, "unit_type_id is required")
		return
	}
	params.Del("unit_type_id")

	path := fmt.Sprintf("/unit-types/%d/%s", unitTypeID, resource)
	reply, err := h.client.Forward(r.Context(), path, params)
	if err != nil {
		logger.ErrorContext(r.Context(), "proxy request failed",
			"resource", resource, "unit_type_id", unitTypeID, "error", err)
		response.BadGateway(w, "upstream request failed")
		return
	}

	contentType := reply.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(reply.StatusCode)
	w.Write(reply.Body)
}

// Package httpapi exposes the fulfillment and stock engine over HTTP
// for the admin surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"stockops/internal/bulk"
	"stockops/internal/cache"
	"stockops/internal/metrics"
	"stockops/internal/order"
	"stockops/internal/query"
	"stockops/internal/status"
	"stockops/internal/storeapi"
)

// OrderSource loads orders from the authoritative store.
type OrderSource interface {
	FetchOrder(ctx context.Context, id string) (*order.Order, error)
}

// Handler wires HTTP requests into the engine.
type Handler struct {
	orders  OrderSource
	fulfill *order.Fulfillment
	store   cache.Store
	bulk    *bulk.Coordinator
	mets    *metrics.Registry
}

// New creates a Handler. mets may be nil.
func New(orders OrderSource, fulfill *order.Fulfillment, store cache.Store, coord *bulk.Coordinator, mets *metrics.Registry) *Handler {
	return &Handler{orders: orders, fulfill: fulfill, store: store, bulk: coord, mets: mets}
}

// Routes registers all handlers on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/{id}/status", h.handleStatusUpdate)
	mux.HandleFunc("GET /stock", h.handleStockQuery)
	mux.HandleFunc("POST /stock/bulk", h.handleBulk)
	mux.HandleFunc("GET /stock/export", h.handleExportAll)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type errorPayload struct {
	Error string   `json:"error"`
	Legal []string `json:"legal,omitempty"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type statusUpdateResponse struct {
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

func (h *Handler) handleStatusUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req statusUpdateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid JSON"})
		return
	}
	target, err := status.Parse(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}

	o, err := h.orders.FetchOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.fulfill.ApplyTransition(r.Context(), o, target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusUpdateResponse{
		OrderID:  o.ID,
		Status:   string(o.CurrentStatus()),
		Progress: o.Progress(),
	})
}

func (h *Handler) handleStockQuery(w http.ResponseWriter, r *http.Request) {
	params, err := parseQueryParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	start := time.Now()
	res, err := query.Query(cache.Items(h.store), params)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.mets != nil {
		h.mets.QueryDurationSec.Observe(time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, res)
}

type bulkRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid JSON"})
		return
	}
	action, err := bulk.ParseAction(req.Action)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}

	sel := bulk.NewSelection(req.IDs...)
	res, err := h.bulk.Apply(r.Context(), sel, action, cache.Items(h.store))
	if err != nil {
		writeError(w, err)
		return
	}
	if action == bulk.ActionExport {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="stock-export.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.CSV)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleExportAll(w http.ResponseWriter, r *http.Request) {
	items := cache.Items(h.store)
	sel := bulk.NewSelection()
	for _, it := range items {
		sel.Add(it.ID)
	}
	res, err := h.bulk.Apply(r.Context(), sel, bulk.ActionExport, items)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="stock-export.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.CSV)
}

func parseQueryParams(r *http.Request) (query.Params, error) {
	q := r.URL.Query()
	p := query.Params{
		Search:   q.Get("search"),
		Kind:     q.Get("kind"),
		State:    q.Get("state"),
		Sort:     query.SortKey(q.Get("sort")),
		Dir:      query.SortDir(q.Get("dir")),
		Page:     1,
		PageSize: 20,
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return query.Params{}, &query.InvalidQueryError{Field: "page", Reason: "not an integer"}
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return query.Params{}, &query.InvalidQueryError{Field: "limit", Reason: "not an integer"}
		}
		p.PageSize = n
	}
	return p, nil
}

// writeError maps the error taxonomy onto HTTP statuses. An invalid
// transition keeps its legal set in the payload so the admin UI can
// show what would have been allowed.
func writeError(w http.ResponseWriter, err error) {
	var ite *status.InvalidTransitionError
	if errors.As(err, &ite) {
		legal := make([]string, len(ite.Legal))
		for i, s := range ite.Legal {
			legal[i] = string(s)
		}
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: ite.Error(), Legal: legal})
		return
	}
	var iq *query.InvalidQueryError
	if errors.As(err, &iq) {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: iq.Error()})
		return
	}
	switch {
	case errors.Is(err, storeapi.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorPayload{Error: err.Error()})
	case errors.Is(err, storeapi.ErrConflict):
		writeJSON(w, http.StatusConflict, errorPayload{Error: err.Error()})
	case errors.Is(err, storeapi.ErrAuthExpired):
		writeJSON(w, http.StatusUnauthorized, errorPayload{Error: err.Error()})
	case errors.Is(err, storeapi.ErrTransient):
		writeJSON(w, http.StatusBadGateway, errorPayload{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

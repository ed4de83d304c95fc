package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chronodb/chronodb/internal/catalog"
	"github.com/chronodb/chronodb/internal/predicate"
)

// PlanHandler serves chunk pruning plans over HTTP. Safe for concurrent
// use: every request builds its own restriction set.
type PlanHandler struct {
	cat    catalog.Catalog
	logger log.Logger
}

// NewPlanHandler creates a plan handler over a catalog.
func NewPlanHandler(cat catalog.Catalog, logger log.Logger) *PlanHandler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &PlanHandler{cat: cat, logger: logger}
}

// HandlePlan prunes chunks for a WHERE clause received via HTTP. The table
// comes from the "table" query parameter; the WHERE clause from "where" or
// the request body.
func (h *PlanHandler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		http.Error(w, "missing table parameter", http.StatusBadRequest)
		return
	}

	where := r.URL.Query().Get("where")
	if where == "" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		where = strings.TrimSpace(string(body))
	}

	var preds []predicate.Comparison
	if where != "" {
		var err error
		preds, err = predicate.ParseWhere(where)
		if err != nil {
			http.Error(w, fmt.Sprintf("parse error: %v", err), http.StatusBadRequest)
			return
		}
	}

	plan, err := BuildPlan(r.Context(), h.cat, table, preds, h.logger)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		level.Error(h.logger).Log("msg", "planning failed", "table", table, "err", err)
		http.Error(w, fmt.Sprintf("planning error: %v", err), http.StatusInternalServerError)
		return
	}

	format := ParseFormat(r.URL.Query().Get("format"))
	switch format {
	case FormatText:
		w.Header().Set("Content-Type", "text/plain")
		if err := WritePlanText(w, plan); err != nil {
			level.Error(h.logger).Log("msg", "writing plan", "err", err)
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := WritePlanJSON(w, plan); err != nil {
			level.Error(h.logger).Log("msg", "writing plan", "err", err)
		}
	}
}

// HandlePing responds with "Ok." for health checks.
func (h *PlanHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Ok.")
}

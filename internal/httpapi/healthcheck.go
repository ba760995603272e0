package httpapi

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"niederschlag-server/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
	handleReadyz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db    *sqlx.DB
	ready *atomic.Bool
}

func NewHealthchecker(db *sqlx.DB, ready *atomic.Bool) healthchecker {
	return &healthcheckerImpl{db: db, ready: ready}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports 503 until the snapshot has been loaded.
func (h *healthcheckerImpl) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if h.ready == nil || !h.ready.Load() {
		utils.WriteError(w, http.StatusServiceUnavailable, "bootstrap not complete")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func registerHealthcheck(mux *http.ServeMux, db *sqlx.DB, ready *atomic.Bool) {
	healthchecker := NewHealthchecker(db, ready)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
	mux.HandleFunc("GET /readyz", healthchecker.handleReadyz)
}

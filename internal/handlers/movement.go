// Package handlers exposes the decision engine over HTTP.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gamedev-tw/npc-engine/internal/engine"
	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// MovementHandler serves movement decisions.
//
// Routes:
// POST /v1/npc/think - Decide the NPC's next movement
type MovementHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewMovementHandler(eng *engine.Engine, logger *slog.Logger) *MovementHandler {
	return &MovementHandler{engine: eng, logger: logger}
}

func (h *MovementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req npc.MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid movement request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	decision, err := h.engine.Decide(r.Context(), &req)
	if err != nil {
		h.logger.Warn("Movement request rejected", "npc_id", req.NPCID, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(decision); err != nil {
		h.logger.Error("Failed to encode movement decision", "error", err)
	}
}

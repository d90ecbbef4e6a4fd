package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gamedev-tw/npc-engine/internal/memory"
)

// AdminHandler exposes memory inspection and maintenance operations.
//
// Routes:
// GET /v1/admin/npc/{id}/memory    - Read an NPC's memory record
// DELETE /v1/admin/npc/{id}/memory - Clear an NPC's memory
// POST /v1/admin/memories/save     - Flush all dirty memory to storage
type AdminHandler struct {
	registry *memory.Registry
	logger   *slog.Logger
}

func NewAdminHandler(registry *memory.Registry, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{registry: registry, logger: logger}
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/admin/")
	if path == "memories/save" {
		h.handleSaveAll(w, r)
		return
	}

	// Remaining routes look like npc/{id}/memory.
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "npc" || parts[2] != "memory" || parts[1] == "" {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}
	npcID := parts[1]

	switch r.Method {
	case http.MethodGet:
		h.handleGetMemory(w, r, npcID)
	case http.MethodDelete:
		h.handleClearMemory(w, r, npcID)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *AdminHandler) handleGetMemory(w http.ResponseWriter, r *http.Request, npcID string) {
	record, err := h.registry.PeekMemory(r.Context(), npcID)
	if err != nil {
		h.logger.Error("Failed to load memory", "npc_id", npcID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load memory")
		return
	}
	if record == nil {
		writeError(w, h.logger, http.StatusNotFound, "No memory record for "+npcID)
		return
	}
	if err := json.NewEncoder(w).Encode(record); err != nil {
		h.logger.Error("Failed to encode memory record", "error", err)
	}
}

func (h *AdminHandler) handleClearMemory(w http.ResponseWriter, r *http.Request, npcID string) {
	if err := h.registry.Remove(r.Context(), npcID); err != nil {
		h.logger.Error("Failed to clear memory", "npc_id", npcID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to clear memory")
		return
	}
	h.logger.Info("Cleared NPC memory", "npc_id", npcID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleSaveAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	failed := h.registry.SaveAll(r.Context())
	status := "ok"
	code := http.StatusOK
	if failed > 0 {
		status = "partial"
		code = http.StatusInternalServerError
	}
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"failed": failed,
	}); err != nil {
		h.logger.Error("Failed to encode save response", "error", err)
	}
}

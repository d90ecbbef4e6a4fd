package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gamedev-tw/npc-engine/internal/services"
)

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
	TargetLanguage string `json:"target_language"`
}

// TranslateHandler serves one-shot text translation.
//
// Routes:
// POST /v1/translate - Translate text into the target language
type TranslateHandler struct {
	translator *services.Translator
	logger     *slog.Logger
}

func NewTranslateHandler(translator *services.Translator, logger *slog.Logger) *TranslateHandler {
	return &TranslateHandler{translator: translator, logger: logger}
}

func (h *TranslateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" || req.TargetLanguage == "" {
		writeError(w, h.logger, http.StatusBadRequest, "text and target_language are required")
		return
	}

	translated, err := h.translator.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		h.logger.Error("Translation failed", "target", req.TargetLanguage, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Translation failed")
		return
	}

	if err := json.NewEncoder(w).Encode(TranslateResponse{
		TranslatedText: translated,
		TargetLanguage: req.TargetLanguage,
	}); err != nil {
		h.logger.Error("Failed to encode translation response", "error", err)
	}
}

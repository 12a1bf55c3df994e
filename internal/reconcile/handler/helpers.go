package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"pricebid-recon/internal/reconcile/model"
)

func writeJSON(w http.ResponseWriter, code int, v any, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg}, zerolog.Nop())
}

// decodeRow reads a row echoed back by the client in the shape MatchFile returned it.
func decodeRow(kind model.FileType, raw json.RawMessage) (model.SubmittedRow, error) {
	switch kind {
	case model.FileTypeComposition:
		var row model.CompositionRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, err
		}
		return row, nil
	case model.FileTypeImplant:
		var row model.ImplantRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, err
		}
		return row, nil
	}
	return nil, fmt.Errorf("unknown file type %d", int(kind))
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"pricebid-recon/internal/fileio"
	"pricebid-recon/internal/reconcile/model"
	recSvc "pricebid-recon/internal/reconcile/service"
)

// multipart parts beyond this spill to temp files
const maxFormMemory = 32 << 20

type Handler struct {
	svc    *recSvc.Service
	logger zerolog.Logger
}

func New(svc *recSvc.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type matchFileResponse struct {
	Matched   []model.Matched    `json:"matched"`
	Unmatched []model.Unmatched  `json:"unmatched"`
	Skipped   []model.RowFailure `json:"skipped"`
	Rejected  []string           `json:"rejected"`
}

// MatchFile handles POST /match-file?file_type=1|2 with the price bid in the "file" part.
// format=xlsx returns the reconciled workbook instead of JSON.
func (h *Handler) MatchFile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := h.reqLogger(r)

	kind, err := model.ParseFileType(r.URL.Query().Get("file_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	batch, err := fileio.ReadBatch(file, header.Filename, kind, atoi(r.URL.Query().Get("header_row"), 1))
	switch {
	case errors.Is(err, fileio.ErrMissingColumns):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Warn().Err(err).Str("file", header.Filename).Msg("read upload")
		writeError(w, http.StatusBadRequest, "Error reading file: "+err.Error())
		return
	}

	res, err := h.svc.ReconcileBatch(r.Context(), kind, batch.Rows)
	if err != nil {
		log.Error().Err(err).Str("kind", kind.String()).Msg("reconcile batch")
		writeError(w, http.StatusInternalServerError, "Error performing string matching")
		return
	}

	log.Info().
		Str("file", header.Filename).
		Str("kind", kind.String()).
		Int("rows", len(batch.Rows)).
		Int("rejected", len(batch.Rejected)).
		Int("matched", len(res.Matched)).
		Int("unmatched", len(res.Unmatched)).
		Dur("elapsed", time.Since(start)).
		Msg("match-file done")

	if strings.EqualFold(r.URL.Query().Get("format"), "xlsx") {
		name := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`_reconciled.xlsx"`)
		if err := fileio.WriteResultXLSX(w, kind, res); err != nil {
			log.Error().Err(err).Msg("write xlsx")
		}
		return
	}

	rejected := batch.Rejected
	if rejected == nil {
		rejected = []string{}
	}
	writeJSON(w, http.StatusOK, matchFileResponse{
		Matched:   res.Matched,
		Unmatched: res.Unmatched,
		Skipped:   res.Skipped,
		Rejected:  rejected,
	}, log)
}

type comparePriceRequest struct {
	SimilarID   int64           `json:"similar_id" validate:"required,gt=0"`
	SimilarItem string          `json:"similar_item" validate:"required"`
	Row         json.RawMessage `json:"row" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ComparePrice handles POST /similar-items/compare-price: a reviewer picked a near miss
// for an unmatched row and wants its price comparison.
func (h *Handler) ComparePrice(w http.ResponseWriter, r *http.Request) {
	log := h.reqLogger(r)

	kind, err := model.ParseFileType(r.URL.Query().Get("file_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	var req comparePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required data")
		return
	}

	row, err := decodeRow(kind, req.Row)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row: "+err.Error())
		return
	}

	m, err := h.svc.ComparePrice(r.Context(), kind, req.SimilarID, req.SimilarItem, row)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Debug().
		Int64("entry_id", m.EntryID).
		Str("status", string(m.Price.Status)).
		Msg("compare-price")
	writeJSON(w, http.StatusOK, m, log)
}

func (h *Handler) reqLogger(r *http.Request) zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return h.logger
}

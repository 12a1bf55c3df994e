package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FileType selects the row schema, the catalog and the price-cap table.
type FileType int

const (
	FileTypeComposition FileType = 1 // normal price bid
	FileTypeImplant     FileType = 2 // implant price bid
)

func (t FileType) Valid() bool {
	return t == FileTypeComposition || t == FileTypeImplant
}

func (t FileType) String() string {
	switch t {
	case FileTypeComposition:
		return "composition"
	case FileTypeImplant:
		return "implant"
	default:
		return fmt.Sprintf("filetype(%d)", int(t))
	}
}

// ParseFileType accepts "1"/"2" as sent by the upload form, or the names.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "composition", "compositions":
		return FileTypeComposition, nil
	case "2", "implant", "implants":
		return FileTypeImplant, nil
	}
	return 0, fmt.Errorf("unknown file type %q", s)
}

// Status is the catalog lifecycle state owned by the CRUD side.
type Status int

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusRejected Status = 3
)

type CatalogEntry struct {
	ID             int64  `json:"id" db:"id"`
	Text           string `json:"text" db:"text"`                       // canonical display text
	NormalizedText string `json:"normalized_text" db:"normalized_text"` // derived, see service.Normalize
	DosageForm     string `json:"dosage_form,omitempty" db:"dosage_form"`
	ItemCode       string `json:"item_code,omitempty" db:"item_code"`
	Status         Status `json:"status" db:"status"`
}

// PriceCapRecord.Attributes is ordered the same way as SubmittedRow.PriceAttributes:
// composition = [dosage_form, packing_unit], implant = [variant].
type PriceCapRecord struct {
	ID         int64               `json:"id"`
	EntryID    *int64              `json:"entry_id"` // nil until backfilled
	Attributes []string            `json:"attributes"`
	Ceiling    decimal.NullDecimal `json:"price_cap"`
}

type PriceStatus string

const (
	PriceBelow            PriceStatus = "Below"
	PriceAbove            PriceStatus = "Above"
	PriceNotFound         PriceStatus = "NoPriceFound"
	PriceNoAttributeMatch PriceStatus = "NoAttributeMatch"
	PriceComputationError PriceStatus = "ComputationError"
)

type PriceComparison struct {
	Ceiling decimal.NullDecimal `json:"price"`
	Diff    decimal.NullDecimal `json:"price_diff"`
	Status  PriceStatus         `json:"status"`
}

type Candidate struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Score int    `json:"similarity_score"`
}

type Matched struct {
	Row            SubmittedRow        `json:"row"`
	EntryID        int64               `json:"matched_id"`
	Score          int                 `json:"similarity_score"`
	Price          PriceComparison     `json:"price_comparison"`
	ComputedMargin decimal.NullDecimal `json:"computed_margin"`
}

type Unmatched struct {
	Row        SubmittedRow `json:"row"`
	Candidates []Candidate  `json:"similar_items"`
}

// RowFailure records a row dropped from the batch. Index is 0-based in the input.
type RowFailure struct {
	Index  int    `json:"index"`
	Line   string `json:"sl_no"`
	Reason string `json:"reason"`
}

type BatchResult struct {
	Matched   []Matched    `json:"matched"`
	Unmatched []Unmatched  `json:"unmatched"`
	Skipped   []RowFailure `json:"skipped"`
}

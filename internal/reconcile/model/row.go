package model

// SubmittedRow is one uploaded line. Values are raw cell text; nothing is parsed upstream.
type SubmittedRow interface {
	FileType() FileType
	Line() string
	Description() string
	WithDescription(text string) SubmittedRow
	UnitRateExclTax() string
	UnitRateInclTax() string
	MRPInclTax() string
	// PriceAttributes lines up with PriceCapRecord.Attributes.
	PriceAttributes() []string
}

type CompositionRow struct {
	SlNo         string `json:"sl_no" col:"sl_no" validate:"required"`
	BrandName    string `json:"brand_name" col:"brand_name"`
	Composition  string `json:"composition" col:"composition" validate:"required"`
	Manufacturer string `json:"name_of_manufacturer" col:"name_of_manufacturer"`
	UOM          string `json:"u_o_m" col:"u_o_m"`
	DosageForm   string `json:"dosage_form" col:"dosage_form"`
	PackingUnit  string `json:"packing_unit" col:"packing_unit"`
	GST          string `json:"gst" col:"gst"`
	MRPIncl      string `json:"mrp_incl_of_tax" col:"mrp_incl_of_tax"`
	RateExcl     string `json:"unit_rate_to_hll_excl_of_tax" col:"unit_rate_to_hll_excl_of_tax"`
	RateIncl     string `json:"unit_rate_to_hll_incl_of_tax" col:"unit_rate_to_hll_incl_of_tax"`
	HSNCode      string `json:"hsn_code" col:"hsn_code"`
	Margin       string `json:"margin" col:"margin"`
}

func (r CompositionRow) FileType() FileType      { return FileTypeComposition }
func (r CompositionRow) Line() string            { return r.SlNo }
func (r CompositionRow) Description() string     { return r.Composition }
func (r CompositionRow) UnitRateExclTax() string { return r.RateExcl }
func (r CompositionRow) UnitRateInclTax() string { return r.RateIncl }
func (r CompositionRow) MRPInclTax() string      { return r.MRPIncl }

func (r CompositionRow) WithDescription(text string) SubmittedRow {
	r.Composition = text
	return r
}

func (r CompositionRow) PriceAttributes() []string {
	return []string{r.DosageForm, r.PackingUnit}
}

type ImplantRow struct {
	SlNo               string `json:"sl_no" col:"sl_no" validate:"required"`
	ItemCode           string `json:"item_code" col:"item_code"`
	ProductDescription string `json:"product_description_with_specification" col:"product_description_with_specification" validate:"required"`
	Manufacturer       string `json:"name_of_manufacturer" col:"name_of_manufacturer"`
	GST                string `json:"gst" col:"gst"`
	Variant            string `json:"variants" col:"variants"`
	MRPIncl            string `json:"mrp_incl_of_tax" col:"mrp_incl_of_tax"`
	RateExcl           string `json:"unit_rate_to_hll_excl_of_tax" col:"unit_rate_to_hll_excl_of_tax"`
	RateIncl           string `json:"unit_rate_to_hll_incl_of_tax" col:"unit_rate_to_hll_incl_of_tax"`
	HSNCode            string `json:"hsn_code" col:"hsn_code"`
	Margin             string `json:"margin" col:"margin"`
}

func (r ImplantRow) FileType() FileType      { return FileTypeImplant }
func (r ImplantRow) Line() string            { return r.SlNo }
func (r ImplantRow) Description() string     { return r.ProductDescription }
func (r ImplantRow) UnitRateExclTax() string { return r.RateExcl }
func (r ImplantRow) UnitRateInclTax() string { return r.RateIncl }
func (r ImplantRow) MRPInclTax() string      { return r.MRPIncl }

func (r ImplantRow) WithDescription(text string) SubmittedRow {
	r.ProductDescription = text
	return r
}

func (r ImplantRow) PriceAttributes() []string {
	return []string{r.Variant}
}

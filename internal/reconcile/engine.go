// Package reconcile computes cut length, theoretical weight and scrap for
// returned steel bars against the reference table.
package reconcile

import (
	"fmt"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/reference"
)

// CutStepMM is the billing step: measured lengths are floored to a multiple of it
const CutStepMM = 500

// Lookup resolves product codes; *reference.Table implements it
type Lookup interface {
	Lookup(code int64) (reference.Entry, bool)
}

// Input is a fully parsed observation
type Input struct {
	ProductCode      int64   `json:"product_code"`
	Quantity         int64   `json:"quantity"`
	MeasuredWeightKg float64 `json:"measured_weight_kg"`
	MeasuredLengthMM int64   `json:"measured_length_mm"`
	ReservationTag   string  `json:"reservation_tag"`
	Description      string  `json:"description,omitempty"`
}

// Result is a reconciled observation. It carries no lot id.
type Result struct {
	ProductCode         int64    `json:"product_code"`
	Description         string   `json:"description"`
	ReservationTag      string   `json:"reservation_tag"`
	Quantity            int64    `json:"quantity"`
	MeasuredWeightKg    float64  `json:"measured_weight_kg"`
	MeasuredLengthMM    int64    `json:"measured_length_mm"`
	WeightPerLength     float64  `json:"weight_per_length"`
	CutLengthMM         int64    `json:"cut_length_mm"`
	TheoreticalWeightKg float64  `json:"theoretical_weight_kg"`
	ScrapKg             float64  `json:"scrap_kg"`
	Found               bool     `json:"found"`
	Warnings            []string `json:"warnings,omitempty"`
}

// CutLength floors mm to the nearest lower multiple of 500. Negative lengths give 0.
func CutLength(mm int64) int64 {
	if mm <= 0 {
		return 0
	}
	return (mm / CutStepMM) * CutStepMM
}

// TheoreticalWeight is (cut/1000) * weightPerLength * quantity, unrounded
func TheoreticalWeight(cutLengthMM int64, weightPerLength float64, quantity int64) float64 {
	return (float64(cutLengthMM) / 1000.0) * weightPerLength * float64(quantity)
}

// Reconcile joins in against ref and derives the weights. It has no side effects.
// A product code missing from ref is not an error: weight per meter becomes 0 and
// a warning is attached so the row is flagged instead of dropped.
func Reconcile(in Input, ref Lookup) Result {
	res := Result{
		ProductCode:      in.ProductCode,
		Description:      in.Description,
		ReservationTag:   in.ReservationTag,
		Quantity:         in.Quantity,
		MeasuredWeightKg: in.MeasuredWeightKg,
		MeasuredLengthMM: in.MeasuredLengthMM,
	}

	var entry reference.Entry
	if ref != nil {
		entry, res.Found = ref.Lookup(in.ProductCode)
	}
	if res.Found {
		res.WeightPerLength = entry.WeightPerLength
		if res.Description == "" {
			res.Description = entry.Description
		}
	} else {
		res.Warnings = append(res.Warnings, fmt.Sprintf("product code %d not in reference table, weight per meter set to 0", in.ProductCode))
		if res.Description == "" {
			res.Description = reference.NotFoundDescription
		}
	}

	if in.MeasuredLengthMM < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("negative length %d mm, cut length set to 0", in.MeasuredLengthMM))
	}

	res.CutLengthMM = CutLength(in.MeasuredLengthMM)
	res.TheoreticalWeightKg = TheoreticalWeight(res.CutLengthMM, res.WeightPerLength, in.Quantity)
	res.ScrapKg = in.MeasuredWeightKg - res.TheoreticalWeightKg
	return res
}

// Record builds the persistent form of a result
func (r Result) Record(lotID, source string, extraWarnings ...string) models.ObservationRecord {
	warnings := append(append([]string{}, extraWarnings...), r.Warnings...)
	rec := models.ObservationRecord{
		LotID:               lotID,
		ReservationTag:      r.ReservationTag,
		Status:              models.StatusPending,
		ProductCode:         r.ProductCode,
		Description:         r.Description,
		Quantity:            r.Quantity,
		MeasuredWeightKg:    r.MeasuredWeightKg,
		MeasuredLengthMM:    r.MeasuredLengthMM,
		CutLengthMM:         r.CutLengthMM,
		TheoreticalWeightKg: r.TheoreticalWeightKg,
		ScrapKg:             r.ScrapKg,
		Source:              source,
	}
	if len(warnings) > 0 {
		rec.Warnings = warnings
	}
	return rec
}

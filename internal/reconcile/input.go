package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xelth-com/scraprecon/internal/utils"
)

// Field is a loosely typed input value. It decodes JSON strings, numbers and null,
// since scanners, forms and the vision extractor disagree on types.
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
		return nil
	}
	*f = Field(data)
	return nil
}

func (f Field) String() string { return strings.TrimSpace(string(f)) }

// RawInput is an observation as typed or extracted, before validation
type RawInput struct {
	ProductCode    Field `json:"product_code"`
	Quantity       Field `json:"quantity"`
	WeightKg       Field `json:"measured_weight_kg"`
	LengthMM       Field `json:"measured_length_mm"`
	ReservationTag Field `json:"reservation_tag"`
	Description    Field `json:"description"`
}

// ParseInput never fails: malformed fields are replaced by safe defaults
// (quantity 1, everything else 0) and each replacement is reported as a warning.
func ParseInput(raw RawInput) (Input, []string) {
	var warnings []string
	in := Input{
		ReservationTag: raw.ReservationTag.String(),
		Description:    raw.Description.String(),
	}

	code, err := utils.ParseInt(raw.ProductCode.String())
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("product code %q unreadable, using 0", raw.ProductCode.String()))
	case code < 0:
		warnings = append(warnings, fmt.Sprintf("product code %d negative, using 0", code))
	default:
		in.ProductCode = code
	}

	in.Quantity = 1
	qty, err := utils.ParseInt(raw.Quantity.String())
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("quantity %q unreadable, using 1", raw.Quantity.String()))
	case qty < 1:
		warnings = append(warnings, fmt.Sprintf("quantity %d below 1, using 1", qty))
	default:
		in.Quantity = qty
	}

	weight, err := utils.ParseFloat(raw.WeightKg.String())
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("weight %q unreadable, using 0", raw.WeightKg.String()))
	case weight < 0:
		warnings = append(warnings, fmt.Sprintf("weight %v negative, using 0", weight))
	default:
		in.MeasuredWeightKg = weight
	}

	length, err := utils.ParseInt(raw.LengthMM.String())
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("length %q unreadable, using 0", raw.LengthMM.String()))
	case length < 0:
		warnings = append(warnings, fmt.Sprintf("length %d negative, using 0", length))
	default:
		in.MeasuredLengthMM = length
	}

	return in, warnings
}

// ReconcileRaw parses and reconciles in one step; parse warnings come first
func ReconcileRaw(raw RawInput, ref Lookup) Result {
	in, warnings := ParseInput(raw)
	res := Reconcile(in, ref)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

package reconcile

import (
	"io"
	"strings"

	"github.com/xelth-com/scraprecon/internal/reference"
)

// Column spellings of an observation sheet, as written on the labels
var (
	rowCodeHeaders        = []string{"codigo material", "produto", "codigo do produto"}
	rowReservationHeaders = []string{"reserva"}
	rowQuantityHeaders    = []string{"quantidade", "qtd"}
	rowWeightHeaders      = []string{"peso", "peso (kg)", "peso medido (kg)"}
	rowLengthHeaders      = []string{"tamanho", "comprimento", "comprimento (mm)"}
	rowDescriptionHeaders = []string{"descricao material", "descricao"}
)

// LoadRows reads an observation sheet (csv or xlsx). Only the product code
// column is required; other missing columns decode as empty fields and are
// coerced later by ParseInput.
func LoadRows(name string, r io.Reader) ([]RawInput, error) {
	rows, err := reference.ReadSheet(name, r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &reference.LoadError{Source: name, Reason: "no header row"}
	}

	header := rows[0]
	codeCol := reference.FindColumn(header, rowCodeHeaders)
	if codeCol < 0 {
		return nil, &reference.LoadError{Source: name, Reason: "missing columns: Código Material"}
	}
	resCol := reference.FindColumn(header, rowReservationHeaders)
	qtyCol := reference.FindColumn(header, rowQuantityHeaders)
	weightCol := reference.FindColumn(header, rowWeightHeaders)
	lenCol := reference.FindColumn(header, rowLengthHeaders)
	descCol := reference.FindColumn(header, rowDescriptionHeaders)

	var out []RawInput
	for _, row := range rows[1:] {
		if reference.IsBlank(row) {
			continue
		}
		out = append(out, RawInput{
			ProductCode:    field(row, codeCol),
			ReservationTag: field(row, resCol),
			Quantity:       field(row, qtyCol),
			WeightKg:       field(row, weightCol),
			LengthMM:       field(row, lenCol),
			Description:    field(row, descCol),
		})
	}
	return out, nil
}

func field(row []string, idx int) Field {
	return Field(strings.TrimSpace(reference.Cell(row, idx)))
}

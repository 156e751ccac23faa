package reference

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/xelth-com/scraprecon/internal/utils"
)

// Options controls column requirements
type Options struct {
	RequireDescription bool
}

// Accepted header spellings, compared after trimming, lower-casing and accent folding
var (
	codeHeaders        = []string{"produto", "codigo material", "codigo do produto"}
	weightHeaders      = []string{"peso por metro", "peso sap (kg/m)", "peso/metro"}
	descriptionHeaders = []string{"descricao do produto", "descricao material", "descricao"}
)

// LoadFile reads a reference table from disk
func LoadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "cannot open file", Err: err}
	}
	defer f.Close()
	return Load(filepath.Base(path), f, opts)
}

// Load parses a reference table. The format is chosen by the file extension of name:
// .xlsx/.xlsm are read as workbooks, anything else as delimited text.
func Load(name string, r io.Reader, opts Options) (*Table, error) {
	rows, err := ReadSheet(name, r)
	if err != nil {
		return nil, err
	}
	return fromRows(name, rows, opts)
}

// ReadSheet returns the raw cells of a workbook's first sheet or of a csv file
func ReadSheet(name string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: name, Reason: "cannot read file", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Source: name, Reason: "file is empty"}
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(data)
	default:
		rows, err = readDelimited(data)
	}
	if err != nil {
		return nil, &LoadError{Source: name, Reason: "cannot parse file", Err: err}
	}
	return rows, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheetName)
}

func readDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		// Excel on Windows saves CSV as cp1252
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return nil, err
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// sniffDelimiter picks ';' or ',' from the header line
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func fromRows(source string, rows [][]string, opts Options) (*Table, error) {
	if len(rows) == 0 {
		return nil, &LoadError{Source: source, Reason: "no header row"}
	}

	header := rows[0]
	codeCol := FindColumn(header, codeHeaders)
	weightCol := FindColumn(header, weightHeaders)
	descCol := FindColumn(header, descriptionHeaders)

	var missing []string
	if codeCol < 0 {
		missing = append(missing, "Produto")
	}
	if weightCol < 0 {
		missing = append(missing, "Peso por Metro")
	}
	if descCol < 0 && opts.RequireDescription {
		missing = append(missing, "Descrição do produto")
	}
	if len(missing) > 0 {
		return nil, &LoadError{Source: source, Reason: "missing columns: " + strings.Join(missing, ", ")}
	}

	t := &Table{Source: source, entries: make(map[int64]Entry, len(rows)-1)}
	for i, row := range rows[1:] {
		rowNo := i + 2 // 1-based, header is row 1
		if IsBlank(row) {
			continue
		}

		code, err := utils.ParseInt(Cell(row, codeCol))
		if err != nil {
			t.Warnings = append(t.Warnings, fmt.Sprintf("row %d: product code %q is not a number, using 0", rowNo, Cell(row, codeCol)))
			code = 0
		}

		weight, err := utils.ParseFloat(Cell(row, weightCol))
		if err != nil {
			t.Warnings = append(t.Warnings, fmt.Sprintf("row %d: weight per meter %q is not a number, using 0", rowNo, Cell(row, weightCol)))
			weight = 0
		}

		var desc string
		if descCol >= 0 {
			desc = strings.TrimSpace(Cell(row, descCol))
		}

		t.add(Entry{ProductCode: code, Description: desc, WeightPerLength: weight}, rowNo)
	}
	return t, nil
}

// FindColumn returns the index of the first header matching one of names, or -1.
// names must already be folded (lower case, no accents).
func FindColumn(header []string, names []string) int {
	for i, h := range header {
		key := foldHeader(h)
		for _, n := range names {
			if key == n {
				return i
			}
		}
	}
	return -1
}

// foldHeader trims, lower-cases and strips accents so "Descrição " matches "descricao"
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}

// Cell returns row[idx] or "" when the row is short
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// IsBlank reports whether every cell is empty
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

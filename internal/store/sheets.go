package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/utils"
)

// SheetHeader is the first row of the records worksheet
var SheetHeader = []interface{}{
	"ID", "Lote", "Reserva", "Status", "Produto", "Descrição", "Quantidade",
	"Peso Medido (kg)", "Comprimento (mm)", "Comprimento Corte (mm)",
	"Peso Teórico (kg)", "Sucata (kg)", "Origem", "Avisos", "Criado Em",
}

const (
	lastColumn   = "O"
	statusColumn = "D"
	warningsJoin = " | "
	firstDataRow = 2
)

// sheetAPI is the slice of the Sheets API the store needs
type sheetAPI interface {
	Read(ctx context.Context, rng string) ([][]interface{}, error)
	Append(ctx context.Context, rng string, rows [][]interface{}) error
	Update(ctx context.Context, rng string, rows [][]interface{}) error
	Clear(ctx context.Context, rng string) error
	// DeleteRow removes a row by 0-based index
	DeleteRow(ctx context.Context, sheetName string, rowIndex int64) error
}

// SheetsStore keeps records in one worksheet of a Google spreadsheet.
// Every call goes to the network synchronously without retry. Writers in other
// processes are not coordinated: the last write wins.
//
// Record IDs are the highest ID in the sheet plus one, so they are only unique
// among rows present: deleting the newest record or clearing the sheet lets a
// later record reuse an old ID. Lot ids come from the sequencer and never repeat.
type SheetsStore struct {
	api       sheetAPI
	sheetName string
	mu        sync.Mutex
}

// NewSheetsStore connects with a service account credentials file and makes sure the header exists
func NewSheetsStore(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsStore, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return newSheetsStore(ctx, &googleSheets{svc: svc, spreadsheetID: spreadsheetID}, sheetName)
}

func newSheetsStore(ctx context.Context, api sheetAPI, sheetName string) (*SheetsStore, error) {
	s := &SheetsStore{api: api, sheetName: sheetName}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SheetsStore) rng(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.sheetName, "'", "''"), cells)
}

func (s *SheetsStore) dataRange() string {
	return s.rng(fmt.Sprintf("A%d:%s", firstDataRow, lastColumn))
}

func (s *SheetsStore) ensureHeader(ctx context.Context) error {
	rows, err := s.api.Read(ctx, s.rng("A1:"+lastColumn+"1"))
	if err != nil {
		return fmt.Errorf("read sheet header: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}
	if err := s.api.Update(ctx, s.rng("A1"), [][]interface{}{SheetHeader}); err != nil {
		return fmt.Errorf("write sheet header: %w", err)
	}
	return nil
}

// sheetRow is a parsed record plus its 0-based position in the worksheet
type sheetRow struct {
	index  int64
	record models.ObservationRecord
}

func (s *SheetsStore) readAll(ctx context.Context) ([]sheetRow, error) {
	values, err := s.api.Read(ctx, s.dataRange())
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	out := make([]sheetRow, 0, len(values))
	for i, v := range values {
		rec, ok := rowToRecord(v)
		if !ok {
			continue
		}
		out = append(out, sheetRow{index: int64(i + firstDataRow - 1), record: rec})
	}
	return out, nil
}

func (s *SheetsStore) find(ctx context.Context, id uint) (*sheetRow, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].record.ID == id {
			return &rows[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *SheetsStore) Append(ctx context.Context, rec *models.ObservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	var maxID uint
	for _, r := range rows {
		if r.record.ID > maxID {
			maxID = r.record.ID
		}
	}

	rec.ID = maxID + 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	if err := s.api.Append(ctx, s.dataRange(), [][]interface{}{recordToRow(rec)}); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *SheetsStore) List(ctx context.Context) ([]models.ObservationRecord, error) {
	rows, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]models.ObservationRecord, len(rows))
	for i, r := range rows {
		records[i] = r.record
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	return records, nil
}

func (s *SheetsStore) Get(ctx context.Context, id uint) (*models.ObservationRecord, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &row.record, nil
}

func (s *SheetsStore) UpdateStatus(ctx context.Context, id uint, status models.RecordStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	cell := s.rng(fmt.Sprintf("%s%d", statusColumn, row.index+1))
	if err := s.api.Update(ctx, cell, [][]interface{}{{string(status)}}); err != nil {
		return fmt.Errorf("update status of record %d: %w", id, err)
	}
	return nil
}

func (s *SheetsStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.api.DeleteRow(ctx, s.sheetName, row.index); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	return nil
}

func (s *SheetsStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.api.Clear(ctx, s.dataRange()); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

func recordToRow(r *models.ObservationRecord) []interface{} {
	return []interface{}{
		int64(r.ID),
		r.LotID,
		r.ReservationTag,
		string(r.Status),
		r.ProductCode,
		r.Description,
		r.Quantity,
		r.MeasuredWeightKg,
		r.MeasuredLengthMM,
		r.CutLengthMM,
		r.TheoreticalWeightKg,
		r.ScrapKg,
		r.Source,
		strings.Join(r.Warnings, warningsJoin),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func rowToRecord(row []interface{}) (models.ObservationRecord, bool) {
	var rec models.ObservationRecord
	id, err := utils.ParseInt(cellText(row, 0))
	if err != nil || id <= 0 {
		return rec, false
	}
	rec.ID = uint(id)
	rec.LotID = cellText(row, 1)
	rec.ReservationTag = cellText(row, 2)
	rec.Status = models.RecordStatus(cellText(row, 3))
	if st, err := models.ParseRecordStatus(cellText(row, 3)); err == nil {
		rec.Status = st
	}
	rec.ProductCode = cellInt(row, 4)
	rec.Description = cellText(row, 5)
	rec.Quantity = cellInt(row, 6)
	rec.MeasuredWeightKg = cellFloat(row, 7)
	rec.MeasuredLengthMM = cellInt(row, 8)
	rec.CutLengthMM = cellInt(row, 9)
	rec.TheoreticalWeightKg = cellFloat(row, 10)
	rec.ScrapKg = cellFloat(row, 11)
	rec.Source = cellText(row, 12)
	if w := cellText(row, 13); w != "" {
		rec.Warnings = strings.Split(w, warningsJoin)
	}
	if ts, err := time.Parse(time.RFC3339, cellText(row, 14)); err == nil {
		rec.CreatedAt = ts
	}
	return rec, true
}

func cellText(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cellInt(row []interface{}, i int) int64 {
	n, _ := utils.ParseInt(cellText(row, i))
	return n
}

func cellFloat(row []interface{}, i int) float64 {
	if i < len(row) {
		if f, ok := row[i].(float64); ok {
			return f
		}
	}
	f, _ := utils.ParseFloat(cellText(row, i))
	return f
}

// googleSheets adapts *sheets.Service to sheetAPI
type googleSheets struct {
	svc           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func (g *googleSheets) Read(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleSheets) Append(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (g *googleSheets) Update(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

func (g *googleSheets) Clear(ctx context.Context, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (g *googleSheets) DeleteRow(ctx context.Context, sheetName string, rowIndex int64) error {
	sheetID, err := g.sheetID(ctx, sheetName)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: rowIndex,
					EndIndex:   rowIndex + 1,
				},
			},
		}},
	}
	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return err
}

// sheetID resolves the numeric grid id that row deletion needs
func (g *googleSheets) sheetID(ctx context.Context, name string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.sheetIDs[name]; ok {
		return id, nil
	}

	sp, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if g.sheetIDs == nil {
		g.sheetIDs = make(map[string]int64)
	}
	for _, sh := range sp.Sheets {
		if sh.Properties != nil {
			g.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := g.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("worksheet %q not found", name)
	}
	return id, nil
}

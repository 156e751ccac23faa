package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/scraprecon/internal/database"
	"github.com/xelth-com/scraprecon/internal/models"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "records.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return NewGormStore(db.DB)
}

func sample(lot string, code int64) *models.ObservationRecord {
	return &models.ObservationRecord{
		LotID:               lot,
		ReservationTag:      "R-1",
		ProductCode:         code,
		Description:         "BAR A",
		Quantity:            2,
		MeasuredWeightKg:    10,
		MeasuredLengthMM:    1300,
		CutLengthMM:         1000,
		TheoreticalWeightKg: 6,
		ScrapKg:             4,
		Source:              models.SourceManual,
		Warnings:            []string{"checked by hand"},
	}
}

// exerciseStore runs the shared contract against any backend
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	first := sample("DEV00001", 1001)
	require.NoError(t, s.Append(ctx, first))
	second := sample("DEV00002", 1001)
	second.Warnings = nil
	require.NoError(t, s.Append(ctx, second))

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID, "most recent first")
	assert.Equal(t, "DEV00001", records[1].LotID)
	assert.Equal(t, models.StatusPending, records[1].Status)
	assert.Equal(t, []string{"checked by hand"}, []string(records[1].Warnings))
	assert.InDelta(t, 4.0, records[1].ScrapKg, 1e-9)

	require.NoError(t, s.UpdateStatus(ctx, first.ID, models.StatusConfirmed))
	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	assert.True(t, errors.Is(s.UpdateStatus(ctx, 9999, models.StatusConfirmed), ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, 9999), ErrNotFound))
	_, err = s.Get(ctx, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Delete(ctx, first.ID))
	records, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)

	require.NoError(t, s.ClearAll(ctx))
	records, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGormStore(t *testing.T) {
	exerciseStore(t, newGormStore(t))
}

func TestSheetsStore(t *testing.T) {
	api := &fakeSheet{}
	s, err := newSheetsStore(context.Background(), api, "Registros")
	require.NoError(t, err)

	require.Len(t, api.grid, 1, "header written on first use")
	assert.Equal(t, "ID", api.grid[0][0])

	exerciseStore(t, s)
}

func TestSheetsStore_KeepsExistingHeader(t *testing.T) {
	api := &fakeSheet{grid: [][]interface{}{{"custom"}}}
	_, err := newSheetsStore(context.Background(), api, "Registros")
	require.NoError(t, err)
	assert.Equal(t, "custom", api.grid[0][0])
}

func TestSheetsStore_IDsContinueAfterDelete(t *testing.T) {
	ctx := context.Background()
	s, err := newSheetsStore(ctx, &fakeSheet{}, "Registros")
	require.NoError(t, err)

	a, b := sample("DEV00001", 1), sample("DEV00002", 1)
	require.NoError(t, s.Append(ctx, a))
	require.NoError(t, s.Append(ctx, b))
	require.NoError(t, s.Delete(ctx, a.ID))

	c := sample("DEV00003", 1)
	require.NoError(t, s.Append(ctx, c))
	assert.Equal(t, b.ID+1, c.ID)
}

func TestRowToRecord_SkipsRowsWithoutID(t *testing.T) {
	_, ok := rowToRecord([]interface{}{})
	assert.False(t, ok)
	_, ok = rowToRecord([]interface{}{"total", "", ""})
	assert.False(t, ok)

	rec, ok := rowToRecord([]interface{}{float64(7), "DEV00007", "", "Confirmado", float64(1001), "BAR", "3", "12,5"})
	require.True(t, ok)
	assert.Equal(t, uint(7), rec.ID)
	assert.Equal(t, models.StatusConfirmed, rec.Status)
	assert.Equal(t, int64(3), rec.Quantity)
	assert.Equal(t, 12.5, rec.MeasuredWeightKg)
}

// fakeSheet is an in-memory worksheet understanding the ranges SheetsStore uses
type fakeSheet struct {
	grid [][]interface{}
}

var cellRef = regexp.MustCompile(`^([A-Z]+)(\d+)(?::([A-Z]+)(\d*))?$`)

func parseRange(rng string) (col string, row int, toRow int, err error) {
	i := strings.LastIndex(rng, "!")
	m := cellRef.FindStringSubmatch(rng[i+1:])
	if m == nil {
		return "", 0, 0, fmt.Errorf("bad range %q", rng)
	}
	row, _ = strconv.Atoi(m[2])
	toRow = -1
	if m[4] != "" {
		toRow, _ = strconv.Atoi(m[4])
	}
	return m[1], row, toRow, nil
}

func (f *fakeSheet) Read(_ context.Context, rng string) ([][]interface{}, error) {
	_, row, toRow, err := parseRange(rng)
	if err != nil {
		return nil, err
	}
	var out [][]interface{}
	for r := row; r <= len(f.grid) && (toRow < 0 || r <= toRow); r++ {
		out = append(out, append([]interface{}{}, f.grid[r-1]...))
	}
	return out, nil
}

func (f *fakeSheet) Append(_ context.Context, _ string, rows [][]interface{}) error {
	f.grid = append(f.grid, rows...)
	return nil
}

func (f *fakeSheet) Update(_ context.Context, rng string, rows [][]interface{}) error {
	col, row, _, err := parseRange(rng)
	if err != nil {
		return err
	}
	for len(f.grid) < row {
		f.grid = append(f.grid, []interface{}{})
	}
	c := int(col[0] - 'A')
	target := f.grid[row-1]
	for len(target) < c+len(rows[0]) {
		target = append(target, "")
	}
	copy(target[c:], rows[0])
	f.grid[row-1] = target
	return nil
}

func (f *fakeSheet) Clear(_ context.Context, rng string) error {
	_, row, _, err := parseRange(rng)
	if err != nil {
		return err
	}
	if len(f.grid) >= row {
		f.grid = f.grid[:row-1]
	}
	return nil
}

func (f *fakeSheet) DeleteRow(_ context.Context, _ string, rowIndex int64) error {
	if int(rowIndex) >= len(f.grid) {
		return fmt.Errorf("row %d out of range", rowIndex)
	}
	f.grid = append(f.grid[:rowIndex], f.grid[rowIndex+1:]...)
	return nil
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// run executes the root command with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("REDIS_URL", "")
	t.Setenv("RECORD_BACKEND", "database")
	t.Setenv("LOT_PREFIX", "DEV")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReconcileCommand(t *testing.T) {
	ref := writeFile(t, "ref.csv", "Produto;Peso por Metro;Descrição do produto\n1001;2,5;Barra 12mm\n")
	rows := writeFile(t, "rows.csv", "Reserva;Código Material;Quantidade;Peso;Tamanho\n"+
		"4471;1001;2;10,5;1300\n"+
		"4472;9999;1;4;900\n")
	out := filepath.Join(t.TempDir(), "report.xlsx")

	stdout, err := run(t, "reconcile", "--reference", ref, "--input", rows, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 rows")
	assert.Contains(t, stdout, "theoretical 5.00 kg")
	assert.Contains(t, stdout, "1 flagged")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	sheetRows, err := f.GetRows("Conciliacao")
	require.NoError(t, err)
	// header, two rows, totals
	require.Len(t, sheetRows, 4)
	assert.Equal(t, "NOT FOUND", sheetRows[2][2])
}

func TestReconcileCommand_MissingColumns(t *testing.T) {
	ref := writeFile(t, "ref.csv", "Produto;Descrição do produto\n1001;Barra\n")
	rows := writeFile(t, "rows.csv", "Código Material\n1001\n")

	_, err := run(t, "reconcile", "--reference", ref, "--input", rows, "--out", filepath.Join(t.TempDir(), "x.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Peso por Metro")
}

func TestLotNextCommand(t *testing.T) {
	sqliteEnv(t)

	stdout, err := run(t, "lot", "next", "1001", "--commit=false")
	require.NoError(t, err)
	assert.Equal(t, "DEV00001", strings.TrimSpace(stdout))

	stdout, err = run(t, "lot", "next", "1001", "--commit=true")
	require.NoError(t, err)
	assert.Equal(t, "DEV00001", strings.TrimSpace(stdout))

	stdout, err = run(t, "lot", "next", "1001", "--commit=false")
	require.NoError(t, err)
	assert.Equal(t, "DEV00002", strings.TrimSpace(stdout))

	_, err = run(t, "lot", "next", "abc", "--commit=false")
	assert.Error(t, err)
}

func TestRecordsCommands(t *testing.T) {
	sqliteEnv(t)

	stdout, err := run(t, "records", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 records")

	_, err = run(t, "records", "clear", "--yes=false")
	assert.Error(t, err)

	out := filepath.Join(t.TempDir(), "registros.xlsx")
	stdout, err = run(t, "records", "export", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 records")
	_, err = os.Stat(out)
	assert.NoError(t, err)

	_, err = run(t, "lot", "next", "7", "--commit=true")
	require.NoError(t, err)
	_, err = run(t, "records", "reset", "--yes")
	require.NoError(t, err)

	// confirmation does not carry over to the next invocation or the other command
	_, err = run(t, "records", "reset")
	assert.Error(t, err)
	_, err = run(t, "records", "clear")
	assert.Error(t, err)

	stdout, err = run(t, "lot", "next", "7", "--commit=false")
	require.NoError(t, err)
	assert.Equal(t, "DEV00001", strings.TrimSpace(stdout))
}

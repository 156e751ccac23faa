package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/database"
	"github.com/xelth-com/scraprecon/internal/lot"
	"github.com/xelth-com/scraprecon/internal/services/export"
	"github.com/xelth-com/scraprecon/internal/services/recon"
	"github.com/xelth-com/scraprecon/internal/store"
)

const referenceCSV = "Produto;Descrição do produto;Peso por Metro\n1001;BAR A;3,0\n1002;BAR B;1,5\n"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	cfg := &config.Config{
		JWTSecret: "test-secret",
		Admin:     config.AdminConfig{Password: "letmein"},
		Backend:   config.BackendDatabase,
	}
	svc := recon.NewService(store.NewGormStore(db.DB), lot.NewGormSequencer(db.DB, "DEV"), nil, nil)
	r, err := NewRouter(cfg, svc, nil)
	require.NoError(t, err)
	return r.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, files map[string][]struct{ name, content string }) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, list := range files {
		for _, f := range list {
			fw, err := mw.CreateFormFile(field, f.name)
			require.NoError(t, err)
			_, err = fw.Write([]byte(f.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadReference(t *testing.T, h http.Handler) {
	t.Helper()
	body, ctype := multipartBody(t, map[string][]struct{ name, content string }{
		"file": {{"ref.csv", referenceCSV}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reference", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func adminToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/login", map[string]string{"password": "letmein"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return "Bearer " + resp.AccessToken
}

var bar = map[string]interface{}{
	"product_code":       1001,
	"reservation_tag":    "4471",
	"quantity":           "2",
	"measured_weight_kg": "10,0",
	"measured_length_mm": 1300,
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReferenceRequiredBeforeCommit(t *testing.T) {
	h := newTestRouter(t)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/records", bar).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/reconcile/preview", bar).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/api/reference", nil).Code)
}

func TestCommitIdempotencyKey(t *testing.T) {
	h := newTestRouter(t)

	// a failed attempt does not burn the key
	rec := do(t, h, http.MethodPost, "/api/records", bar, "Idempotency-Key", "tap-1")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Duplicate")

	uploadReference(t, h)
	rec = do(t, h, http.MethodPost, "/api/records", bar, "Idempotency-Key", "tap-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/records", bar, "Idempotency-Key", "tap-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Duplicate submission")

	var list struct {
		Records []map[string]interface{} `json:"records"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/records", nil), &list)
	assert.Len(t, list.Records, 1)
}

func TestReferenceUploadRejectsMissingColumns(t *testing.T) {
	h := newTestRouter(t)
	body, ctype := multipartBody(t, map[string][]struct{ name, content string }{
		"file": {{"ref.csv", "Codigo,Peso\n1,2\n"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reference", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Produto")
}

func TestPreviewCommitAndList(t *testing.T) {
	h := newTestRouter(t)
	uploadReference(t, h)

	var info recon.ReferenceInfo
	decode(t, do(t, h, http.MethodGet, "/api/reference", nil), &info)
	assert.Equal(t, 2, info.Entries)

	var preview recon.Preview
	rec := do(t, h, http.MethodPost, "/api/reconcile/preview", bar)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &preview)
	assert.Equal(t, "DEV00001", preview.LotID)
	assert.InDelta(t, 4.0, preview.ScrapKg, 1e-9)

	rec = do(t, h, http.MethodPost, "/api/records", bar)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID    uint   `json:"id"`
		LotID string `json:"lot_id"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "DEV00001", created.LotID)

	var next struct {
		LotID string `json:"lot_id"`
	}
	decode(t, do(t, h, http.MethodGet, "/API/LOTS/1001/NEXT", nil), &next)
	assert.Equal(t, "DEV00002", next.LotID)

	var list struct {
		Records []struct {
			LotID string `json:"lot_id"`
		} `json:"records"`
		Summary struct {
			Items        int     `json:"items"`
			TotalScrapKg float64 `json:"total_scrap_kg"`
		} `json:"summary"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/records", nil), &list)
	require.Len(t, list.Records, 1)
	assert.Equal(t, 1, list.Summary.Items)
	assert.InDelta(t, 4.0, list.Summary.TotalScrapKg, 1e-9)

	rec = do(t, h, http.MethodGet, "/api/records/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rec = do(t, h, http.MethodGet, "/api/records/labels?ids=99", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/records/labels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	// oversized grids are clamped, not rendered degenerate
	rec = do(t, h, http.MethodGet, "/api/records/labels?cols=5000&rows=5000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminEndpoints(t *testing.T) {
	h := newTestRouter(t)
	uploadReference(t, h)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/records", bar).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/records", bar).Code)

	// no token
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodDelete, "/api/records", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/auth/login", map[string]string{"password": "nope"}).Code)

	auth := adminToken(t, h)

	rec := do(t, h, http.MethodPut, "/api/records/1/status", map[string]string{"status": "confirmado"}, "Authorization", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Confirmed"`)

	rec = do(t, h, http.MethodPut, "/api/records/1/status", map[string]string{"status": "lost"}, "Authorization", auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/records/1", nil, "Authorization", auth).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/records/1", nil, "Authorization", auth).Code)

	// clearing keeps counters
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/records", nil, "Authorization", auth).Code)
	var created struct {
		LotID string `json:"lot_id"`
	}
	decode(t, do(t, h, http.MethodPost, "/api/records", bar), &created)
	assert.Equal(t, "DEV00003", created.LotID)

	// reset restarts them
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/admin/reset", nil, "Authorization", auth).Code)
	decode(t, do(t, h, http.MethodPost, "/api/records", bar), &created)
	assert.Equal(t, "DEV00001", created.LotID)
}

func TestWizardFlow(t *testing.T) {
	h := newTestRouter(t)
	uploadReference(t, h)

	var started WizardResponse
	rec := do(t, h, http.MethodPost, "/api/wizard", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &started)
	id := started.Session.ID

	// empty scan is rejected and the session stays put
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/wizard/"+id+"/input", WizardInput{Value: "NOREAD"}).Code)

	// committing early is a conflict
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/wizard/"+id+"/commit", nil).Code)

	var resp WizardResponse
	for _, v := range []string{"1001", "4471", "2", "10", "1300"} {
		rec = do(t, h, http.MethodPost, "/api/wizard/"+id+"/input", WizardInput{Value: v})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &resp)
	}
	require.NotNil(t, resp.Preview)
	assert.Equal(t, "DEV00001", resp.Preview.LotID)
	assert.InDelta(t, 4.0, resp.Preview.ScrapKg, 1e-9)

	rec = do(t, h, http.MethodPost, "/api/wizard/"+id+"/commit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &resp)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "DEV00001", resp.Record.LotID)
	assert.Equal(t, "scan", resp.Record.Source)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/wizard/"+id+"/commit", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/wizard/missing", nil).Code)
}

func TestExtractWithoutVision(t *testing.T) {
	h := newTestRouter(t)
	uploadReference(t, h)

	body, ctype := multipartBody(t, map[string][]struct{ name, content string }{
		"images": {{"a.jpg", "\xff\xd8\xff"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBatchImagesWithoutVisionKeepsReference(t *testing.T) {
	h := newTestRouter(t)
	uploadReference(t, h)

	body, ctype := multipartBody(t, map[string][]struct{ name, content string }{
		"reference": {{"other.csv", "Produto;Peso por Metro\n2001;1,0\n"}},
		"images":    {{"a.jpg", "\xff\xd8\xff"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/batch/images", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var info struct {
		Source  string `json:"source"`
		Entries int    `json:"entries"`
	}
	rec = do(t, h, http.MethodGet, "/api/reference", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &info)
	assert.Equal(t, "ref.csv", info.Source)
	assert.Equal(t, 2, info.Entries)
}

func TestBatchRows(t *testing.T) {
	h := newTestRouter(t)

	body, ctype := multipartBody(t, map[string][]struct{ name, content string }{
		"reference": {{"ref.csv", referenceCSV}},
		"rows":      {{"rows.csv", "Reserva;Código Material;Quantidade;Peso;Tamanho\n4471;1001;2;10;1300\n4472;9999;1;5;800\n"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/batch", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "NOT FOUND", rows[2][2])

	// batch does not persist and does not load the reference for later
	var list struct {
		Records []interface{} `json:"records"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/records", nil), &list)
	assert.Empty(t, list.Records)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/api/reference", nil).Code)
}

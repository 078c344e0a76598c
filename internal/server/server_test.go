package server

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrbz/excel-insight-creator/internal/config"
	"github.com/rrbz/excel-insight-creator/internal/logging"
	"github.com/rrbz/excel-insight-creator/internal/workspace"
)

const salesCSV = "City,Sales,Notes\nA,10,likes tea\nB,5,Bob Smith referred\nA,7,\n"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.MaxUploadMB = 1
	return New(cfg, workspace.New(), logging.Discard()).Handler()
}

func upload(t *testing.T, h http.Handler, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestHealthz(t *testing.T) {
	rec := get(newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestNoDatasetIs404(t *testing.T) {
	h := newTestServer(t)
	for _, u := range []string{
		"/api/datasets/current",
		"/api/datasets/current/columns",
		"/api/datasets/current/rows",
		"/api/datasets/current/chart?category=City&value=Sales",
	} {
		rec := get(h, u)
		assert.Equal(t, http.StatusNotFound, rec.Code, u)
		assert.Contains(t, decode(t, rec)["error"], "no dataset", u)
	}
}

func TestUploadAndQuery(t *testing.T) {
	h := newTestServer(t)
	rec := upload(t, h, "sales.csv", salesCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	info := decode(t, rec)
	assert.Equal(t, "sales.csv", info["name"])
	assert.EqualValues(t, 3, info["rows"])
	assert.NotEmpty(t, info["id"])

	cur := decode(t, get(h, "/api/datasets/current"))
	assert.Equal(t, info["id"], cur["id"])

	cols := decode(t, get(h, "/api/datasets/current/columns"))
	columns := cols["columns"].([]any)
	require.Len(t, columns, 3)
	sales := columns[1].(map[string]any)
	assert.Equal(t, "numeric", sales["kind"])
	assert.EqualValues(t, 10, sales["max"])

	rows := decode(t, get(h, "/api/datasets/current/rows?q=bob"))
	assert.EqualValues(t, 1, rows["total_rows"])
	assert.EqualValues(t, 1, rows["page"])
	got := rows["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "B", got["City"])
}

func TestRowsPageClamps(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "sales.csv", salesCSV).Code)
	rows := decode(t, get(h, "/api/datasets/current/rows?page=99"))
	assert.EqualValues(t, 1, rows["page"])
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/rows?page=x").Code)
}

func TestChartEndpoint(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "sales.csv", salesCSV).Code)

	rec := get(h, "/api/datasets/current/chart?category=City&value=Sales&cap=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	points := body["points"].([]any)
	require.Len(t, points, 2)
	first := points[0].(map[string]any)
	assert.Equal(t, "A", first["category"])
	assert.EqualValues(t, 17, first["sum"])
	assert.EqualValues(t, 2, first["count"])
	assert.Equal(t, "numeric", body["value_kind"])
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 11, summary["mean"])

	empty := decode(t, get(h, "/api/datasets/current/chart?category=City"))
	assert.Empty(t, empty["points"])

	bad := get(h, "/api/datasets/current/chart?category=City&value=Sales&cap=15")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, decode(t, bad)["error"], "invalid cap")
}

func TestChartPNG(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "sales.csv", salesCSV).Code)

	rec := get(h, "/api/datasets/current/chart.png?category=City&value=Sales&type=pie")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/chart.png?category=City&value=Sales&type=radar").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(h, "/api/datasets/current/chart.png?category=City").Code)
}

func TestRejectedUploadKeepsSnapshot(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "sales.csv", salesCSV).Code)
	before := decode(t, get(h, "/api/datasets/current"))

	for name, body := range map[string]string{
		"empty.csv":  "",
		"header.csv": "a,b\n",
		"notes.pdf":  "%PDF-1.4",
	} {
		rec := upload(t, h, name, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.NotEmpty(t, decode(t, rec)["error"], name)
	}

	big := "a\n" + strings.Repeat("123456789\n", 150_000)
	assert.Equal(t, http.StatusRequestEntityTooLarge, upload(t, h, "big.csv", big).Code)

	after := decode(t, get(h, "/api/datasets/current"))
	assert.Equal(t, before["id"], after["id"])
}

func TestUploadWithoutFileField(t *testing.T) {
	h := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteJSONEncodeFailureIs500(t *testing.T) {
	var logs bytes.Buffer
	srv := New(config.Default(), workspace.New(), logging.New("debug", &logs))

	rec := httptest.NewRecorder()
	srv.writeJSON(rec, http.StatusOK, map[string]float64{"x": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "encode response")
	assert.Contains(t, logs.String(), "encode response")
}

func TestHugeValuesServeValidJSON(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "huge.csv", "City,Sales\nA,1e308\nA,1e308\nB,1\n").Code)

	cols := get(h, "/api/datasets/current/columns?extended=true")
	require.Equal(t, http.StatusOK, cols.Code, cols.Body.String())
	sales := decode(t, cols)["columns"].([]any)[1].(map[string]any)
	assert.EqualValues(t, 1e308, sales["max"])
	assert.NotNil(t, sales["average"])

	rec := get(h, "/api/datasets/current/chart?category=City&value=Sales")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode(t, rec)["points"].([]any)[0].(map[string]any)
	assert.Equal(t, "A", first["category"])
	assert.EqualValues(t, math.MaxFloat64, first["sum"])
}

func TestUploadUnsupportedExtension(t *testing.T) {
	h := newTestServer(t)
	rec := upload(t, h, "report.docx", "City,Sales\nA,1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unsupported file format")
	assert.Equal(t, http.StatusNotFound, get(h, "/api/datasets/current").Code)
}

func TestColumnsExtended(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "sales.csv", salesCSV).Code)

	plain := decode(t, get(h, "/api/datasets/current/columns"))
	assert.Equal(t, []any{"Sales"}, plain["numeric_columns"])
	assert.Nil(t, plain["columns"].([]any)[1].(map[string]any)["detail"])

	ext := decode(t, get(h, "/api/datasets/current/columns?extended=1"))
	detail := ext["columns"].([]any)[1].(map[string]any)["detail"].(map[string]any)
	numeric := detail["numeric"].(map[string]any)
	assert.EqualValues(t, 7, numeric["median"])
	notes := ext["columns"].([]any)[2].(map[string]any)["detail"].(map[string]any)
	assert.EqualValues(t, 1, notes["nulls"])

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/columns?extended=maybe").Code)
}

const pairsCSV = "x,y,z,label\n1,2,9,a\n2,4,7,b\n3,6,5,c\n4,8,1,d\n"

func TestCorrelationsEndpoint(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "pairs.csv", pairsCSV).Code)

	rec := get(h, "/api/datasets/current/correlations")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "pearson", body["method"])
	assert.Equal(t, []any{"x", "y", "z"}, body["columns"])
	strongest := body["strongest"].([]any)
	require.Len(t, strongest, 3)
	top := strongest[0].(map[string]any)
	assert.Equal(t, "x", top["a"])
	assert.Equal(t, "y", top["b"])
	assert.InDelta(t, 1.0, top["r"].(float64), 1e-9)

	rec = get(h, "/api/datasets/current/correlations?method=spearman&columns=x,z")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	values := decode(t, rec)["values"].([]any)
	assert.InDelta(t, -1.0, values[0].([]any)[1].(float64), 1e-9)

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/correlations?method=kendall").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/correlations?columns=x,nope").Code)
}

func TestHistogramEndpoint(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "pairs.csv", pairsCSV).Code)

	rec := get(h, "/api/datasets/current/histogram?x=z&bins=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 4, body["values"])
	bins := body["bins"].([]any)
	require.Len(t, bins, 2)
	assert.EqualValues(t, 1, bins[0].(map[string]any)["count"])
	assert.EqualValues(t, 3, bins[1].(map[string]any)["count"])
	assert.EqualValues(t, 5, bins[1].(map[string]any)["lo"])

	for _, u := range []string{
		"/api/datasets/current/histogram",
		"/api/datasets/current/histogram?x=nope",
		"/api/datasets/current/histogram?x=z&bins=0",
		"/api/datasets/current/histogram?x=z&bins=ten",
	} {
		assert.Equal(t, http.StatusBadRequest, get(h, u).Code, u)
	}
}

func TestPlotPNG(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, h, "pairs.csv", pairsCSV).Code)

	for _, u := range []string{
		"/api/datasets/current/plot.png?x=x",
		"/api/datasets/current/plot.png?type=histogram&x=z&bins=3",
		"/api/datasets/current/plot.png?type=scatter&x=x&y=z",
	} {
		rec := get(h, u)
		require.Equal(t, http.StatusOK, rec.Code, u+" "+rec.Body.String())
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"), u)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), u)
	}

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/plot.png?type=pie&x=x").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/datasets/current/plot.png?type=scatter&x=x").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(h, "/api/datasets/current/plot.png?x=label").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(h, "/api/datasets/current/plot.png?type=scatter&x=x&y=label").Code)
}

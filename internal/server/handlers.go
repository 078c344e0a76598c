package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/ingest"
	"github.com/rrbz/excel-insight-creator/internal/render"
	"github.com/rrbz/excel-insight-creator/internal/workspace"
)

// multipartSlack covers form boundaries and headers around the file part.
const multipartSlack = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	opt := s.cfg.IngestOptions()
	r.Body = http.MaxBytesReader(w, r.Body, opt.MaxBytes+multipartSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			s.writeError(w, http.StatusRequestEntityTooLarge, ingest.ErrTooLarge)
			return
		}
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()
	if !ingest.Supported(hdr.Filename) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%s: %w (use .csv, .tsv or .xlsx)", hdr.Filename, ingest.ErrUnsupportedFormat))
		return
	}
	if sheet := r.FormValue("sheet"); sheet != "" {
		opt.Sheet = sheet
	}

	snap, err := s.ws.Ingest(file, hdr.Filename, opt)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ingest.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.log.WithFields(logrus.Fields{"file": hdr.Filename, "size": hdr.Size}).WithError(err).Warn("upload rejected")
		s.writeError(w, status, err)
		return
	}
	info := snap.Info()
	s.log.WithFields(logrus.Fields{"id": info.ID, "file": info.Name, "rows": info.Rows, "columns": len(info.Headers)}).Info("dataset loaded")
	s.writeJSON(w, http.StatusCreated, info)
}

// current writes 404 and returns nil when nothing is loaded.
func (s *Server) current(w http.ResponseWriter) *workspace.Snapshot {
	snap, err := s.ws.Current()
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return nil
	}
	return snap
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	if snap := s.current(w); snap != nil {
		s.writeJSON(w, http.StatusOK, snap.Info())
	}
}

type columnsResponse struct {
	*analysis.Report
	NumericColumns []string `json:"numeric_columns"`
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	extended, ok := s.boolParam(w, r, "extended")
	if !ok {
		return
	}
	opt := analysis.DefaultOptions()
	opt.Classifier = s.cfg.Classifier()
	opt.SampleRows = -1
	opt.Extended = extended
	rep, err := analysis.Profile(r.Context(), snap.Table, opt)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	rep.ID = snap.ID
	s.writeJSON(w, http.StatusOK, columnsResponse{Report: rep, NumericColumns: opt.Classifier.NumericHeaders(snap.Table)})
}

// boolParam reads an optional boolean query parameter, writing 400 on
// malformed input.
func (s *Server) boolParam(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s: %q", name, v))
		return false, false
	}
	return b, true
}

// intParam reads an optional integer query parameter, writing 400 on
// malformed input.
func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s: %q", name, v))
		return 0, false
	}
	return n, true
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	page, ok := s.intParam(w, r, "page", 1)
	if !ok {
		return
	}
	q := r.URL.Query()
	filtered := analysis.Filter(snap.Table, q.Get("q"), q.Get("column"))
	s.writeJSON(w, http.StatusOK, analysis.Paginate(filtered, page, s.cfg.PageSize))
}

type chartResponse struct {
	analysis.AggregationResult
	Summary   analysis.SeriesSummary `json:"summary"`
	ValueKind analysis.Kind          `json:"value_kind"`
}

// aggregate parses the shared chart query and runs the aggregation. It
// writes the error response itself and returns ok=false on bad input.
func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) (analysis.AggregationResult, analysis.Kind, bool) {
	var none analysis.AggregationResult
	agg := s.cfg.Aggregator()
	snap := s.current(w)
	if snap == nil {
		return none, analysis.Textual, false
	}
	q := r.URL.Query()
	limit := s.cfg.DefaultCap
	if v := q.Get("cap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", analysis.ErrInvalidCap, v))
			return none, analysis.Textual, false
		}
		limit = n
	}
	if err := analysis.ValidateCap(limit); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return none, analysis.Textual, false
	}
	if v := q.Get("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid strict: %q", v))
			return none, analysis.Textual, false
		}
		if strict {
			agg.Policy = analysis.SkipOnCoercionFailure
		} else {
			agg.Policy = analysis.ZeroOnCoercionFailure
		}
	}
	res := agg.Aggregate(snap.Table, q.Get("category"), q.Get("value"), limit)
	return res, agg.ValueKind(snap.Table, q.Get("value")), true
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	res, kind, ok := s.aggregate(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, chartResponse{
		AggregationResult: res,
		Summary:           analysis.Summarize(res),
		ValueKind:         kind,
	})
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	typ, err := render.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, _, ok := s.aggregate(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.Chart(&buf, res, render.ChartOptions{Type: typ}); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrNoData) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type correlationsResponse struct {
	analysis.CorrelationMatrix
	Strongest []analysis.Correlation `json:"strongest"`
}

// handleCorrelations returns the matrix over the numeric columns, or over
// ?columns=a,b,c when given.
func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	snap := s.current(w)
	if snap == nil {
		return
	}
	q := r.URL.Query()
	method, err := analysis.ParseMethod(q.Get("method"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	headers := s.cfg.Classifier().NumericHeaders(snap.Table)
	if v := q.Get("columns"); v != "" {
		headers = strings.Split(v, ",")
		for _, h := range headers {
			if !snap.Table.Has(h) {
				s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown column: %q", h))
				return
			}
		}
	}
	m := analysis.Correlate(snap.Table, headers, method)
	s.writeJSON(w, http.StatusOK, correlationsResponse{CorrelationMatrix: m, Strongest: m.Strongest(-1)})
}

// numericColumn resolves ?<param>= to a column of the current table.
func (s *Server) numericColumn(w http.ResponseWriter, r *http.Request, snap *workspace.Snapshot, param string) (string, bool) {
	h := r.URL.Query().Get(param)
	if h == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing %s column", param))
		return "", false
	}
	if !snap.Table.Has(h) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown column: %q", h))
		return "", false
	}
	return h, true
}

type histogramResponse struct {
	Column   string         `json:"column"`
	Values   int            `json:"values"`
	Rejected int            `json:"rejected"`
	Bins     []analysis.Bin `json:"bins"`
}

// histogram parses ?x= and ?bins= and bins the column's numbers.
func (s *Server) histogram(w http.ResponseWriter, r *http.Request) (histogramResponse, bool) {
	var res histogramResponse
	snap := s.current(w)
	if snap == nil {
		return res, false
	}
	x, ok := s.numericColumn(w, r, snap, "x")
	if !ok {
		return res, false
	}
	n, ok := s.intParam(w, r, "bins", analysis.DefaultBins)
	if !ok {
		return res, false
	}
	if err := analysis.ValidateBins(n); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return res, false
	}
	values, rejected := analysis.NumericValues(snap.Table, x)
	return histogramResponse{Column: x, Values: len(values), Rejected: rejected, Bins: analysis.Histogram(values, n)}, true
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.histogram(w, r); ok {
		s.writeJSON(w, http.StatusOK, res)
	}
}

// handlePlotPNG draws a distribution chart: ?type=histogram&x= or
// ?type=scatter&x=&y=.
func (s *Server) handlePlotPNG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var err error
	switch typ := r.URL.Query().Get("type"); typ {
	case "", "histogram":
		res, ok := s.histogram(w, r)
		if !ok {
			return
		}
		err = render.Histogram(&buf, res.Bins, render.ChartOptions{Title: res.Column, XLabel: res.Column})
	case "scatter":
		snap := s.current(w)
		if snap == nil {
			return
		}
		x, ok := s.numericColumn(w, r, snap, "x")
		if !ok {
			return
		}
		y, ok := s.numericColumn(w, r, snap, "y")
		if !ok {
			return
		}
		xs, ys := analysis.Paired(snap.Table, x, y)
		err = render.Scatter(&buf, xs, ys, render.ChartOptions{Title: fmt.Sprintf("%s vs %s", y, x), XLabel: x, YLabel: y})
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q (use histogram|scatter)", render.ErrUnknownType, typ))
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrNoData) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

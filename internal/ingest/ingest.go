package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rrbz/excel-insight-creator/internal/table"
)

var (
	// ErrEmptyFile means the input had no usable header row.
	ErrEmptyFile = errors.New("file is empty or has no header row")
	// ErrNoDataRows means every data row was blank.
	ErrNoDataRows = errors.New("no valid data rows found")
	// ErrUnsupportedFormat means no registered decoder accepts the file name.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrTooLarge means the input exceeded Options.MaxBytes.
	ErrTooLarge = errors.New("file too large")
	// ErrSheetNotFound means Options.Sheet names no sheet in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Options controls decoding.
type Options struct {
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// Delimiter overrides the CSV field separator; 0 picks it from the
	// extension (tab for .tsv, comma otherwise).
	Delimiter rune
	// MaxBytes rejects larger inputs with ErrTooLarge; <= 0 means no limit.
	MaxBytes int64
}

// Decoder turns one file format into a Table.
type Decoder interface {
	CanDecode(name string) bool
	Decode(r io.Reader, name string, opt Options) (*table.Table, error)
}

var registry []Decoder

// Register adds a decoder. Later registrations do not override earlier ones
// for the same extension.
func Register(d Decoder) {
	registry = append(registry, d)
}

func init() {
	Register(csvDecoder{})
	Register(xlsxDecoder{})
}

// Supported reports whether a registered decoder accepts name.
func Supported(name string) bool {
	return lookup(name) != nil
}

func lookup(name string) Decoder {
	for _, d := range registry {
		if d.CanDecode(name) {
			return d
		}
	}
	return nil
}

// DecodeFile opens path and decodes it with the matching decoder.
func DecodeFile(path string, opt Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	if opt.MaxBytes > 0 {
		if st, err := f.Stat(); err == nil && st.Size() > opt.MaxBytes {
			return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", filepath.Base(path), ErrTooLarge, st.Size(), opt.MaxBytes)
		}
	}
	return Decode(f, filepath.Base(path), opt)
}

// Decode reads r fully and decodes it with the decoder matching name. On any
// error no Table is returned.
func Decode(r io.Reader, name string, opt Options) (*table.Table, error) {
	d := lookup(name)
	if d == nil {
		return nil, fmt.Errorf("%s: %w (use .csv, .tsv or .xlsx)", name, ErrUnsupportedFormat)
	}
	data, err := readLimited(r, opt.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t, err := d.Decode(bytes.NewReader(data), name, opt)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return t, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (limit %d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// Build normalizes raw records (first record is the header) into a Table.
// Header cells are trimmed and blank ones dropped together with their
// column. Rows with no non-blank cell under a kept header are skipped. Each
// cell becomes a Number when it parses as a finite number, Empty when blank
// and Text otherwise.
func Build(records [][]string, source string) (*table.Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	var (
		headers []string
		cols    []int
	)
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		headers = append(headers, h)
		cols = append(cols, i)
	}
	if len(headers) == 0 {
		return nil, ErrEmptyFile
	}

	rows := make([]table.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(table.Row, len(headers))
		for k, i := range cols {
			if i >= len(rec) {
				break
			}
			c := table.Infer(rec[i])
			if c.IsEmpty() {
				continue
			}
			row[headers[k]] = c
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return table.New(headers, rows, source)
}

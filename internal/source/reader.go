package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"vm-inventory/internal/model"
)

// Default sheet names of RVTools exports.
const (
	DefaultInfoSheet    = "vInfo"
	DefaultClusterSheet = "vCluster"
)

var (
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = "\ufeff"
)

// Reader loads one input file.
type Reader interface {
	Read(ctx context.Context, path string) (*model.Workbook, error)
}

// ReaderOptions configures sheet selection.
type ReaderOptions struct {
	Sheet        string // VM sheet, falls back to the first sheet
	ClusterSheet string // optional host count sheet
}

// FileReader reads .xlsx/.xlsm workbooks with excelize and .csv files with
// encoding/csv.
type FileReader struct {
	opts   ReaderOptions
	logger zerolog.Logger
}

// NewReader creates a FileReader.
func NewReader(opts ReaderOptions, logger zerolog.Logger) *FileReader {
	if opts.Sheet == "" {
		opts.Sheet = DefaultInfoSheet
	}
	if opts.ClusterSheet == "" {
		opts.ClusterSheet = DefaultClusterSheet
	}
	return &FileReader{
		opts:   opts,
		logger: logger.With().Str("component", "source").Logger(),
	}
}

// Read loads path. Every failure is returned as a *model.FileReadError.
func (r *FileReader) Read(ctx context.Context, path string) (*model.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.FileReadError{Path: path, Err: err}
	}

	var (
		wb  *model.Workbook
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		wb, err = r.readCSV(path)
	default:
		wb, err = r.readExcel(path)
	}
	if err != nil {
		return nil, &model.FileReadError{Path: path, Err: err}
	}
	return wb, nil
}

func (r *FileReader) readExcel(path string) (*model.Workbook, error) {
	if err := checkZip(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	infoName := pickSheet(sheets, r.opts.Sheet)
	if infoName == "" {
		infoName = sheets[0]
		r.logger.Debug().
			Str("file", path).
			Str("wanted", r.opts.Sheet).
			Str("using", infoName).
			Msg("sheet not found, using first sheet")
	}

	rows, err := f.GetRows(infoName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", infoName, err)
	}

	wb := &model.Workbook{Path: path, Info: toSheet(infoName, rows)}

	if name := pickSheet(sheets, r.opts.ClusterSheet); name != "" && name != infoName {
		clusterRows, err := f.GetRows(name)
		if err != nil {
			r.logger.Warn().Err(err).Str("file", path).Str("sheet", name).Msg("failed to read cluster sheet, continuing without host counts")
		} else {
			wb.Clusters = toSheet(name, clusterRows)
		}
	}

	return wb, nil
}

func (r *FileReader) readCSV(path string) (*model.Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &model.Workbook{Path: path, Info: toSheet(name, rows)}, nil
}

// checkZip rejects files that are not zip containers before excelize sees
// them.
func checkZip(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("not an Excel workbook: %w", err)
	}
	if !bytes.Equal(header, zipMagic) {
		return errors.New("not an Excel workbook: missing zip signature")
	}
	return nil
}

// pickSheet returns want if present, else a case-insensitive match, else "".
func pickSheet(sheets []string, want string) string {
	if want == "" {
		return ""
	}
	if slices.Contains(sheets, want) {
		return want
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return s
		}
	}
	return ""
}

// toSheet uses the first row as headers, pads short rows to the header
// width and drops blank rows.
func toSheet(name string, rows [][]string) *model.Sheet {
	s := &model.Sheet{Name: name}
	if len(rows) == 0 {
		return s
	}

	s.Headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		s.Headers[i] = strings.TrimSpace(h)
	}

	width := len(s.Headers)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) < width {
			padded := make(model.RawRow, width)
			copy(padded, row)
			s.Rows = append(s.Rows, padded)
			continue
		}
		s.Rows = append(s.Rows, model.RawRow(row))
	}
	return s
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/bansang/pricebook_backend/utils"
)

// headerAnchors: a candidate header row must contain at least one of these.
var headerAnchors = []string{"식자재", "코드", "판매가", "단가"}

const headerMinCells = 5

// RawRow is one data row keyed by the supplier's own column names.
// Empty and whitespace-only cells are absent from Cells.
type RawRow struct {
	Index int // 1-based row number in the sheet
	Cells map[string]string
}

type SheetData struct {
	SheetName string
	HeaderRow int
	Headers   []string
	Rows      []RawRow
}

// ReadSheet opens a price-list file (xlsx family via excelize, or csv with
// EUC-KR fallback) and returns the data rows below the detected header row.
// Rows above the header are supplier letterhead and ignored; fully empty rows
// are skipped. Cell values are returned untransformed apart from trimming.
func ReadSheet(ctx context.Context, path string, sheetName string) (*SheetData, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
		sheetName = filepath.Base(path)
	default:
		rows, sheetName, err = readExcelRows(path, sheetName)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		return nil, ErrHeaderNotFound
	}

	headers := make([]string, len(rows[headerIdx]))
	for i, h := range rows[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	data := &SheetData{
		SheetName: sheetName,
		HeaderRow: headerIdx + 1,
		Headers:   headers,
	}
	for i := headerIdx + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells := make(map[string]string)
		for j, cell := range rows[i] {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			cells[headers[j]] = v
		}
		if len(cells) == 0 {
			continue
		}
		data.Rows = append(data.Rows, RawRow{Index: i + 1, Cells: cells})
	}
	return data, nil
}

func readExcelRows(path string, sheetName string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSheetUnreadable, err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", fmt.Errorf("%w: workbook has no sheets", ErrSheetUnreadable)
		}
		sheetName = sheets[0]
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSheetUnreadable, err)
	}
	return rows, sheetName, nil
}

// readCSVRows reads a csv price list. Files exported from Korean Excel
// installs are frequently CP949/EUC-KR; anything that is not valid UTF-8 is
// run through the EUC-KR decoder.
func readCSVRows(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSheetUnreadable, err)
	}

	var r io.Reader = strings.NewReader(string(raw))
	if !utf8.Valid(raw) {
		r = transform.NewReader(strings.NewReader(string(raw)), korean.EUCKR.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSheetUnreadable, err)
	}
	return rows, nil
}

// findHeaderRow returns the index of the first row with enough non-empty
// cells and at least one anchor substring, or -1.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		nonEmpty := 0
		anchored := false
		for _, cell := range row {
			v := utils.FoldWidth(strings.TrimSpace(cell))
			if v == "" {
				continue
			}
			nonEmpty++
			for _, anchor := range headerAnchors {
				if strings.Contains(v, anchor) {
					anchored = true
					break
				}
			}
		}
		if nonEmpty >= headerMinCells && anchored {
			return i
		}
	}
	return -1
}

package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"scoutlens/pkg/contracts/domain"
)

// ParseResult carries a parsed table plus any non-fatal warnings
// collected along the way.
type ParseResult struct {
	Table    *domain.ParsedTable
	Warnings []string
}

// Parser converts raw file bytes into a ParsedTable.
//
// Parsing is deterministic: identical bytes and kind always produce an
// identical table. Malformed individual rows produce warnings, never
// errors; only a structurally unreadable file is fatal.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads data according to the declared file kind.
func (p *Parser) Parse(data []byte, kind domain.FileKind) (*ParseResult, error) {
	switch kind {
	case domain.FileKindCSV:
		return p.parseCSV(data)
	case domain.FileKindXLSX, domain.FileKindXLS:
		return p.parseWorkbook(data)
	default:
		return nil, fmt.Errorf("unsupported file kind: %s", kind)
	}
}

// parseCSV reads a CSV file. The first record is the header row; every
// subsequent record becomes one table row. Records whose cell count does
// not match the header count are padded or truncated with a warning.
func (p *Parser) parseCSV(data []byte) (*ParseResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header row: %w", err)
	}

	headers := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers = append(headers, h)
	}

	result := &ParseResult{
		Table: &domain.ParsedTable{Headers: headers},
	}

	for lineNum := 2; ; lineNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: unreadable record: %v", lineNum, err))
			continue
		}

		if len(record) != len(headers) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: expected %d cells, got %d", lineNum, len(headers), len(record)))
		}

		row := make(domain.Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = coerceCSVValue(record[i])
			} else {
				row[h] = domain.NullCell()
			}
		}
		result.Table.Rows = append(result.Table.Rows, row)
	}

	p.logger.Debug("parsed CSV file",
		slog.Int("columns", len(headers)),
		slog.Int("rows", len(result.Table.Rows)),
		slog.Int("warnings", len(result.Warnings)))

	return result, nil
}

// parseWorkbook reads an Excel workbook. Every sheet is parsed
// independently; headers are unioned across sheets preserving first-seen
// order. When more than one sheet contributed rows, a synthetic _sheet
// column recording provenance is injected first.
func (p *Parser) parseWorkbook(data []byte) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	result := &ParseResult{Table: &domain.ParsedTable{}}
	seen := make(map[string]bool)
	contributing := 0

	type sheetRow struct {
		sheet string
		row   domain.Row
	}
	var allRows []sheetRow

	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("sheet %q: unreadable: %v", name, err))
			continue
		}
		if len(rows) < 2 {
			continue
		}

		headerRow := rows[0]
		headers := make([]string, len(headerRow))
		for i, h := range headerRow {
			headers[i] = strings.TrimSpace(h)
		}

		produced := 0
		for rowIdx, record := range rows[1:] {
			row := make(domain.Row, len(headers))
			empty := true
			for i, h := range headers {
				if h == "" {
					continue
				}
				var cell domain.Cell
				if i < len(record) {
					cell = coerceWorkbookValue(record[i])
				} else {
					cell = domain.NullCell()
				}
				if !cell.IsNull() {
					empty = false
				}
				row[h] = cell
			}
			if empty {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("sheet %q row %d: skipped empty row", name, rowIdx+2))
				continue
			}

			for _, h := range headers {
				if h != "" && !seen[h] {
					seen[h] = true
					result.Table.Headers = append(result.Table.Headers, h)
				}
			}
			allRows = append(allRows, sheetRow{sheet: name, row: row})
			produced++
		}
		if produced > 0 {
			contributing++
		}
	}

	multiSheet := contributing > 1
	if multiSheet {
		result.Table.Headers = append([]string{domain.SheetColumn}, result.Table.Headers...)
	}

	for _, sr := range allRows {
		if multiSheet {
			sr.row[domain.SheetColumn] = domain.TextCell(sr.sheet)
		}
		// Fill headers this sheet never declared so every row covers
		// the full union.
		for _, h := range result.Table.Headers {
			if _, ok := sr.row[h]; !ok {
				sr.row[h] = domain.NullCell()
			}
		}
		result.Table.Rows = append(result.Table.Rows, sr.row)
	}

	p.logger.Debug("parsed workbook",
		slog.Int("sheets", len(sheets)),
		slog.Int("contributing_sheets", contributing),
		slog.Int("columns", len(result.Table.Headers)),
		slog.Int("rows", len(result.Table.Rows)),
		slog.Int("warnings", len(result.Warnings)))

	return result, nil
}

// coerceCSVValue applies CSV coercion: blank becomes null, fully numeric
// strings become numbers, everything else stays text.
func coerceCSVValue(raw string) domain.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.NullCell()
	}
	if n, ok := parseNumber(s); ok {
		return domain.NumberCell(n)
	}
	return domain.TextCell(s)
}

// coerceWorkbookValue applies workbook coercion: blank becomes null,
// fully numeric strings become numbers, exact "true"/"false" become
// booleans, everything else stays text.
func coerceWorkbookValue(raw string) domain.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.NullCell()
	}
	switch strings.ToLower(s) {
	case "true":
		return domain.BoolCell(true)
	case "false":
		return domain.BoolCell(false)
	}
	if n, ok := parseNumber(s); ok {
		return domain.NumberCell(n)
	}
	return domain.TextCell(s)
}

// parseNumber parses a numeric string, tolerating thousands separators.
func parseNumber(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	// ParseFloat accepts "Inf" and "NaN" spellings; those are text here.
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/constants"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/consolidate"
	"github.com/josefrancisco81788/Tool---Financial-Statement-Transcription-sub001/internal/extract"
)

// Service renders a consolidated statement into report bytes.
type Service struct {
	logger   *slog.Logger
	maxYears int
}

func NewService(logger *slog.Logger, maxYears int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxYears <= 0 {
		maxYears = 4
	}
	return &Service{logger: logger, maxYears: maxYears}
}

// yearHeader builds the fixed year-mapping header row the downstream
// importer expects: Date, Year, Year, "", 0.0 followed by up to maxYears
// year labels, newest first.
func (s *Service) yearHeader(stmt *consolidate.ConsolidatedStatement) []string {
	row := []string{"Date", "Year", "Year", "", "0.0"}
	years := stmt.YearsDetected
	if len(years) > s.maxYears {
		years = years[:s.maxYears]
	}
	return append(row, years...)
}

// columnHeader is the data-row header following the year mapping.
func (s *Service) columnHeader(stmt *consolidate.ConsolidatedStatement) []string {
	row := []string{"Statement", "Category", "Field", "Value"}
	years := stmt.YearsDetected
	if len(years) > s.maxYears {
		years = years[:s.maxYears]
	}
	row = append(row, years...)
	return append(row, "Confidence", "Source")
}

// dataRows flattens the merged tree deterministically: statement types in
// declaration order, categories and fields sorted.
func (s *Service) dataRows(stmt *consolidate.ConsolidatedStatement) [][]string {
	years := stmt.YearsDetected
	if len(years) > s.maxYears {
		years = years[:s.maxYears]
	}

	var rows [][]string
	for _, st := range constants.AllStatementTypes {
		section, ok := stmt.Statements[st]
		if !ok {
			continue
		}
		for _, category := range sortedKeys(section) {
			fields := section[category]
			for _, field := range sortedItemKeys(fields) {
				item := fields[field]
				row := []string{string(st), category, field, formatValue(item.Value)}
				for _, y := range years {
					if v, ok := item.Years[y]; ok {
						row = append(row, formatValue(v))
					} else {
						row = append(row, "")
					}
				}
				row = append(row, strconv.FormatFloat(item.Confidence, 'f', 2, 64), item.Source)
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// ExportCSV returns the consolidated statement as CSV bytes.
func (s *Service) ExportCSV(stmt *consolidate.ConsolidatedStatement) ([]byte, error) {
	start := time.Now()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(s.yearHeader(stmt)); err != nil {
		return nil, fmt.Errorf("csv write header: %w", err)
	}
	if err := w.Write(s.columnHeader(stmt)); err != nil {
		return nil, fmt.Errorf("csv write header: %w", err)
	}
	rows := s.dataRows(stmt)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	s.logger.Info("export.csv.ok",
		"rows", len(rows),
		"years", len(stmt.YearsDetected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportXLSX returns an XLSX workbook with one sheet per statement type.
func (s *Service) ExportXLSX(stmt *consolidate.ConsolidatedStatement) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	firstSheet := true
	sheets := 0

	for _, st := range constants.AllStatementTypes {
		section, ok := stmt.Statements[st]
		if !ok {
			continue
		}
		sheet := string(st)
		if firstSheet {
			// excelize always creates "Sheet1"; rename it for the first statement
			defaultName := f.GetSheetName(0)
			if err := f.SetSheetName(defaultName, sheet); err != nil {
				return nil, err
			}
			firstSheet = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
		}
		if err := s.writeSheet(f, sheet, st, section, stmt); err != nil {
			return nil, err
		}
		sheets++
	}

	if sheets == 0 {
		// keep the default sheet but still emit the year header
		sheet := f.GetSheetName(0)
		writeRow(f, sheet, 1, s.yearHeader(stmt))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheets", sheets,
		"years", len(stmt.YearsDetected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSheet(f *excelize.File, sheet string, st constants.StatementType, section consolidate.Section, stmt *consolidate.ConsolidatedStatement) error {
	years := stmt.YearsDetected
	if len(years) > s.maxYears {
		years = years[:s.maxYears]
	}

	writeRow(f, sheet, 1, s.yearHeader(stmt))
	header := []string{"Category", "Field", "Value"}
	header = append(header, years...)
	header = append(header, "Confidence", "Source")
	writeRow(f, sheet, 2, header)

	row := 3
	for _, category := range sortedKeys(section) {
		fields := section[category]
		for _, field := range sortedItemKeys(fields) {
			item := fields[field]
			cells := []string{category, field, formatValue(item.Value)}
			for _, y := range years {
				if v, ok := item.Years[y]; ok {
					cells = append(cells, formatValue(v))
				} else {
					cells = append(cells, "")
				}
			}
			cells = append(cells, strconv.FormatFloat(item.Confidence, 'f', 2, 64), item.Source)
			writeRow(f, sheet, row, cells)
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // category
	_ = f.SetColWidth(sheet, "B", "B", 32) // field
	_ = f.SetColWidth(sheet, "C", "H", 16) // values
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) {
	for i, v := range cells {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(section consolidate.Section) []string {
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedItemKeys(fields map[string]extract.LineItem) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

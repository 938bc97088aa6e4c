package analytics

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"roomcheck/internal/inspection"
)

const sheetName = "Inspections"

var columnWidths = []float64{12, 8, 12, 12, 12, 8, 28, 6, 40, 10}

// WriteXLSX writes the same rows as WriteCSV as an Excel workbook with a
// styled header row. Grade A rows are highlighted.
func WriteXLSX(w io.Writer, records []inspection.Record, opts ExportOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#EBF2F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	severeStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#8B3A3A", Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create severe style: %w", err)
	}
	noteStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("create note style: %w", err)
	}

	if err := writeRow(f, 1, Header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, row := range Rows(records, opts) {
		rowNum := i + 2
		if err := writeRow(f, rowNum, row); err != nil {
			return err
		}
		note, _ := excelize.CoordinatesToCellName(noteColumn+1, rowNum)
		if err := f.SetCellStyle(sheetName, note, note, noteStyle); err != nil {
			return fmt.Errorf("style note: %w", err)
		}
		if row[7] == string(inspection.GradeA) {
			first, _ := excelize.CoordinatesToCellName(1, rowNum)
			end, _ := excelize.CoordinatesToCellName(noteColumn, rowNum)
			if err := f.SetCellStyle(sheetName, first, end, severeStyle); err != nil {
				return fmt.Errorf("style severe row: %w", err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

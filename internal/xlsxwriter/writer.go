// =============================================================================
// eml2csv - XLSX Writer Module
// =============================================================================
//
// This module writes the report rows into a single-sheet Excel workbook, for
// officials who open the OSV4-3 table directly instead of importing the CSV.
//
// WORKBOOK STRUCTURE:
//   - One sheet named "OSV4-3"
//   - Row N of the report is spreadsheet row N, starting in column A
//   - Every value is stored as text, so ids such as "0668" keep their
//     leading zeros
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the only sheet in the workbook.
const SheetName = "OSV4-3"

// Options controls the sheet layout.
type Options struct {
	// SheetName is the name of the sheet holding the report.
	// Default: "OSV4-3"
	SheetName string

	// NameColumnWidth is the width of the column holding the affiliation and
	// candidate names. Zero leaves the default width.
	// Default: 40
	NameColumnWidth float64
}

// DefaultOptions returns the OSV4-3 layout.
func DefaultOptions() Options {
	return Options{
		SheetName:       SheetName,
		NameColumnWidth: 40,
	}
}

// Build creates a workbook holding rows. The caller must Close the file.
func Build(rows [][]string, options Options) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), options.SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(options.SheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if options.NameColumnWidth > 0 {
		for _, col := range []string{"B", "D"} {
			if err := f.SetColWidth(options.SheetName, col, col, options.NameColumnWidth); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to size column %s: %w", col, err)
			}
		}
	}

	return f, nil
}

// Write renders rows as an XLSX workbook to w with the default options.
func Write(w io.Writer, rows [][]string) error {
	return WriteWithOptions(w, rows, DefaultOptions())
}

// WriteWithOptions renders rows as an XLSX workbook to w.
func WriteWithOptions(w io.Writer, rows [][]string, options Options) error {
	f, err := Build(rows, options)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadRows reads the rows of the report sheet back from an XLSX workbook.
// Trailing empty cells of each row are not returned.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

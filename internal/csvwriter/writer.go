// =============================================================================
// eml2csv - CSV Writer Module
// =============================================================================
//
// This module renders the assembled report rows as the CSV text expected by
// the OSV4-3 spreadsheet import.
//
// CSV FORMAT:
//   "Verkiezing";;"Tweede Kamerverkiezing 2025"
//   "Datum";;"2025-10-29"
//   ...
//   ;"opgeroepenen";;;"1200";"1200"
//
//   - Every non-empty field is wrapped in double quotes, embedded quotes are
//     doubled
//   - Empty fields are written as nothing at all
//   - Fields are separated by ";" and rows by "\n"
//   - The last row is not followed by a line terminator
//   - The text starts with a UTF-8 byte order mark
//
// encoding/csv only quotes fields that need it, so rows are formatted here.
//
// =============================================================================

package csvwriter

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Layout of the OSV4-3 CSV text.
const (
	Separator      = ";"
	LineTerminator = "\n"
)

// =============================================================================
// WRITING
// =============================================================================

// Write renders rows to w, prefixed with a UTF-8 byte order mark.
//
// RETURNS:
//   - An error if writing to w fails.
func Write(w io.Writer, rows [][]string) error {
	encoder := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())

	for i, row := range rows {
		if i > 0 {
			if _, err := io.WriteString(encoder, LineTerminator); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
		if _, err := io.WriteString(encoder, FormatRow(row)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// FormatRow joins the quoted fields of one row with Separator.
func FormatRow(row []string) string {
	fields := make([]string, len(row))
	for i, field := range row {
		fields[i] = QuoteField(field)
	}
	return strings.Join(fields, Separator)
}

// QuoteField wraps a non-empty field in double quotes and doubles any quote
// inside it. An empty field stays empty.
func QuoteField(s string) string {
	if s == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

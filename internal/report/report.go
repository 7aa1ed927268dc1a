// =============================================================================
// eml2csv - Report Assembler
// =============================================================================
//
// This module turns the extracted election data into the ordered rows of the
// OSV4-3 tabulation template.
//
// ROW ORDER:
//   1. Four header rows (election, date, area, authority number)
//   2. Column header, reporting unit ids, reporting unit postcodes
//   3. Statistics rows, with the derived "aangetroffen stembiljetten" row
//      directly after "ongeldige stembiljetten"
//   4. Per affiliation: the affiliation total row, then its candidates
//
// COLUMN LAYOUT (data rows):
//   4 identity columns, the "Totaal" column, one column per reporting unit.
//
// =============================================================================

package report

import (
	"fmt"
	"strconv"

	"github.com/kiesraad/eml2csv/internal/extractor"
	"github.com/kiesraad/eml2csv/internal/types"
)

// Row is one output line.
type Row []string

// Report is the fully assembled OSV4-3 table.
type Report struct {
	Rows []Row
}

// Template labels.
const (
	LabelElection  = "Verkiezing"
	LabelDate      = "Datum"
	LabelArea      = "Gebied"
	LabelNumber    = "Nummer"
	LabelAreaIDs   = "Gebiednummer"
	LabelPostcodes = "Postcode"
	LabelFound     = "aangetroffen stembiljetten"
)

// ColumnHeaders are the fixed leading cells of the column header row.
var ColumnHeaders = []string{"Lijstnummer", "Aanduiding", "Volgnummer", "Naam kandidaat", "Totaal"}

// IdentityColumns is the number of leading cells before the "Totaal" column.
const IdentityColumns = 4

// =============================================================================
// ERRORS
// =============================================================================

// ReconciliationError reports statistics that cannot be aligned with the
// reporting units or cannot be summed.
type ReconciliationError struct {
	Row     string
	Message string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("cannot reconcile %q: %s", e.Row, e.Message)
}

// LookupError reports a registry entry without matching vote counts.
type LookupError struct {
	Key types.VoteKey
}

func (e *LookupError) Error() string {
	if e.Key.IsAffiliationTotal() {
		return fmt.Sprintf("no votes recorded for affiliation %s", e.Key.AffiliationID)
	}
	return fmt.Sprintf("no votes recorded for candidate %s of affiliation %s", e.Key.CandidateID, e.Key.AffiliationID)
}

// =============================================================================
// ASSEMBLY
// =============================================================================

// Input bundles everything extracted from the two documents.
type Input struct {
	Metadata     *extractor.Metadata
	MetadataRows []extractor.MetadataRow
	Registry     types.Registry
	Votes        types.VoteMatrix
}

// Assemble builds the report rows.
//
// RETURNS:
//   - The report.
//   - A *ReconciliationError if a statistics or vote row does not have one
//     value for the total plus one per reporting unit, or if the ballots
//     cannot be summed.
//   - A *LookupError if an affiliation or candidate has no vote counts.
func Assemble(in Input) (*Report, error) {
	m := in.Metadata
	width := len(m.ReportingUnits) + 1

	r := &Report{}
	r.add(Row{LabelElection, "", m.ElectionName})
	r.add(Row{LabelDate, "", m.ElectionDate})
	r.add(Row{LabelArea, "", m.AuthorityLabel()})
	r.add(Row{LabelNumber, "", m.AuthorityID})

	names := append(Row(nil), ColumnHeaders...)
	ids := Row{LabelAreaIDs, "", "", "", ""}
	zips := Row{LabelPostcodes, "", "", "", ""}
	for _, u := range m.ReportingUnits {
		names = append(names, u.DisplayName)
		ids = append(ids, u.ID)
		zips = append(zips, u.Zip)
	}
	r.add(names)
	r.add(ids)
	r.add(zips)

	statistics, err := statisticsRows(in.MetadataRows, width)
	if err != nil {
		return nil, err
	}
	r.Rows = append(r.Rows, statistics...)

	for _, aff := range in.Registry {
		key := types.AffiliationKey(aff.Identifier.ID)
		values, err := lookup(in.Votes, key, width)
		if err != nil {
			return nil, err
		}
		r.add(append(Row{aff.Identifier.ID, aff.Identifier.Name, "", ""}, values...))

		for _, cand := range aff.Candidates {
			key := types.CandidateKey(aff.Identifier.ID, cand.ID)
			values, err := lookup(in.Votes, key, width)
			if err != nil {
				return nil, err
			}
			r.add(append(Row{"", "", cand.ID, cand.Name}, values...))
		}
	}

	return r, nil
}

func (r *Report) add(row Row) {
	r.Rows = append(r.Rows, row)
}

// Records returns the rows as plain string slices for the output writers.
func (r *Report) Records() [][]string {
	records := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		records[i] = row
	}
	return records
}

// statisticsRows renders the metadata rows in template order and inserts the
// derived ballot total after the invalid ballots row.
func statisticsRows(rows []extractor.MetadataRow, width int) ([]Row, error) {
	byKey := make(map[extractor.MetadataKey][]string, len(rows))
	for _, row := range rows {
		if len(row.Values) != width {
			return nil, &ReconciliationError{
				Row:     string(row.Key),
				Message: fmt.Sprintf("found %d values, want %d (total plus %d reporting units)", len(row.Values), width, width-1),
			}
		}
		byKey[row.Key] = row.Values
	}

	found, err := Reconcile(
		byKey[extractor.KeyValidBallots],
		byKey[extractor.KeyInvalidBallots],
		byKey[extractor.KeyBlankBallots],
	)
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows)+1)
	for _, row := range rows {
		out = append(out, statisticsRow(string(row.Key), row.Values))
		if row.Key == extractor.KeyInvalidBallots {
			out = append(out, statisticsRow(LabelFound, found))
		}
	}
	return out, nil
}

func statisticsRow(label string, values []string) Row {
	return append(Row{"", label, "", ""}, values...)
}

// Reconcile sums valid, invalid and blank ballot counts column by column.
// The three rows must have equal length and contain decimal integers.
func Reconcile(valid, invalid, blank []string) ([]string, error) {
	if len(valid) != len(invalid) || len(valid) != len(blank) {
		return nil, &ReconciliationError{
			Row: LabelFound,
			Message: fmt.Sprintf("valid, invalid and blank ballot rows have %d, %d and %d values",
				len(valid), len(invalid), len(blank)),
		}
	}

	sums := make([]string, len(valid))
	for i := range valid {
		total := 0
		for _, s := range []string{valid[i], invalid[i], blank[i]} {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, &ReconciliationError{
					Row:     LabelFound,
					Message: fmt.Sprintf("column %d: %q is not a number", i+1, s),
				}
			}
			total += n
		}
		sums[i] = strconv.Itoa(total)
	}
	return sums, nil
}

func lookup(votes types.VoteMatrix, key types.VoteKey, width int) ([]string, error) {
	values, ok := votes.Row(key)
	if !ok {
		return nil, &LookupError{Key: key}
	}
	if len(values) != width {
		label := "affiliation " + key.AffiliationID
		if !key.IsAffiliationTotal() {
			label += " candidate " + key.CandidateID
		}
		return nil, &ReconciliationError{
			Row:     label,
			Message: fmt.Sprintf("found %d vote counts, want %d", len(values), width),
		}
	}
	return values, nil
}

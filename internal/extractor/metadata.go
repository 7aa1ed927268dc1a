// =============================================================================
// eml2csv - Metadata Extractor
// =============================================================================
//
// This file extracts everything the report needs from the counts document
// apart from the vote counts themselves:
//   - Election name, date and identifier
//   - Managing authority name, number and type
//   - Reporting units (polling stations) in document order
//   - The ballot and voter statistics rows ("metadata rows")
//
// All required values go through the emldoc mandatory accessors, so a
// missing field fails the conversion instead of producing an empty cell.
//
// =============================================================================

package extractor

import (
	"fmt"

	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/types"
)

// =============================================================================
// SELECTORS
// =============================================================================

var (
	pathElectionIdentifier      = emldoc.MustCompile(".//eml:ElectionIdentifier")
	pathElectionName            = emldoc.MustCompile(".//eml:ElectionName")
	pathElectionDate            = emldoc.MustCompile(".//kr:ElectionDate")
	pathAuthorityIdentifier     = emldoc.MustCompile(".//eml:AuthorityIdentifier")
	pathReportingUnitIdentifier = emldoc.MustCompile(".//eml:ReportingUnitIdentifier")
)

// =============================================================================
// METADATA
// =============================================================================

// Metadata holds the election and authority details of a counts document.
type Metadata struct {
	ElectionID    string
	ElectionName  string
	ElectionDate  string
	AuthorityName string
	AuthorityID   string
	AuthorityType string

	// ReportingUnits are in document order. This order defines the column
	// order of the report.
	ReportingUnits []types.ReportingUnit
}

// AuthorityLabel returns the "Gebied" header value, e.g. "Gemeente Utrecht".
func (m *Metadata) AuthorityLabel() string {
	return m.AuthorityType + " " + m.AuthorityName
}

// ExtractMetadata reads the election, authority and reporting unit details
// from a counts document.
func ExtractMetadata(counts *emldoc.Document) (*Metadata, error) {
	root := counts.Root
	m := &Metadata{}

	var err error
	if m.ElectionID, err = root.MandatoryAttrAt(pathElectionIdentifier, "Id"); err != nil {
		return nil, fmt.Errorf("failed to read election id: %w", err)
	}
	if m.ElectionName, err = root.MandatoryTextAt(pathElectionName); err != nil {
		return nil, fmt.Errorf("failed to read election name: %w", err)
	}
	if m.ElectionDate, err = root.MandatoryTextAt(pathElectionDate); err != nil {
		return nil, fmt.Errorf("failed to read election date: %w", err)
	}
	if m.AuthorityName, err = root.MandatoryTextAt(pathAuthorityIdentifier); err != nil {
		return nil, fmt.Errorf("failed to read authority name: %w", err)
	}
	if m.AuthorityID, err = root.MandatoryAttrAt(pathAuthorityIdentifier, "Id"); err != nil {
		return nil, fmt.Errorf("failed to read authority id: %w", err)
	}
	m.AuthorityType = AuthorityType(m.AuthorityName)

	units, err := extractReportingUnits(counts)
	if err != nil {
		return nil, err
	}
	m.ReportingUnits = units

	return m, nil
}

func extractReportingUnits(counts *emldoc.Document) ([]types.ReportingUnit, error) {
	elements := counts.FindAll(pathReportingUnitIdentifier)
	units := make([]types.ReportingUnit, 0, len(elements))

	for i, el := range elements {
		name, err := emldoc.MandatoryText(el)
		if err != nil {
			return nil, fmt.Errorf("failed to read name of reporting unit %d: %w", i+1, err)
		}
		id, err := emldoc.MandatoryAttr(el, "Id")
		if err != nil {
			return nil, fmt.Errorf("failed to read id of reporting unit %d: %w", i+1, err)
		}
		units = append(units, types.ReportingUnit{
			RawName:     name,
			ID:          ExtractReportingUnitID(id),
			Zip:         ExtractZip(name),
			DisplayName: CleanReportingUnitName(name),
		})
	}

	return units, nil
}

// =============================================================================
// METADATA ROWS
// =============================================================================

// MetadataKey identifies one statistics row of the report.
type MetadataKey string

const (
	KeyCast                MetadataKey = "opgeroepenen"
	KeyPollingCards        MetadataKey = "geldige stempas"
	KeyProxyCertificates   MetadataKey = "geldig volmachtbewijs"
	KeyVoterCards          MetadataKey = "geldige kiezerspas"
	KeyAdmittedVoters      MetadataKey = "toegelaten kiezers"
	KeyValidBallots        MetadataKey = "geldige stembiljetten"
	KeyBlankBallots        MetadataKey = "blanco stembiljetten"
	KeyInvalidBallots      MetadataKey = "ongeldige stembiljetten"
	KeyMoreBallots         MetadataKey = "meer stembiljetten dan toegelaten kiezers"
	KeyFewerBallots        MetadataKey = "minder stembiljetten dan toegelaten kiezers"
	KeyBallotsTakenHome    MetadataKey = "kiezers met stembiljet hebben niet gestemd"
	KeyTooFewBallotsIssued MetadataKey = "er zijn te weinig stembiljetten uitgereikt"
	KeyTooManyIssued       MetadataKey = "er zijn te veel stembiljetten uitgereikt"
	KeyNoExplanation       MetadataKey = "geen verklaring"
	KeyOtherExplanation    MetadataKey = "andere verklaring"
)

// MetadataField binds a report row to the EML element it is read from.
type MetadataField struct {
	Key  MetadataKey
	Path *emldoc.Path
}

// Label returns the row label as printed in the report.
func (f MetadataField) Label() string {
	return string(f.Key)
}

func uncounted(reasonCode string) *emldoc.Path {
	return emldoc.MustCompile(".//eml:UncountedVotes[@ReasonCode='" + reasonCode + "']")
}

// MetadataFields lists the statistics rows in template order.
var MetadataFields = []MetadataField{
	{Key: KeyCast, Path: emldoc.MustCompile(".//eml:Cast")},
	{Key: KeyPollingCards, Path: uncounted("geldige stempassen")},
	{Key: KeyProxyCertificates, Path: uncounted("geldige volmachtbewijzen")},
	{Key: KeyVoterCards, Path: uncounted("geldige kiezerspassen")},
	{Key: KeyAdmittedVoters, Path: uncounted("toegelaten kiezers")},
	{Key: KeyValidBallots, Path: emldoc.MustCompile(".//eml:TotalCounted")},
	{Key: KeyBlankBallots, Path: emldoc.MustCompile(".//eml:RejectedVotes[@ReasonCode='blanco']")},
	{Key: KeyInvalidBallots, Path: emldoc.MustCompile(".//eml:RejectedVotes[@ReasonCode='ongeldig']")},
	{Key: KeyMoreBallots, Path: uncounted("meer getelde stembiljetten")},
	{Key: KeyFewerBallots, Path: uncounted("minder getelde stembiljetten")},
	{Key: KeyBallotsTakenHome, Path: uncounted("meegenomen stembiljetten")},
	{Key: KeyTooFewBallotsIssued, Path: uncounted("te weinig uitgereikte stembiljetten")},
	{Key: KeyTooManyIssued, Path: uncounted("te veel uitgereikte stembiljetten")},
	{Key: KeyNoExplanation, Path: uncounted("geen verklaring")},
	{Key: KeyOtherExplanation, Path: uncounted("andere verklaring")},
}

// MetadataRow is one statistics row: the total followed by one value per
// reporting unit, in document order.
type MetadataRow struct {
	Key    MetadataKey
	Values []string
}

// ExtractMetadataRows reads every row in MetadataFields from the counts
// document. The number of values per row is not checked here; the report
// assembler reconciles it against the reporting units.
func ExtractMetadataRows(counts *emldoc.Document) ([]MetadataRow, error) {
	rows := make([]MetadataRow, 0, len(MetadataFields))

	for _, field := range MetadataFields {
		elements := counts.FindAll(field.Path)
		values := make([]string, 0, len(elements))
		for i, el := range elements {
			v, err := emldoc.MandatoryText(el)
			if err != nil {
				return nil, fmt.Errorf("failed to read %q value %d (%s): %w", field.Label(), i+1, field.Path, err)
			}
			values = append(values, v)
		}
		rows = append(rows, MetadataRow{Key: field.Key, Values: values})
	}

	return rows, nil
}

// =============================================================================
// eml2csv - Cross-Document Validation
// =============================================================================
//
// This module checks that the two input documents form a usable pair before
// any data is extracted from them.
//
// CHECKS (in order, the first failure aborts):
//   1. The counts document is an EML-510b file
//   2. The candidates document is an EML-230b file
//   3. Both documents refer to the same election
//   4. Both documents refer to the same contest
//
// ERROR HANDLING:
//   These are user input errors. Each failure is an *InvalidInputError whose
//   message names the file or the two mismatching values.
//
// =============================================================================

package validation

import (
	"fmt"

	"github.com/kiesraad/eml2csv/internal/emldoc"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

const (
	// CountsDocumentType is the EML Id of a municipal count.
	CountsDocumentType = "510b"

	// CandidatesDocumentType is the EML Id of a candidate list.
	CandidatesDocumentType = "230b"
)

var (
	pathElectionIdentifier = emldoc.MustCompile(".//eml:ElectionIdentifier")
	pathContestIdentifier  = emldoc.MustCompile(".//eml:ContestIdentifier")
)

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// Check names the validation step that failed.
type Check string

const (
	CheckCountsType     Check = "counts-type"
	CheckCandidatesType Check = "candidates-type"
	CheckElectionID     Check = "election-id"
	CheckContestID      Check = "contest-id"
)

// InvalidInputError reports a pair of documents that cannot be converted.
type InvalidInputError struct {
	// Check is the validation step that failed.
	Check Check

	// Message is a human-readable description including the offending values.
	Message string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return e.Message
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks that counts is an EML-510b document, candidates is an
// EML-230b document and that both describe the same election and contest.
//
// PARAMETERS:
//   - counts: The parsed counts document.
//   - candidates: The parsed candidate list document.
//
// RETURNS:
//   - nil if the pair is usable.
//   - An *InvalidInputError describing the first failed check.
func Validate(counts, candidates *emldoc.Document) error {
	if DocumentType(counts) != CountsDocumentType {
		return &InvalidInputError{
			Check:   CheckCountsType,
			Message: fmt.Sprintf("%s was not an EML counts file (%s)", source(counts), CountsDocumentType),
		}
	}
	if DocumentType(candidates) != CandidatesDocumentType {
		return &InvalidInputError{
			Check:   CheckCandidatesType,
			Message: fmt.Sprintf("%s was not an EML candidates file (%s)", source(candidates), CandidatesDocumentType),
		}
	}

	if err := matchIdentifier(counts, candidates, pathElectionIdentifier, CheckElectionID, "election"); err != nil {
		return err
	}
	return matchIdentifier(counts, candidates, pathContestIdentifier, CheckContestID, "contest")
}

// DocumentType returns the Id attribute of an eml:EML root element, or "" when
// the document has a different root.
func DocumentType(doc *emldoc.Document) string {
	if doc == nil || !doc.Root.Is(emldoc.NamespaceEML, "EML") {
		return ""
	}
	id, _ := emldoc.Attr(doc.Root, "Id")
	return id
}

// ElectionID returns the Id of the first eml:ElectionIdentifier in doc.
func ElectionID(doc *emldoc.Document) (string, bool) {
	return doc.Root.AttrAt(pathElectionIdentifier, "Id")
}

// ContestID returns the Id of the first eml:ContestIdentifier in doc.
func ContestID(doc *emldoc.Document) (string, bool) {
	return doc.Root.AttrAt(pathContestIdentifier, "Id")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func matchIdentifier(counts, candidates *emldoc.Document, p *emldoc.Path, check Check, what string) error {
	countsID, countsOK := counts.Root.AttrAt(p, "Id")
	candidatesID, candidatesOK := candidates.Root.AttrAt(p, "Id")

	if countsOK && candidatesOK && countsID == candidatesID {
		return nil
	}

	return &InvalidInputError{
		Check: check,
		Message: fmt.Sprintf("%s ids did not match: counts file was %s while candidates file was %s",
			what, orMissing(countsID, countsOK), orMissing(candidatesID, candidatesOK)),
	}
}

func orMissing(value string, ok bool) string {
	if !ok {
		return "<missing>"
	}
	return value
}

func source(doc *emldoc.Document) string {
	if doc == nil || doc.Source == "" {
		return "<input>"
	}
	return doc.Source
}

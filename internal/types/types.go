// =============================================================================
// eml2csv - Shared Types
// =============================================================================
//
// This package contains the election model shared by the extractor, report
// and converter packages. All values are built once per conversion and never
// mutated afterwards.
//
// =============================================================================

package types

// =============================================================================
// IDENTIFIERS
// =============================================================================

// AffiliationIdentifier identifies a party or list. It is a comparable value
// and may be used as a map key.
type AffiliationIdentifier struct {
	ID   string
	Name string
}

// CandidateIdentifier identifies a candidate within an affiliation.
// Name is formatted as "<prefix> <lastname>, <initials>".
type CandidateIdentifier struct {
	ID   string
	Name string
}

// ReportingUnit is a polling station or other counting unit.
type ReportingUnit struct {
	// RawName is the reporting unit name exactly as it appears in the EML.
	RawName string

	// ID is the reporting unit number with the "<authority>::SB" prefix removed.
	ID string

	// Zip is the postcode mentioned in the name, or empty.
	Zip string

	// DisplayName is RawName without the polling station prefix and the
	// postcode fragment.
	DisplayName string
}

// =============================================================================
// CANDIDATE REGISTRY
// =============================================================================

// Affiliation pairs an affiliation with its candidates in list order.
type Affiliation struct {
	Identifier AffiliationIdentifier
	Candidates []CandidateIdentifier
}

// Registry is the candidate list in document order. Its order governs the
// order of the affiliation and candidate rows in the report.
type Registry []Affiliation

// CandidateCount returns the number of candidates over all affiliations.
func (r Registry) CandidateCount() int {
	n := 0
	for _, a := range r {
		n += len(a.Candidates)
	}
	return n
}

// =============================================================================
// VOTE MATRIX
// =============================================================================

// VoteKey addresses one row of the vote matrix. An empty CandidateID
// addresses the affiliation total.
type VoteKey struct {
	AffiliationID string
	CandidateID   string
}

// AffiliationKey returns the key of an affiliation total.
func AffiliationKey(affiliationID string) VoteKey {
	return VoteKey{AffiliationID: affiliationID}
}

// CandidateKey returns the key of a candidate within an affiliation.
func CandidateKey(affiliationID, candidateID string) VoteKey {
	return VoteKey{AffiliationID: affiliationID, CandidateID: candidateID}
}

// IsAffiliationTotal reports whether the key addresses an affiliation total.
func (k VoteKey) IsAffiliationTotal() bool {
	return k.CandidateID == ""
}

// VoteMatrix maps a key to its vote counts: the total first, then one value
// per reporting unit in reporting unit order. Counts are kept as the strings
// found in the source document.
type VoteMatrix map[VoteKey][]string

// Row returns the counts recorded for key.
func (m VoteMatrix) Row(key VoteKey) ([]string, bool) {
	row, ok := m[key]
	return row, ok
}

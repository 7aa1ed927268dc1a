package extractor

import (
	"fmt"

	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/types"
)

var (
	pathTotalSelections         = emldoc.MustCompile(".//eml:TotalVotes/eml:Selection")
	pathReportingUnitSelections = emldoc.MustCompile(".//eml:ReportingUnitVotes/eml:Selection")
	pathSelectionAffiliation    = emldoc.MustCompile("./eml:AffiliationIdentifier")
	pathSelectionCandidate      = emldoc.MustCompile(".//eml:CandidateIdentifier")
	pathValidVotes              = emldoc.MustCompile("./eml:ValidVotes")
)

// BuildVoteMatrix collects the valid votes of every affiliation and candidate.
// The TotalVotes selections are read first, so each matrix row starts with the
// total, followed by the reporting units in document order.
func BuildVoteMatrix(counts *emldoc.Document) (types.VoteMatrix, error) {
	votes := make(types.VoteMatrix)

	if err := foldSelections(counts.FindAll(pathTotalSelections), votes); err != nil {
		return nil, fmt.Errorf("total votes: %w", err)
	}
	if err := foldSelections(counts.FindAll(pathReportingUnitSelections), votes); err != nil {
		return nil, fmt.Errorf("reporting unit votes: %w", err)
	}

	return votes, nil
}

// selectionCursor is the fold state while walking a flat selection list.
// EML only names the affiliation on the first selection of a block; the
// candidate selections that follow belong to it.
type selectionCursor struct {
	affiliation string
	candidate   string
	started     bool
}

func (c selectionCursor) next(sel *emldoc.Element) (selectionCursor, error) {
	if aff := sel.Find(pathSelectionAffiliation); aff != nil {
		id, err := emldoc.MandatoryAttr(aff, "Id")
		if err != nil {
			return c, err
		}
		return selectionCursor{affiliation: id, started: true}, nil
	}

	id, err := sel.MandatoryAttrAt(pathSelectionCandidate, "Id")
	if err != nil {
		return c, err
	}
	if !c.started {
		return c, fmt.Errorf("candidate %s appears before any affiliation", id)
	}
	c.candidate = id
	return c, nil
}

func (c selectionCursor) key() types.VoteKey {
	return types.CandidateKey(c.affiliation, c.candidate)
}

func foldSelections(selections []*emldoc.Element, votes types.VoteMatrix) error {
	var cursor selectionCursor

	for i, sel := range selections {
		next, err := cursor.next(sel)
		if err != nil {
			return fmt.Errorf("selection %d: %w", i+1, err)
		}
		cursor = next

		count, err := sel.MandatoryTextAt(pathValidVotes)
		if err != nil {
			return fmt.Errorf("selection %d: %w", i+1, err)
		}
		key := cursor.key()
		votes[key] = append(votes[key], count)
	}

	return nil
}

package extractor

import (
	"errors"
	"fmt"

	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/types"
)

// ErrAffiliationWithoutIdentifier is returned for a candidate list containing
// an Affiliation element without an AffiliationIdentifier child.
var ErrAffiliationWithoutIdentifier = errors.New("affiliation without identifier in candidate list")

var (
	pathAffiliation           = emldoc.MustCompile(".//eml:Affiliation")
	pathAffiliationIdentifier = emldoc.MustCompile("./eml:AffiliationIdentifier")
	pathRegisteredName        = emldoc.MustCompile("./eml:RegisteredName")
	pathCandidate             = emldoc.MustCompile("./eml:Candidate")
	pathCandidateIdentifier   = emldoc.MustCompile("./eml:CandidateIdentifier")
	pathInitials              = emldoc.MustCompile(".//xnl:NameLine[@NameType='Initials']")
	pathNamePrefix            = emldoc.MustCompile(".//xnl:NamePrefix")
	pathLastName              = emldoc.MustCompile(".//xnl:LastName")
)

// BuildRegistry reads the affiliations and their candidates from a candidate
// list document. Both levels keep document order.
func BuildRegistry(candidates *emldoc.Document) (types.Registry, error) {
	var registry types.Registry

	for i, aff := range candidates.FindAll(pathAffiliation) {
		identifier := aff.Find(pathAffiliationIdentifier)
		if identifier == nil {
			return nil, fmt.Errorf("affiliation %d: %w", i+1, ErrAffiliationWithoutIdentifier)
		}
		id, err := emldoc.MandatoryAttr(identifier, "Id")
		if err != nil {
			return nil, fmt.Errorf("affiliation %d: %w", i+1, err)
		}
		name, err := identifier.MandatoryTextAt(pathRegisteredName)
		if err != nil {
			return nil, fmt.Errorf("affiliation %s: %w", id, err)
		}

		entry := types.Affiliation{
			Identifier: types.AffiliationIdentifier{ID: id, Name: name},
		}
		for j, cand := range aff.FindAll(pathCandidate) {
			c, err := readCandidate(cand)
			if err != nil {
				return nil, fmt.Errorf("affiliation %s, candidate %d: %w", id, j+1, err)
			}
			entry.Candidates = append(entry.Candidates, c)
		}
		registry = append(registry, entry)
	}

	return registry, nil
}

func readCandidate(cand *emldoc.Element) (types.CandidateIdentifier, error) {
	id, err := cand.MandatoryAttrAt(pathCandidateIdentifier, "Id")
	if err != nil {
		return types.CandidateIdentifier{}, err
	}
	initials, err := cand.MandatoryTextAt(pathInitials)
	if err != nil {
		return types.CandidateIdentifier{}, err
	}
	lastName, err := cand.MandatoryTextAt(pathLastName)
	if err != nil {
		return types.CandidateIdentifier{}, err
	}
	prefix, _ := cand.TextAt(pathNamePrefix)

	return types.CandidateIdentifier{
		ID:   id,
		Name: CandidateName(prefix, lastName, initials),
	}, nil
}

// CandidateName formats a candidate as "<prefix> <lastname>, <initials>",
// leaving out the prefix when it is empty.
func CandidateName(prefix, lastName, initials string) string {
	if prefix != "" {
		return prefix + " " + lastName + ", " + initials
	}
	return lastName + ", " + initials
}

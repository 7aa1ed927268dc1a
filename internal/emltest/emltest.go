// Package emltest generates small EML-510b and EML-230b documents for tests.
//
// Fixtures are described as an Election value and rendered to XML, so tests
// can change one detail (an id, a missing element) without keeping many
// near-identical XML files around.
package emltest

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// UncountedReasonCodes lists the UncountedVotes reason codes written for every
// tally, in the order they are emitted.
var UncountedReasonCodes = []string{
	"geldige stempassen",
	"geldige volmachtbewijzen",
	"geldige kiezerspassen",
	"toegelaten kiezers",
	"meer getelde stembiljetten",
	"minder getelde stembiljetten",
	"meegenomen stembiljetten",
	"te weinig uitgereikte stembiljetten",
	"te veel uitgereikte stembiljetten",
	"geen verklaring",
	"andere verklaring",
}

// Candidate is a candidate on a list.
type Candidate struct {
	ID       string
	Initials string
	Prefix   string
	LastName string
}

// Affiliation is a list with its candidates.
type Affiliation struct {
	ID         string
	Name       string
	Candidates []Candidate
}

// Tally holds the counts of one reporting unit.
type Tally struct {
	Cast      int
	Counted   int
	Blank     int
	Invalid   int
	Uncounted map[string]int

	// Votes holds one count per selection in selection order: the affiliation
	// total followed by its candidates, for every affiliation in turn.
	Votes []int
}

// Unit is a reporting unit.
type Unit struct {
	ID    string
	Name  string
	Tally Tally
}

// Election describes a matching pair of documents.
type Election struct {
	CountsType     string
	CandidatesType string

	ElectionID         string
	CandidateElection  string
	ContestID          string
	CandidateContestID string

	ElectionName  string
	ElectionDate  string
	AuthorityID   string
	AuthorityName string

	Affiliations []Affiliation
	Units        []Unit
}

// Sample returns a small municipality with one polling station and two lists,
// the first with two candidates and the second with one.
func Sample() Election {
	return Election{
		CountsType:     "510b",
		CandidatesType: "230b",
		ElectionID:     "TK2025",
		ContestID:      "6",
		ElectionName:   "Tweede Kamerverkiezing 2025",
		ElectionDate:   "2025-10-29",
		AuthorityID:    "0668",
		AuthorityName:  "West Maas en Waal",
		Affiliations: []Affiliation{
			{
				ID:   "1",
				Name: "Partij \"A\"",
				Candidates: []Candidate{
					{ID: "1", Initials: "J.", Prefix: "van", LastName: "Dijk"},
					{ID: "2", Initials: "A.B.", LastName: "Jansen"},
				},
			},
			{
				ID:   "2",
				Name: "Partij B",
				Candidates: []Candidate{
					{ID: "1", Initials: "C.", LastName: "de Vries"},
				},
			},
		},
		Units: []Unit{
			{
				ID:   "0668::SB1",
				Name: "Stembureau Gemeentehuis (postcode: 6658 AA)",
				Tally: Tally{
					Cast:    1200,
					Counted: 50,
					Blank:   2,
					Invalid: 3,
					Uncounted: map[string]int{
						"geldige stempassen": 50,
						"toegelaten kiezers": 55,
					},
					Votes: []int{30, 20, 10, 20, 20},
				},
			},
		},
	}
}

// AddUnit appends a reporting unit with the given tally and returns e.
func (e Election) AddUnit(u Unit) Election {
	e.Units = append(append([]Unit(nil), e.Units...), u)
	return e
}

// Total sums the tallies of all units.
func (e Election) Total() Tally {
	total := Tally{Uncounted: map[string]int{}}
	for _, u := range e.Units {
		total.Cast += u.Tally.Cast
		total.Counted += u.Tally.Counted
		total.Blank += u.Tally.Blank
		total.Invalid += u.Tally.Invalid
		for code, n := range u.Tally.Uncounted {
			total.Uncounted[code] += n
		}
		for i, v := range u.Tally.Votes {
			if i >= len(total.Votes) {
				total.Votes = append(total.Votes, 0)
			}
			total.Votes[i] += v
		}
	}
	return total
}

// =============================================================================
// RENDERING
// =============================================================================

const header = `<?xml version="1.0" encoding="UTF-8"?>
<EML xmlns="urn:oasis:names:tc:evs:schema:eml" xmlns:kr="http://www.kiesraad.nl/extensions" xmlns:xnl="urn:oasis:names:tc:ciq:xsdschema:xNL:2.0" xmlns:xal="urn:oasis:names:tc:ciq:xsdschema:xAL:2.0" Id="%s" SchemaVersion="5">
`

// CountsXML renders the EML-510b counts document.
func CountsXML(e Election) string {
	var b strings.Builder
	fmt.Fprintf(&b, header, esc(e.CountsType))
	b.WriteString("  <ManagingAuthority>\n")
	fmt.Fprintf(&b, "    <AuthorityIdentifier Id=\"%s\">%s</AuthorityIdentifier>\n", esc(e.AuthorityID), esc(e.AuthorityName))
	b.WriteString("  </ManagingAuthority>\n  <Count>\n    <Election>\n")
	writeElectionIdentifier(&b, e.ElectionID, e)
	fmt.Fprintf(&b, "      <Contests>\n        <Contest>\n          <ContestIdentifier Id=\"%s\"/>\n", esc(e.ContestID))

	b.WriteString("          <TotalVotes>\n")
	writeTally(&b, e, e.Total())
	b.WriteString("          </TotalVotes>\n")

	for _, u := range e.Units {
		b.WriteString("          <ReportingUnitVotes>\n")
		fmt.Fprintf(&b, "            <ReportingUnitIdentifier Id=\"%s\">%s</ReportingUnitIdentifier>\n", esc(u.ID), esc(u.Name))
		writeTally(&b, e, u.Tally)
		b.WriteString("          </ReportingUnitVotes>\n")
	}

	b.WriteString("        </Contest>\n      </Contests>\n    </Election>\n  </Count>\n</EML>\n")
	return b.String()
}

// CandidatesXML renders the EML-230b candidate list document.
func CandidatesXML(e Election) string {
	electionID := e.CandidateElection
	if electionID == "" {
		electionID = e.ElectionID
	}
	contestID := e.CandidateContestID
	if contestID == "" {
		contestID = e.ContestID
	}

	var b strings.Builder
	fmt.Fprintf(&b, header, esc(e.CandidatesType))
	b.WriteString("  <CandidateList>\n    <Election>\n")
	writeElectionIdentifier(&b, electionID, e)
	fmt.Fprintf(&b, "      <Contest>\n        <ContestIdentifier Id=\"%s\"/>\n", esc(contestID))

	for _, a := range e.Affiliations {
		b.WriteString("        <Affiliation>\n")
		fmt.Fprintf(&b, "          <AffiliationIdentifier Id=\"%s\"><RegisteredName>%s</RegisteredName></AffiliationIdentifier>\n", esc(a.ID), esc(a.Name))
		b.WriteString("          <Type>lijstengroep</Type>\n")
		for _, c := range a.Candidates {
			b.WriteString("          <Candidate>\n")
			fmt.Fprintf(&b, "            <CandidateIdentifier Id=\"%s\"/>\n", esc(c.ID))
			b.WriteString("            <CandidateFullName><xnl:PersonName>\n")
			fmt.Fprintf(&b, "              <xnl:NameLine NameType=\"Initials\">%s</xnl:NameLine>\n", esc(c.Initials))
			if c.Prefix != "" {
				fmt.Fprintf(&b, "              <xnl:NamePrefix>%s</xnl:NamePrefix>\n", esc(c.Prefix))
			}
			fmt.Fprintf(&b, "              <xnl:LastName>%s</xnl:LastName>\n", esc(c.LastName))
			b.WriteString("            </xnl:PersonName></CandidateFullName>\n")
			b.WriteString("          </Candidate>\n")
		}
		b.WriteString("        </Affiliation>\n")
	}

	b.WriteString("      </Contest>\n    </Election>\n  </CandidateList>\n</EML>\n")
	return b.String()
}

func writeElectionIdentifier(b *strings.Builder, id string, e Election) {
	fmt.Fprintf(b, "      <ElectionIdentifier Id=\"%s\">\n", esc(id))
	fmt.Fprintf(b, "        <ElectionName>%s</ElectionName>\n", esc(e.ElectionName))
	b.WriteString("        <ElectionCategory>TK</ElectionCategory>\n")
	fmt.Fprintf(b, "        <kr:ElectionDate>%s</kr:ElectionDate>\n", esc(e.ElectionDate))
	b.WriteString("      </ElectionIdentifier>\n")
}

func writeTally(b *strings.Builder, e Election, t Tally) {
	i := 0
	next := func() int {
		v := 0
		if i < len(t.Votes) {
			v = t.Votes[i]
		}
		i++
		return v
	}
	for _, a := range e.Affiliations {
		fmt.Fprintf(b, "            <Selection><AffiliationIdentifier Id=\"%s\"><RegisteredName>%s</RegisteredName></AffiliationIdentifier><ValidVotes>%d</ValidVotes></Selection>\n",
			esc(a.ID), esc(a.Name), next())
		for _, c := range a.Candidates {
			fmt.Fprintf(b, "            <Selection><Candidate><CandidateIdentifier Id=\"%s\"/></Candidate><ValidVotes>%d</ValidVotes></Selection>\n",
				esc(c.ID), next())
		}
	}
	fmt.Fprintf(b, "            <Cast>%d</Cast>\n", t.Cast)
	fmt.Fprintf(b, "            <TotalCounted>%d</TotalCounted>\n", t.Counted)
	fmt.Fprintf(b, "            <RejectedVotes ReasonCode=\"ongeldig\">%d</RejectedVotes>\n", t.Invalid)
	fmt.Fprintf(b, "            <RejectedVotes ReasonCode=\"blanco\">%d</RejectedVotes>\n", t.Blank)
	for _, code := range UncountedReasonCodes {
		fmt.Fprintf(b, "            <UncountedVotes ReasonCode=\"%s\">%d</UncountedVotes>\n", esc(code), t.Uncounted[code])
	}
}

func esc(s string) string {
	return html.EscapeString(s)
}

// =============================================================================
// FILE HELPERS
// =============================================================================

// WriteFiles writes both documents of e into dir and returns their paths.
func WriteFiles(t testing.TB, dir string, e Election) (counts, candidates string) {
	t.Helper()
	counts = filepath.Join(dir, "Telling_"+e.ElectionID+".eml.xml")
	candidates = filepath.Join(dir, "Kandidatenlijsten_"+e.ElectionID+".eml.xml")
	WriteFile(t, counts, CountsXML(e))
	WriteFile(t, candidates, CandidatesXML(e))
	return counts, candidates
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

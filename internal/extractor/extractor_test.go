package extractor

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/emltest"
	"github.com/kiesraad/eml2csv/internal/types"
)

func parse(t *testing.T, s string) *emldoc.Document {
	t.Helper()
	doc, err := emldoc.Parse(strings.NewReader(s), "test.eml.xml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func twoUnitElection() emltest.Election {
	return emltest.Sample().AddUnit(emltest.Unit{
		ID:   "0668::SB2",
		Name: "Briefstembureau Stembureau De Kerk",
		Tally: emltest.Tally{
			Cast: 800, Counted: 40, Blank: 1, Invalid: 0,
			Uncounted: map[string]int{"geen verklaring": 4},
			Votes:     []int{25, 5, 20, 15, 15},
		},
	})
}

func TestCleanReportingUnitName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Stembureau Gemeentehuis (postcode: 6658 AA)", want: "Gemeentehuis"},
		{in: "Briefstembureau Stembureau Centrum", want: "Centrum"},
		{in: "Stembureau Stembureau Dorpshuis", want: "Dorpshuis"},
		{in: "Mobiel stembureau", want: "Mobiel stembureau"},
		{in: "Bibliotheek (postcode: 1234 AB) (postcode: 5678 CD)", want: "Bibliotheek"},
		{in: "Het Stembureau (postcode: 12 AB)", want: "Het Stembureau (postcode: 12 AB)"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := CleanReportingUnitName(tt.in); got != tt.want {
			t.Errorf("CleanReportingUnitName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractZip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Stembureau Gemeentehuis (postcode: 6658 AA)", want: "6658 AA"},
		{in: "Stembureau Gemeentehuis", want: ""},
		{in: "Sporthal (postcode: 1234 AB) (postcode: 5678 CD)", want: "1234 AB"},
		{in: "School (postcode: 123 AB)", want: ""},
	}
	for _, tt := range tests {
		if got := ExtractZip(tt.in); got != tt.want {
			t.Errorf("ExtractZip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractReportingUnitID(t *testing.T) {
	tests := map[string]string{
		"0668::SB1":   "1",
		"0363::SB412": "412",
		"SB3":         "SB3",
		"abc::SB3":    "abc::SB3",
	}
	for in, want := range tests {
		if got := ExtractReportingUnitID(in); got != want {
			t.Errorf("ExtractReportingUnitID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAuthorityType(t *testing.T) {
	for _, name := range []string{"Bonaire", "Saba", "Sint Eustatius"} {
		if got := AuthorityType(name); got != AuthorityTypePublicBody {
			t.Errorf("AuthorityType(%q) = %q, want %q", name, got, AuthorityTypePublicBody)
		}
	}
	for _, name := range []string{"West Maas en Waal", "saba", "Sint Maarten"} {
		if got := AuthorityType(name); got != AuthorityTypeMunicipality {
			t.Errorf("AuthorityType(%q) = %q, want %q", name, got, AuthorityTypeMunicipality)
		}
	}
}

func TestExtractMetadata(t *testing.T) {
	doc := parse(t, emltest.CountsXML(twoUnitElection()))

	m, err := ExtractMetadata(doc)
	if err != nil {
		t.Fatalf("ExtractMetadata() error = %v", err)
	}

	if m.ElectionID != "TK2025" || m.ElectionName != "Tweede Kamerverkiezing 2025" || m.ElectionDate != "2025-10-29" {
		t.Fatalf("election = %q/%q/%q", m.ElectionID, m.ElectionName, m.ElectionDate)
	}
	if m.AuthorityID != "0668" || m.AuthorityName != "West Maas en Waal" {
		t.Fatalf("authority = %q/%q", m.AuthorityID, m.AuthorityName)
	}
	if got := m.AuthorityLabel(); got != "Gemeente West Maas en Waal" {
		t.Fatalf("AuthorityLabel() = %q", got)
	}

	want := []types.ReportingUnit{
		{RawName: "Stembureau Gemeentehuis (postcode: 6658 AA)", ID: "1", Zip: "6658 AA", DisplayName: "Gemeentehuis"},
		{RawName: "Briefstembureau Stembureau De Kerk", ID: "2", Zip: "", DisplayName: "De Kerk"},
	}
	if !reflect.DeepEqual(m.ReportingUnits, want) {
		t.Fatalf("ReportingUnits = %+v, want %+v", m.ReportingUnits, want)
	}
}

func TestExtractMetadataMissingFields(t *testing.T) {
	base := emltest.CountsXML(emltest.Sample())

	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr any
	}{
		{
			name:    "no election date",
			mutate:  func(s string) string { return strings.Replace(s, "<kr:ElectionDate>2025-10-29</kr:ElectionDate>", "", 1) },
			wantErr: &emldoc.MissingElementError{},
		},
		{
			name: "empty election name",
			mutate: func(s string) string {
				return strings.Replace(s, "<ElectionName>Tweede Kamerverkiezing 2025</ElectionName>", "<ElectionName/>", 1)
			},
			wantErr: &emldoc.MissingTextError{},
		},
		{
			name:    "no authority id",
			mutate:  func(s string) string { return strings.Replace(s, `<AuthorityIdentifier Id="0668">`, "<AuthorityIdentifier>", 1) },
			wantErr: &emldoc.MissingAttributeError{},
		},
		{
			name:    "reporting unit without id",
			mutate:  func(s string) string { return strings.Replace(s, `<ReportingUnitIdentifier Id="0668::SB1">`, "<ReportingUnitIdentifier>", 1) },
			wantErr: &emldoc.MissingAttributeError{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractMetadata(parse(t, tt.mutate(base)))
			if err == nil {
				t.Fatal("ExtractMetadata() succeeded, want error")
			}
			target := reflect.New(reflect.TypeOf(tt.wantErr)).Interface()
			if !errors.As(err, target) {
				t.Fatalf("ExtractMetadata() error = %v, want %T", err, tt.wantErr)
			}
		})
	}
}

func TestExtractMetadataRows(t *testing.T) {
	doc := parse(t, emltest.CountsXML(twoUnitElection()))

	rows, err := ExtractMetadataRows(doc)
	if err != nil {
		t.Fatalf("ExtractMetadataRows() error = %v", err)
	}
	if len(rows) != len(MetadataFields) {
		t.Fatalf("got %d rows, want %d", len(rows), len(MetadataFields))
	}

	byKey := make(map[MetadataKey][]string)
	for i, row := range rows {
		if row.Key != MetadataFields[i].Key {
			t.Fatalf("row %d key = %q, want %q", i, row.Key, MetadataFields[i].Key)
		}
		byKey[row.Key] = row.Values
	}

	want := map[MetadataKey][]string{
		KeyCast:           {"2000", "1200", "800"},
		KeyValidBallots:   {"90", "50", "40"},
		KeyBlankBallots:   {"3", "2", "1"},
		KeyInvalidBallots: {"3", "3", "0"},
		KeyPollingCards:   {"50", "50", "0"},
		KeyAdmittedVoters: {"55", "55", "0"},
		KeyNoExplanation:  {"4", "0", "4"},
	}
	for key, values := range want {
		if !reflect.DeepEqual(byKey[key], values) {
			t.Errorf("%q = %v, want %v", key, byKey[key], values)
		}
	}
}

func TestExtractMetadataRowsMissingText(t *testing.T) {
	s := strings.Replace(emltest.CountsXML(emltest.Sample()), "<Cast>1200</Cast>", "<Cast></Cast>", 1)

	_, err := ExtractMetadataRows(parse(t, s))
	var missing *emldoc.MissingTextError
	if !errors.As(err, &missing) {
		t.Fatalf("ExtractMetadataRows() error = %v, want *MissingTextError", err)
	}
}

func TestBuildRegistry(t *testing.T) {
	doc := parse(t, emltest.CandidatesXML(emltest.Sample()))

	registry, err := BuildRegistry(doc)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}

	want := types.Registry{
		{
			Identifier: types.AffiliationIdentifier{ID: "1", Name: `Partij "A"`},
			Candidates: []types.CandidateIdentifier{
				{ID: "1", Name: "van Dijk, J."},
				{ID: "2", Name: "Jansen, A.B."},
			},
		},
		{
			Identifier: types.AffiliationIdentifier{ID: "2", Name: "Partij B"},
			Candidates: []types.CandidateIdentifier{
				{ID: "1", Name: "de Vries, C."},
			},
		},
	}
	if !reflect.DeepEqual(registry, want) {
		t.Fatalf("BuildRegistry() = %+v, want %+v", registry, want)
	}
	if registry.CandidateCount() != 3 {
		t.Fatalf("CandidateCount() = %d, want 3", registry.CandidateCount())
	}
}

func TestBuildRegistryKeepsDocumentOrder(t *testing.T) {
	e := emltest.Sample()
	e.Affiliations = []emltest.Affiliation{
		{ID: "9", Name: "Z", Candidates: []emltest.Candidate{{ID: "3", Initials: "X.", LastName: "Zee"}, {ID: "1", Initials: "Y.", LastName: "Aa"}}},
		{ID: "3", Name: "A"},
	}

	registry, err := BuildRegistry(parse(t, emltest.CandidatesXML(e)))
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	if registry[0].Identifier.ID != "9" || registry[1].Identifier.ID != "3" {
		t.Fatalf("affiliation order = %s, %s", registry[0].Identifier.ID, registry[1].Identifier.ID)
	}
	if registry[0].Candidates[0].ID != "3" || registry[0].Candidates[1].ID != "1" {
		t.Fatalf("candidate order = %+v", registry[0].Candidates)
	}
	if len(registry[1].Candidates) != 0 {
		t.Fatalf("expected no candidates for affiliation 3, got %d", len(registry[1].Candidates))
	}
}

func TestBuildRegistryErrors(t *testing.T) {
	base := emltest.CandidatesXML(emltest.Sample())

	t.Run("affiliation without identifier", func(t *testing.T) {
		s := strings.Replace(base, `<AffiliationIdentifier Id="2"><RegisteredName>Partij B</RegisteredName></AffiliationIdentifier>`, "", 1)
		_, err := BuildRegistry(parse(t, s))
		if !errors.Is(err, ErrAffiliationWithoutIdentifier) {
			t.Fatalf("BuildRegistry() error = %v, want ErrAffiliationWithoutIdentifier", err)
		}
		if !strings.Contains(err.Error(), "affiliation 2") {
			t.Fatalf("error %q does not name the affiliation position", err)
		}
	})

	t.Run("candidate without last name", func(t *testing.T) {
		s := strings.Replace(base, "<xnl:LastName>Jansen</xnl:LastName>", "", 1)
		_, err := BuildRegistry(parse(t, s))
		var missing *emldoc.MissingElementError
		if !errors.As(err, &missing) {
			t.Fatalf("BuildRegistry() error = %v, want *MissingElementError", err)
		}
		if !strings.Contains(err.Error(), "candidate 2") || !strings.Contains(err.Error(), "xnl:LastName") {
			t.Fatalf("error %q lacks context", err)
		}
	})
}

func TestCandidateName(t *testing.T) {
	if got := CandidateName("van der", "Berg", "P.Q."); got != "van der Berg, P.Q." {
		t.Fatalf("CandidateName() = %q", got)
	}
	if got := CandidateName("", "Berg", "P."); got != "Berg, P." {
		t.Fatalf("CandidateName() = %q", got)
	}
}

func TestBuildVoteMatrix(t *testing.T) {
	doc := parse(t, emltest.CountsXML(twoUnitElection()))

	votes, err := BuildVoteMatrix(doc)
	if err != nil {
		t.Fatalf("BuildVoteMatrix() error = %v", err)
	}

	want := types.VoteMatrix{
		types.AffiliationKey("1"):     {"55", "30", "25"},
		types.CandidateKey("1", "1"): {"25", "20", "5"},
		types.CandidateKey("1", "2"): {"30", "10", "20"},
		types.AffiliationKey("2"):     {"35", "20", "15"},
		types.CandidateKey("2", "1"): {"35", "20", "15"},
	}
	if !reflect.DeepEqual(votes, want) {
		t.Fatalf("BuildVoteMatrix() = %v, want %v", votes, want)
	}
}

func TestBuildVoteMatrixErrors(t *testing.T) {
	base := emltest.CountsXML(emltest.Sample())

	t.Run("candidate before affiliation", func(t *testing.T) {
		s := strings.Replace(base, `<Selection><AffiliationIdentifier Id="1"><RegisteredName>Partij &#34;A&#34;</RegisteredName></AffiliationIdentifier><ValidVotes>30</ValidVotes></Selection>`, "", 1)
		_, err := BuildVoteMatrix(parse(t, s))
		if err == nil || !strings.Contains(err.Error(), "before any affiliation") {
			t.Fatalf("BuildVoteMatrix() error = %v", err)
		}
	})

	t.Run("missing valid votes", func(t *testing.T) {
		s := strings.Replace(base, `<Candidate><CandidateIdentifier Id="2"/></Candidate><ValidVotes>10</ValidVotes>`, `<Candidate><CandidateIdentifier Id="2"/></Candidate>`, 1)
		_, err := BuildVoteMatrix(parse(t, s))
		var missing *emldoc.MissingElementError
		if !errors.As(err, &missing) {
			t.Fatalf("BuildVoteMatrix() error = %v, want *MissingElementError", err)
		}
	})
}

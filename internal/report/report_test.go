package report

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/emltest"
	"github.com/kiesraad/eml2csv/internal/extractor"
	"github.com/kiesraad/eml2csv/internal/types"
)

func buildInput(t *testing.T, e emltest.Election) Input {
	t.Helper()
	counts, err := emldoc.Parse(strings.NewReader(emltest.CountsXML(e)), "counts")
	if err != nil {
		t.Fatal(err)
	}
	candidates, err := emldoc.Parse(strings.NewReader(emltest.CandidatesXML(e)), "candidates")
	if err != nil {
		t.Fatal(err)
	}

	m, err := extractor.ExtractMetadata(counts)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := extractor.ExtractMetadataRows(counts)
	if err != nil {
		t.Fatal(err)
	}
	registry, err := extractor.BuildRegistry(candidates)
	if err != nil {
		t.Fatal(err)
	}
	votes, err := extractor.BuildVoteMatrix(counts)
	if err != nil {
		t.Fatal(err)
	}
	return Input{Metadata: m, MetadataRows: rows, Registry: registry, Votes: votes}
}

func TestAssembleSmallMunicipality(t *testing.T) {
	r, err := Assemble(buildInput(t, emltest.Sample()))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	// 4 header + 3 reporting unit + 15 statistics + 1 derived + 2 affiliations + 3 candidates
	if len(r.Rows) != 28 {
		t.Fatalf("got %d rows, want 28", len(r.Rows))
	}

	want := []Row{
		{"Verkiezing", "", "Tweede Kamerverkiezing 2025"},
		{"Datum", "", "2025-10-29"},
		{"Gebied", "", "Gemeente West Maas en Waal"},
		{"Nummer", "", "0668"},
		{"Lijstnummer", "Aanduiding", "Volgnummer", "Naam kandidaat", "Totaal", "Gemeentehuis"},
		{"Gebiednummer", "", "", "", "", "1"},
		{"Postcode", "", "", "", "", "6658 AA"},
		{"", "opgeroepenen", "", "", "1200", "1200"},
	}
	for i, row := range want {
		if !reflect.DeepEqual(r.Rows[i], row) {
			t.Errorf("row %d = %q, want %q", i, r.Rows[i], row)
		}
	}

	tail := []Row{
		{"1", `Partij "A"`, "", "", "30", "30"},
		{"", "", "1", "van Dijk, J.", "20", "20"},
		{"", "", "2", "Jansen, A.B.", "10", "10"},
		{"2", "Partij B", "", "", "20", "20"},
		{"", "", "1", "de Vries, C.", "20", "20"},
	}
	for i, row := range tail {
		got := r.Rows[len(r.Rows)-len(tail)+i]
		if !reflect.DeepEqual(got, row) {
			t.Errorf("tail row %d = %q, want %q", i, got, row)
		}
	}
}

func TestAssembleStatisticsOrder(t *testing.T) {
	r, err := Assemble(buildInput(t, emltest.Sample()))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	var labels []string
	for _, row := range r.Rows[7:23] {
		labels = append(labels, row[1])
	}
	want := []string{
		"opgeroepenen",
		"geldige stempas",
		"geldig volmachtbewijs",
		"geldige kiezerspas",
		"toegelaten kiezers",
		"geldige stembiljetten",
		"blanco stembiljetten",
		"ongeldige stembiljetten",
		"aangetroffen stembiljetten",
		"meer stembiljetten dan toegelaten kiezers",
		"minder stembiljetten dan toegelaten kiezers",
		"kiezers met stembiljet hebben niet gestemd",
		"er zijn te weinig stembiljetten uitgereikt",
		"er zijn te veel stembiljetten uitgereikt",
		"geen verklaring",
		"andere verklaring",
	}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("statistics labels = %q, want %q", labels, want)
	}
}

func TestAssembleColumnAlignment(t *testing.T) {
	e := emltest.Sample().
		AddUnit(emltest.Unit{ID: "0668::SB2", Name: "Stembureau Kerk (postcode: 6659 BB)", Tally: emltest.Tally{Cast: 10, Counted: 7, Blank: 1, Invalid: 2, Votes: []int{4, 4, 0, 3, 3}}}).
		AddUnit(emltest.Unit{ID: "0668::SB3", Name: "Briefstembureau", Tally: emltest.Tally{Cast: 5, Counted: 5, Votes: []int{5, 1, 4, 0, 0}}})

	r, err := Assemble(buildInput(t, e))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	width := IdentityColumns + 1 + len(e.Units)
	for i, row := range r.Rows[4:] {
		if len(row) != width {
			t.Fatalf("row %d has %d columns, want %d: %q", i+4, len(row), width, row)
		}
	}

	var found, valid, invalid, blank Row
	for _, row := range r.Rows {
		switch row[1] {
		case LabelFound:
			found = row
		case string(extractor.KeyValidBallots):
			valid = row
		case string(extractor.KeyInvalidBallots):
			invalid = row
		case string(extractor.KeyBlankBallots):
			blank = row
		}
	}
	want := Row{"", LabelFound, "", ""}
	for col := IdentityColumns; col < width; col++ {
		sum := 0
		for _, row := range []Row{valid, invalid, blank} {
			n, err := strconv.Atoi(row[col])
			if err != nil {
				t.Fatalf("column %d of %q: %v", col, row[1], err)
			}
			sum += n
		}
		want = append(want, strconv.Itoa(sum))
	}
	if !reflect.DeepEqual(found, want) {
		t.Fatalf("found row = %q, want %q (valid %q invalid %q blank %q)", found, want, valid, invalid, blank)
	}
	if got := found[IdentityColumns:]; !reflect.DeepEqual(got, Row{"70", "55", "10", "5"}) {
		t.Fatalf("found counts = %q, want total 70 and 55, 10, 5 per unit", got)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	in := buildInput(t, emltest.Sample())
	first, err := Assemble(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Assemble(buildInput(t, emltest.Sample()))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("Assemble() output differs between runs")
		}
	}
}

func TestAssembleStatisticsCountMismatch(t *testing.T) {
	in := buildInput(t, emltest.Sample())
	in.MetadataRows[3].Values = in.MetadataRows[3].Values[:1]

	_, err := Assemble(in)
	var recon *ReconciliationError
	if !errors.As(err, &recon) {
		t.Fatalf("Assemble() error = %v, want *ReconciliationError", err)
	}
	if recon.Row != string(extractor.KeyVoterCards) {
		t.Fatalf("ReconciliationError.Row = %q", recon.Row)
	}
}

func TestAssembleMissingVotes(t *testing.T) {
	in := buildInput(t, emltest.Sample())
	delete(in.Votes, types.CandidateKey("2", "1"))

	_, err := Assemble(in)
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("Assemble() error = %v, want *LookupError", err)
	}
	if lookupErr.Key != types.CandidateKey("2", "1") {
		t.Fatalf("LookupError.Key = %+v", lookupErr.Key)
	}
}

func TestAssembleShortVoteRow(t *testing.T) {
	in := buildInput(t, emltest.Sample())
	in.Votes[types.AffiliationKey("1")] = []string{"30"}

	_, err := Assemble(in)
	var recon *ReconciliationError
	if !errors.As(err, &recon) {
		t.Fatalf("Assemble() error = %v, want *ReconciliationError", err)
	}
}

func TestReconcile(t *testing.T) {
	got, err := Reconcile([]string{"10", "0"}, []string{"1", "2"}, []string{"3", "4"})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"14", "6"}) {
		t.Fatalf("Reconcile() = %q", got)
	}

	var recon *ReconciliationError
	if _, err := Reconcile([]string{"1"}, []string{"1", "2"}, []string{"1"}); !errors.As(err, &recon) {
		t.Fatalf("Reconcile(length mismatch) error = %v", err)
	}
	if _, err := Reconcile([]string{"x"}, []string{"1"}, []string{"1"}); !errors.As(err, &recon) {
		t.Fatalf("Reconcile(non-numeric) error = %v", err)
	}
}

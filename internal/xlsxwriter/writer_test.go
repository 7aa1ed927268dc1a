package xlsxwriter

import (
	"bytes"
	"reflect"
	"testing"
)

func TestWriteRoundTrip(t *testing.T) {
	rows := [][]string{
		{"Verkiezing", "", "Tweede Kamerverkiezing 2025"},
		{"Nummer", "", "0668"},
		{"Lijstnummer", "Aanduiding", "Volgnummer", "Naam kandidaat", "Totaal", "Gemeentehuis"},
		{"1", `Partij "A"`, "", "", "30", "30"},
		{"", "", "1", "van Dijk, J.", "20", "20"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := ReadRows(&buf)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("ReadRows() = %q, want %q", got, rows)
	}
}

func TestBuildSheetName(t *testing.T) {
	f, err := Build([][]string{{"a"}}, DefaultOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{SheetName}) {
		t.Fatalf("GetSheetList() = %q, want [%s]", got, SheetName)
	}
	v, err := f.GetCellValue(SheetName, "A1")
	if err != nil || v != "a" {
		t.Fatalf("GetCellValue(A1) = %q, %v", v, err)
	}
}

func TestReadRowsInvalidWorkbook(t *testing.T) {
	if _, err := ReadRows(bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatal("ReadRows() error = nil, want error")
	}
}

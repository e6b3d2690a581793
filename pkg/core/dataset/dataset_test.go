package dataset

import (
	"strings"
	"testing"
)

func TestParseCSVCoercion(t *testing.T) {
	in := "Country,EUR Gross Sales,Note\nDE,1200.50,ok\nAT,,short\n"
	d, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if d.NumRows() != 2 || d.NumCols() != 3 {
		t.Fatalf("expected 2x3 dataset, got %dx%d", d.NumRows(), d.NumCols())
	}

	if f, ok := d.Value(0, "EUR Gross Sales").Float(); !ok || f != 1200.50 {
		t.Errorf("expected numeric cell 1200.50, got %v (ok=%v)", f, ok)
	}
	if !d.Value(1, "EUR Gross Sales").IsNull() {
		t.Errorf("expected empty token to become null")
	}
	if got := d.Value(0, "Note").String(); got != "ok" {
		t.Errorf("expected text cell 'ok', got %q", got)
	}
}

func TestParseCSVPadsShortRows(t *testing.T) {
	in := "A,B,C\n1,2\n"
	d, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if !d.Value(0, "C").IsNull() {
		t.Errorf("expected missing trailing cell to be null")
	}
}

func TestValueMissingColumnIsNull(t *testing.T) {
	d := New([]string{"A"})
	d.Rows = [][]Value{{Number(1)}}
	if !d.Value(0, "B").IsNull() {
		t.Errorf("expected null for missing column")
	}
	if !d.Value(5, "A").IsNull() {
		t.Errorf("expected null for out-of-range row")
	}
}

func TestWithColumnReplaceAndAppend(t *testing.T) {
	d := New([]string{"A"})
	d.Rows = [][]Value{{Number(1)}, {Number(2)}}

	replaced := d.WithColumn("A", []Value{Number(10), Number(20)})
	if f, _ := replaced.Value(1, "A").Float(); f != 20 {
		t.Errorf("expected replaced value 20, got %v", f)
	}
	if f, _ := d.Value(1, "A").Float(); f != 2 {
		t.Errorf("input dataset was mutated, got %v", f)
	}

	appended := d.WithColumn("B", []Value{Text("x"), Text("y")})
	if appended.NumCols() != 2 {
		t.Fatalf("expected 2 columns after append, got %d", appended.NumCols())
	}
	if got := appended.Value(0, "B").String(); got != "x" {
		t.Errorf("expected appended value 'x', got %q", got)
	}
	if d.NumCols() != 1 {
		t.Errorf("input dataset gained a column")
	}
}

func TestSelectKeepsOrder(t *testing.T) {
	d := New([]string{"A"})
	d.Rows = [][]Value{{Number(1)}, {Number(2)}, {Number(3)}}
	sub := d.Select([]int{2, 0})
	if sub.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", sub.NumRows())
	}
	if f, _ := sub.Value(0, "A").Float(); f != 3 {
		t.Errorf("expected first selected row to be 3, got %v", f)
	}
}

func TestToCSVRoundTrip(t *testing.T) {
	d := New([]string{"A", "B"})
	d.Rows = [][]Value{{Number(1.5), Text("x,y")}, {Null(), Text("z")}}

	parsed, err := ParseCSV(strings.NewReader(d.ToCSV()))
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if got := parsed.Value(0, "B").String(); got != "x,y" {
		t.Errorf("quoted field lost in round trip, got %q", got)
	}
	if !parsed.Value(1, "A").IsNull() {
		t.Errorf("null cell should render empty and parse back to null")
	}
}

package kpi

import (
	"math"
	"testing"

	"attention_guiding/pkg/core/dataset"
)

func testRow(orders, gross, returns, chargebacks, writeOffs, d1, d2 float64, date string) []dataset.Value {
	return []dataset.Value{
		dataset.Text(date),
		dataset.Text("DE"),
		dataset.Text("Invoice"),
		dataset.Number(orders),
		dataset.Number(gross),
		dataset.Number(returns),
		dataset.Number(chargebacks),
		dataset.Number(writeOffs),
		dataset.Number(d1),
		dataset.Number(d2),
	}
}

func testDataset(rows ...[]dataset.Value) *dataset.Dataset {
	d := dataset.New([]string{
		ColDate, ColCountry, ColPaymentMethod,
		ColOrderCount, ColGrossSales, ColReturns, ColChargebacks,
		ColWriteOffs, ColDunningLevel1, ColDunningLevel2,
	})
	d.Rows = rows
	return d
}

func TestEnrichDerivesRatios(t *testing.T) {
	d := testDataset(testRow(10, 1000, 100, 10, 0, 20, 5, "2024-03-15"))
	out := Enrich(d)

	checks := map[string]float64{
		ColReturnRate:     0.1,
		ColAvgOrderValue:  100,
		ColChargebackRate: 0.01,
		ColDunning1Ratio:  0.02,
		ColDunning2Ratio:  0.005,
		ColWriteOffRatio:  0,
	}
	for col, want := range checks {
		got, ok := out.Value(0, col).Float()
		if !ok {
			t.Fatalf("%s: expected numeric value", col)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", col, want, got)
		}
	}
	if got := out.Value(0, ColMonthBucket).String(); got != "2024-03" {
		t.Errorf("expected month bucket 2024-03, got %q", got)
	}
}

func TestEnrichZeroDenominators(t *testing.T) {
	d := testDataset(testRow(0, 0, 50, 10, 5, 1, 1, "2024-01-01"))
	out := Enrich(d)

	for _, col := range []string{ColReturnRate, ColAvgOrderValue, ColChargebackRate, ColWriteOffRatio} {
		got, _ := out.Value(0, col).Float()
		if got != 0 {
			t.Errorf("%s: expected 0 for zero denominator, got %v", col, got)
		}
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	d := testDataset(
		testRow(10, 1000, 100, 10, 3, 20, 5, "2024-03-15"),
		testRow(4, 200, 0, 0, 0, 0, 0, "2024-04-02"),
	)
	once := Enrich(d)
	twice := Enrich(once)

	if once.ToCSV() != twice.ToCSV() {
		t.Errorf("enriching an already enriched dataset changed its values")
	}
	if d.HasColumn(ColReturnRate) {
		t.Errorf("input dataset was mutated")
	}
}

func TestEnrichCoercesBadCellsToZero(t *testing.T) {
	d := testDataset(testRow(10, 1000, 0, 0, 0, 0, 0, "2024-05-01"))
	d.Rows[0][5] = dataset.Text("n/a") // EUR Returns

	out := Enrich(d)
	if got, _ := out.Value(0, ColReturnRate).Float(); got != 0 {
		t.Errorf("expected unparseable numerator to count as 0, got %v", got)
	}
}

func TestMonthBucketLayouts(t *testing.T) {
	cases := map[string]string{
		"2024-03-15":           "2024-03",
		"15.07.2023":           "2023-07",
		"2024-11":              "2024-11",
		"2024-02-01T10:00:00Z": "2024-02",
		"not a date":           "",
	}
	for raw, want := range cases {
		got := monthBucket(dataset.Text(raw))
		if got.String() != want {
			t.Errorf("monthBucket(%q): expected %q, got %q", raw, want, got.String())
		}
	}
	if !monthBucket(dataset.Null()).IsNull() {
		t.Errorf("null date should stay null")
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(10, 0); got != 0 {
		t.Errorf("expected 0 for zero denominator, got %v", got)
	}
	if got := SafeDiv(10, 4); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
}

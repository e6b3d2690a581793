// Package kpi derives per-row performance indicators from the raw
// business columns of an uploaded dataset.
package kpi

import (
	"math"
	"strings"
	"time"

	"attention_guiding/pkg/core/dataset"
)

// Raw input columns expected by exact name. A missing column degrades the
// KPIs derived from it to 0 instead of failing the request.
const (
	ColOrderCount    = "Order Count"
	ColGrossSales    = "EUR Gross Sales"
	ColReturns       = "EUR Returns"
	ColChargebacks   = "EUR Chargebacks"
	ColWriteOffs     = "EUR Write-Offs"
	ColDunningLevel1 = "EUR Dunning Level 1"
	ColDunningLevel2 = "EUR Dunning Level 2"
	ColDate          = "Date"
	ColCountry       = "Country"
	ColPaymentMethod = "Payment Method"
)

// Derived columns added by Enrich.
const (
	ColReturnRate     = "return_rate"
	ColAvgOrderValue  = "avg_order_value"
	ColChargebackRate = "chargeback_rate"
	ColDunning1Ratio  = "dunning_level1_ratio"
	ColDunning2Ratio  = "dunning_level2_ratio"
	ColWriteOffRatio  = "write_off_ratio"
	ColMonthBucket    = "month_bucket"
)

// RawColumns lists the numeric input columns in canonical order.
var RawColumns = []string{
	ColOrderCount,
	ColGrossSales,
	ColReturns,
	ColChargebacks,
	ColWriteOffs,
	ColDunningLevel1,
	ColDunningLevel2,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006",
	"01/02/2006",
	"2006-01",
}

// Enrich returns a copy of the input with the derived KPI columns added.
// The input dataset is not touched. Derivation is a pure function of the
// raw columns, so enriching an already enriched dataset recomputes the
// same values.
func Enrich(d *dataset.Dataset) *dataset.Dataset {
	n := d.NumRows()
	returnRate := make([]dataset.Value, n)
	avgOrder := make([]dataset.Value, n)
	chargebackRate := make([]dataset.Value, n)
	dunning1 := make([]dataset.Value, n)
	dunning2 := make([]dataset.Value, n)
	writeOff := make([]dataset.Value, n)
	month := make([]dataset.Value, n)

	for i := 0; i < n; i++ {
		orders := Coerce(d.Value(i, ColOrderCount))
		gross := Coerce(d.Value(i, ColGrossSales))

		returnRate[i] = dataset.Number(round(SafeDiv(Coerce(d.Value(i, ColReturns)), gross), 4))
		avgOrder[i] = dataset.Number(round(SafeDiv(gross, orders), 2))
		chargebackRate[i] = dataset.Number(round(SafeDiv(Coerce(d.Value(i, ColChargebacks)), gross), 4))
		dunning1[i] = dataset.Number(round(SafeDiv(Coerce(d.Value(i, ColDunningLevel1)), gross), 4))
		dunning2[i] = dataset.Number(round(SafeDiv(Coerce(d.Value(i, ColDunningLevel2)), gross), 4))
		writeOff[i] = dataset.Number(round(SafeDiv(Coerce(d.Value(i, ColWriteOffs)), gross), 4))
		month[i] = monthBucket(d.Value(i, ColDate))
	}

	out := d.WithColumn(ColReturnRate, returnRate)
	out = out.WithColumn(ColAvgOrderValue, avgOrder)
	out = out.WithColumn(ColChargebackRate, chargebackRate)
	out = out.WithColumn(ColDunning1Ratio, dunning1)
	out = out.WithColumn(ColDunning2Ratio, dunning2)
	out = out.WithColumn(ColWriteOffRatio, writeOff)
	out = out.WithColumn(ColMonthBucket, month)
	return out
}

// Coerce converts a cell to a number. Anything that does not parse,
// including nulls and missing columns, becomes 0.
func Coerce(v dataset.Value) float64 {
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

// SafeDiv divides and maps a zero or invalid denominator to 0, so no
// NaN or infinity ever reaches the enriched dataset.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	q := numerator / denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

func round(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}

// monthBucket normalises a date cell to a "YYYY-MM" calendar bucket.
// Unparseable dates yield null, not an error.
func monthBucket(v dataset.Value) dataset.Value {
	if v.IsNull() {
		return dataset.Null()
	}
	raw := strings.TrimSpace(v.String())
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return dataset.Text(t.Format("2006-01"))
		}
	}
	return dataset.Null()
}

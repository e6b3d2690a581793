// Package calc computes the grouped aggregation tables and anomaly
// slices that bound the amount of data surfaced to the model.
package calc

import (
	"sort"
	"strings"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/kpi"
)

// AggregationUnavailable is the sentinel emitted when the input lacks the
// columns needed for grouping, so prompt assembly degrades instead of
// the request failing.
const AggregationUnavailable = "Aggregation not available: required columns missing."

// AggregationTables holds the three grain levels rendered as delimited
// text, ready for prompt embedding.
type AggregationTables struct {
	ByCountryPaymentMethod string
	ByCountry              string
	ByPaymentMethod        string
}

// Aggregate groups the enriched dataset by country and payment method,
// sums the raw KPI columns per group and recomputes every ratio from the
// group sums. Averaging the per-row ratios instead would weight small
// groups as heavily as large ones and distort the picture.
func Aggregate(d *dataset.Dataset) AggregationTables {
	required := append([]string{kpi.ColCountry, kpi.ColPaymentMethod}, kpi.RawColumns...)
	for _, col := range required {
		if !d.HasColumn(col) {
			return AggregationTables{
				ByCountryPaymentMethod: AggregationUnavailable,
				ByCountry:              AggregationUnavailable,
				ByPaymentMethod:        AggregationUnavailable,
			}
		}
	}
	return AggregationTables{
		ByCountryPaymentMethod: groupBy(d, []string{kpi.ColCountry, kpi.ColPaymentMethod}),
		ByCountry:              groupBy(d, []string{kpi.ColCountry}),
		ByPaymentMethod:        groupBy(d, []string{kpi.ColPaymentMethod}),
	}
}

type groupTotals struct {
	keys []string
	sums map[string]float64
}

// groupBy renders one aggregation table: group keys, summed raw columns
// and the global ratios derived from those sums. One output row per
// distinct key combination, in lexicographic key order.
func groupBy(d *dataset.Dataset, keyCols []string) string {
	groups := make(map[string]*groupTotals)
	var order []string

	for i := 0; i < d.NumRows(); i++ {
		keys := make([]string, len(keyCols))
		for k, col := range keyCols {
			keys[k] = d.Value(i, col).String()
		}
		id := strings.Join(keys, "\x1f")
		g, ok := groups[id]
		if !ok {
			g = &groupTotals{keys: keys, sums: make(map[string]float64, len(kpi.RawColumns))}
			groups[id] = g
			order = append(order, id)
		}
		for _, col := range kpi.RawColumns {
			g.sums[col] += kpi.Coerce(d.Value(i, col))
		}
	}
	sort.Strings(order)

	columns := append(append([]string(nil), keyCols...), kpi.RawColumns...)
	columns = append(columns,
		kpi.ColReturnRate,
		kpi.ColAvgOrderValue,
		kpi.ColChargebackRate,
		kpi.ColDunning1Ratio,
		kpi.ColDunning2Ratio,
		kpi.ColWriteOffRatio,
	)
	out := dataset.New(columns)

	for _, id := range order {
		g := groups[id]
		row := make([]dataset.Value, 0, len(columns))
		for _, k := range g.keys {
			row = append(row, dataset.Text(k))
		}
		for _, col := range kpi.RawColumns {
			row = append(row, dataset.Number(g.sums[col]))
		}
		gross := g.sums[kpi.ColGrossSales]
		row = append(row,
			dataset.Number(kpi.SafeDiv(g.sums[kpi.ColReturns], gross)),
			dataset.Number(kpi.SafeDiv(gross, g.sums[kpi.ColOrderCount])),
			dataset.Number(kpi.SafeDiv(g.sums[kpi.ColChargebacks], gross)),
			dataset.Number(kpi.SafeDiv(g.sums[kpi.ColDunningLevel1], gross)),
			dataset.Number(kpi.SafeDiv(g.sums[kpi.ColDunningLevel2], gross)),
			dataset.Number(kpi.SafeDiv(g.sums[kpi.ColWriteOffs], gross)),
		)
		out.Rows = append(out.Rows, row)
	}
	return out.ToCSV()
}

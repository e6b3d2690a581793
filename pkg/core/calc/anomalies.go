package calc

import (
	"sort"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/kpi"
)

// DefaultAnomalyTopN bounds every top/bottom slice in one request.
const DefaultAnomalyTopN = 7

// SliceNotAvailable is emitted for a slice whose sort column is missing
// or holds no numeric values.
const SliceNotAvailable = "Not available."

// NoWriteOffs is emitted when no row carries a positive write-off amount.
const NoWriteOffs = "No rows with write-offs greater than 0."

// Slice names, keyed into AnomalyResult.Slices.
const (
	SliceTopGrossSales      = "top_gross_sales"
	SliceTopReturnRate      = "top_return_rate"
	SliceTopChargebackRate  = "top_chargeback_rate"
	SliceTopDunningLevel2   = "top_dunning_level2"
	SliceBottomAvgOrder     = "bottom_avg_order_value"
	SliceAllWriteOffsGtZero = "all_write_offs_gt_0"
)

// AnomalyResult maps slice names to delimited-text tables (or a
// human-readable placeholder) plus the bound that was applied.
type AnomalyResult struct {
	N      int
	Slices map[string]string
}

// ExtractAnomalies selects the bounded top/bottom views and the
// unbounded positive-write-off filter from the enriched dataset. Slices
// are independent views: the same row may appear in several of them.
func ExtractAnomalies(d *dataset.Dataset, n int) AnomalyResult {
	if n <= 0 {
		n = DefaultAnomalyTopN
	}
	return AnomalyResult{
		N: n,
		Slices: map[string]string{
			SliceTopGrossSales:      topN(d, kpi.ColGrossSales, n, true),
			SliceTopReturnRate:      topN(d, kpi.ColReturnRate, n, true),
			SliceTopChargebackRate:  topN(d, kpi.ColChargebackRate, n, true),
			SliceTopDunningLevel2:   topN(d, kpi.ColDunningLevel2, n, true),
			SliceBottomAvgOrder:     topN(d, kpi.ColAvgOrderValue, n, false),
			SliceAllWriteOffsGtZero: writeOffRows(d),
		},
	}
}

type rankedRow struct {
	index int
	value float64
}

// topN renders the n highest (or lowest) rows by the given column. Rows
// with a null or non-numeric value in the sort column are excluded from
// the ranking. The sort is stable, so ties keep dataset order.
func topN(d *dataset.Dataset, column string, n int, descending bool) string {
	if !d.HasColumn(column) {
		return SliceNotAvailable
	}
	var ranked []rankedRow
	for i := 0; i < d.NumRows(); i++ {
		v := d.Value(i, column)
		if v.IsNull() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			continue
		}
		ranked = append(ranked, rankedRow{index: i, value: f})
	}
	if len(ranked) == 0 {
		return SliceNotAvailable
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].value < ranked[j].value
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	indices := make([]int, len(ranked))
	for i, r := range ranked {
		indices[i] = r.index
	}
	return d.Select(indices).ToCSV()
}

// writeOffRows renders every row with a write-off amount above zero.
func writeOffRows(d *dataset.Dataset) string {
	if !d.HasColumn(kpi.ColWriteOffs) {
		return SliceNotAvailable
	}
	var indices []int
	for i := 0; i < d.NumRows(); i++ {
		if f, ok := d.Value(i, kpi.ColWriteOffs).Float(); ok && f > 0 {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return NoWriteOffs
	}
	return d.Select(indices).ToCSV()
}

package dataset

import (
	"math"
	"sort"
)

// NumericStats mirrors a describe()-style summary for one numeric column.
type NumericStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"25%"`
	Median float64 `json:"50%"`
	P75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// CategoryStats summarises one categorical/text column.
type CategoryStats struct {
	UniqueValues int            `json:"unique_values"`
	TopValues    map[string]int `json:"top_values"`
}

// Summary is the structural overview of a dataset that is embedded into
// prompt payloads and used to decide whether historical-context retrieval
// is worth attempting.
type Summary struct {
	NumRows            int                      `json:"num_rows"`
	NumCols            int                      `json:"num_cols"`
	ColumnNames        []string                 `json:"column_names"`
	ColumnDtypes       map[string]string        `json:"column_dtypes"`
	NumericalSummary   map[string]NumericStats  `json:"numerical_summary"`
	CategoricalSummary map[string]CategoryStats `json:"categorical_summary"`
}

// HasNumericData reports whether the summary carries usable column and
// numeric information.
func (s Summary) HasNumericData() bool {
	return len(s.ColumnNames) > 0 && len(s.NumericalSummary) > 0
}

const topValueCount = 5

// Summarize computes row/column counts, per-column dtypes, descriptive
// statistics for numeric columns and top-value counts for the rest.
// A column counts as numeric when every non-null cell parses as a number
// and at least one such cell exists.
func Summarize(d *Dataset) Summary {
	s := Summary{
		NumRows:            d.NumRows(),
		NumCols:            d.NumCols(),
		ColumnNames:        append([]string(nil), d.Columns...),
		ColumnDtypes:       make(map[string]string, d.NumCols()),
		NumericalSummary:   make(map[string]NumericStats),
		CategoricalSummary: make(map[string]CategoryStats),
	}

	for ci, name := range d.Columns {
		var nums []float64
		texts := make(map[string]int)
		numeric := true
		for _, row := range d.Rows {
			if ci >= len(row) || row[ci].IsNull() {
				continue
			}
			if f, ok := row[ci].Float(); ok {
				nums = append(nums, f)
			} else {
				numeric = false
			}
			texts[row[ci].String()]++
		}
		if numeric && len(nums) > 0 {
			s.ColumnDtypes[name] = "number"
			s.NumericalSummary[name] = describe(nums)
		} else {
			s.ColumnDtypes[name] = "text"
			s.CategoricalSummary[name] = CategoryStats{
				UniqueValues: len(texts),
				TopValues:    topValues(texts, topValueCount),
			}
		}
	}
	return s
}

func describe(nums []float64) NumericStats {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	var sum float64
	for _, f := range sorted {
		sum += f
	}
	mean := sum / float64(len(sorted))

	var variance float64
	if len(sorted) > 1 {
		for _, f := range sorted {
			variance += (f - mean) * (f - mean)
		}
		variance /= float64(len(sorted) - 1)
	}

	return NumericStats{
		Count:  len(sorted),
		Mean:   round2(mean),
		Std:    round2(math.Sqrt(variance)),
		Min:    round2(sorted[0]),
		P25:    round2(percentile(sorted, 0.25)),
		Median: round2(percentile(sorted, 0.50)),
		P75:    round2(percentile(sorted, 0.75)),
		Max:    round2(sorted[len(sorted)-1]),
	}
}

// percentile uses linear interpolation between closest ranks over an
// already sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func topValues(counts map[string]int, n int) map[string]int {
	type kv struct {
		k string
		v int
	}
	pairs := make([]kv, 0, len(counts))
	for k, v := range counts {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].v != pairs[j].v {
			return pairs[i].v > pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		out[p.k] = p.v
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

package calc

import (
	"testing"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/kpi"
)

func anomalyDataset(labels []string, gross []dataset.Value) *dataset.Dataset {
	d := dataset.New([]string{"Label", kpi.ColGrossSales})
	for i := range labels {
		d.Rows = append(d.Rows, []dataset.Value{dataset.Text(labels[i]), gross[i]})
	}
	return d
}

func labelsOf(t *testing.T, table string) []string {
	t.Helper()
	d := parseTable(t, table)
	out := make([]string, d.NumRows())
	for i := range out {
		out[i] = d.Value(i, "Label").String()
	}
	return out
}

func TestTopNDescending(t *testing.T) {
	d := anomalyDataset(
		[]string{"a", "b", "c", "d", "e"},
		[]dataset.Value{
			dataset.Number(5), dataset.Number(1), dataset.Number(9),
			dataset.Number(3), dataset.Number(7),
		},
	)

	got := labelsOf(t, topN(d, kpi.ColGrossSales, 3, true))
	want := []string{"c", "e", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestTopNAscendingAndBound(t *testing.T) {
	d := anomalyDataset(
		[]string{"a", "b", "c"},
		[]dataset.Value{dataset.Number(5), dataset.Number(1), dataset.Number(9)},
	)

	got := labelsOf(t, topN(d, kpi.ColGrossSales, 2, false))
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("expected lowest two rows [b a], got %v", got)
	}

	all := labelsOf(t, topN(d, kpi.ColGrossSales, 10, true))
	if len(all) != 3 {
		t.Errorf("n larger than the dataset should return every ranked row, got %d", len(all))
	}
}

func TestTopNStableTies(t *testing.T) {
	d := anomalyDataset(
		[]string{"first", "second", "third"},
		[]dataset.Value{dataset.Number(9), dataset.Number(9), dataset.Number(1)},
	)

	got := labelsOf(t, topN(d, kpi.ColGrossSales, 2, true))
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("ties should keep dataset order, got %v", got)
	}
}

func TestTopNExcludesNullsAndText(t *testing.T) {
	d := anomalyDataset(
		[]string{"a", "b", "c", "d"},
		[]dataset.Value{dataset.Number(5), dataset.Null(), dataset.Text("n/a"), dataset.Number(2)},
	)

	got := labelsOf(t, topN(d, kpi.ColGrossSales, 10, true))
	if len(got) != 2 {
		t.Errorf("null and non-numeric rows should be excluded, got %v", got)
	}
}

func TestTopNMissingColumn(t *testing.T) {
	d := dataset.New([]string{"Label"})
	d.Rows = [][]dataset.Value{{dataset.Text("a")}}
	if got := topN(d, kpi.ColGrossSales, 5, true); got != SliceNotAvailable {
		t.Errorf("expected placeholder for missing column, got %q", got)
	}
}

func TestWriteOffRows(t *testing.T) {
	d := dataset.New([]string{"Label", kpi.ColWriteOffs})
	d.Rows = [][]dataset.Value{
		{dataset.Text("a"), dataset.Number(0)},
		{dataset.Text("b"), dataset.Number(12.5)},
		{dataset.Text("c"), dataset.Null()},
		{dataset.Text("d"), dataset.Number(3)},
	}

	got := labelsOf(t, writeOffRows(d))
	if len(got) != 2 || got[0] != "b" || got[1] != "d" {
		t.Errorf("expected rows [b d], got %v", got)
	}
}

func TestWriteOffRowsNoneMatch(t *testing.T) {
	d := dataset.New([]string{"Label", kpi.ColWriteOffs})
	d.Rows = [][]dataset.Value{{dataset.Text("a"), dataset.Number(0)}}
	if got := writeOffRows(d); got != NoWriteOffs {
		t.Errorf("expected no-write-offs placeholder, got %q", got)
	}
}

func TestExtractAnomaliesDefaults(t *testing.T) {
	d := anomalyDataset([]string{"a"}, []dataset.Value{dataset.Number(1)})

	res := ExtractAnomalies(d, 0)
	if res.N != DefaultAnomalyTopN {
		t.Errorf("expected default bound %d, got %d", DefaultAnomalyTopN, res.N)
	}
	if len(res.Slices) != 6 {
		t.Errorf("expected 6 slices, got %d", len(res.Slices))
	}
	if res.Slices[SliceTopReturnRate] != SliceNotAvailable {
		t.Errorf("missing rate column should yield placeholder, got %q", res.Slices[SliceTopReturnRate])
	}
}

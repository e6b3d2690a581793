package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTMLTable reads the first <table> of an HTML document into a
// dataset. Header cells come from <th> elements when present, otherwise
// from the first row. Cells go through the same coercion as CSV input.
func ParseHTMLTable(r io.Reader) (*Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found in HTML document")
	}

	var header []string
	table.Find("th").Each(func(_ int, cell *goquery.Selection) {
		header = append(header, strings.TrimSpace(cell.Text()))
	})

	rows := table.Find("tr")
	start := 0
	if len(header) == 0 {
		// No <th> cells: treat the first row as the header.
		rows.First().Find("td").Each(func(_ int, cell *goquery.Selection) {
			header = append(header, strings.TrimSpace(cell.Text()))
		})
		start = 1
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	d := New(header)
	rows.Each(func(i int, tr *goquery.Selection) {
		if i < start {
			return
		}
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := make([]Value, len(header))
		for j := range row {
			row[j] = Null()
		}
		cells.Each(func(j int, td *goquery.Selection) {
			if j < len(header) {
				row[j] = coerceCell(td.Text())
			}
		})
		d.Rows = append(d.Rows, row)
	})
	return d, nil
}

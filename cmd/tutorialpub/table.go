package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one table column. Count columns are right-aligned; when summed
// is set the footer carries their total.
type column struct {
	title  string
	count  bool
	summed bool
}

func textCol(title string) column { return column{title: title} }

func countCol(title string) column { return column{title: title, count: true, summed: true} }

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if c.count {
			configs[i].Align = text.AlignRight
			configs[i].AlignFooter = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	if footer := totalsRow(columns, rows); footer != nil {
		tw.AppendFooter(footer)
	}
	return tw.Render()
}

// totalsRow sums summed columns across rows. It returns nil when no column
// is summed or there is only one row.
func totalsRow(columns []column, rows [][]string) table.Row {
	if len(rows) < 2 {
		return nil
	}
	footer := make(table.Row, len(columns))
	hasTotals := false
	for i, c := range columns {
		if !c.summed {
			continue
		}
		hasTotals = true
		total := 0
		for _, row := range rows {
			if i < len(row) {
				n, _ := strconv.Atoi(row[i])
				total += n
			}
		}
		footer[i] = strconv.Itoa(total)
	}
	if !hasTotals {
		return nil
	}
	if !columns[0].summed {
		footer[0] = "Total"
	}
	return footer
}

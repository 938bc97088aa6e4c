package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// noteColumnWidth wraps free-text columns so long notes do not push the
// table off screen.
const noteColumnWidth = 40

type tableSpec struct {
	headers []string
	aligns  []columnAlignment
	// wrap lists zero-based columns that hold free text.
	wrap   []int
	footer []string
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return renderTableSpec(tableSpec{headers: headers, aligns: aligns}, rows)
}

func renderTableSpec(spec tableSpec, rows [][]string) string {
	columns := len(spec.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(spec.headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(spec.footer) > 0 {
		tw.AppendFooter(toRow(spec.footer, columns))
	}

	wrapped := make(map[int]bool, len(spec.wrap))
	for _, i := range spec.wrap {
		wrapped[i] = true
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(spec.aligns) && spec.aligns[i] == alignRight {
			align = text.AlignRight
		}
		cc := table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
		if wrapped[i] {
			cc.WidthMax = noteColumnWidth
			cc.WidthMaxEnforcer = text.WrapSoft
		}
		columnConfigs = append(columnConfigs, cc)
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render() + "\n"
}

func toRow(values []string, columns int) table.Row {
	r := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		if i < len(values) {
			r[i] = values[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

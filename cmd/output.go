package cmd

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// printer renders rows either as a table or, with --json, as a list of
// objects keyed by column name.
type printer struct {
	w       io.Writer
	columns []string
	rows    []table.Row
	json    bool
}

func newPrinter(w io.Writer, asJSON bool, columns ...string) *printer {
	return &printer{w: w, columns: columns, json: asJSON}
}

func (p *printer) AppendRow(values ...any) {
	p.rows = append(p.rows, table.Row(values))
}

func (p *printer) Render() error {
	if p.json {
		items := make([]map[string]any, 0, len(p.rows))
		for _, row := range p.rows {
			item := make(map[string]any, len(p.columns))
			for i, col := range p.columns {
				if i < len(row) {
					item[col] = row[i]
				}
			}
			items = append(items, item)
		}
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", " ")
		return enc.Encode(items)
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(p.columns))
	for i, c := range p.columns {
		header[i] = c
	}
	t.AppendHeader(header)
	t.AppendRows(p.rows)
	t.Render()
	return nil
}

// Package format renders tabular views as fixed-width text or Markdown.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects how a table is rendered.
type Mode int

const (
	ASCII Mode = iota
	Markdown
)

// Table accumulates rows and renders them in its Mode.
type Table struct {
	writer table.Writer
	mode   Mode
}

// NewTable returns an empty table.
func NewTable(mode Mode) *Table {
	writer := table.NewWriter()
	if mode == ASCII {
		writer.SetStyle(table.StyleLight)
	}

	return &Table{writer: writer, mode: mode}
}

// Header sets the column titles.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for idx, col := range cols {
		row[idx] = col
	}

	t.writer.AppendHeader(row)
}

// Row appends one row. Values are printed with fmt semantics.
func (t *Table) Row(vals ...any) {
	t.writer.AppendRow(table.Row(vals))
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, number := range columns {
		configs = append(configs, table.ColumnConfig{Number: number, Align: text.AlignRight})
	}

	t.writer.SetColumnConfigs(configs)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.writer.Length()
}

func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}

	return t.writer.Render()
}

package export

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxCommentWidth wraps long comments in terminal tables
const maxCommentWidth = 60

// NewTable returns a rounded table writer rendering to w
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// WriteTable renders rows with a header and a total footer
func WriteTable(w io.Writer, rows []Row) {
	t := NewTable(w)
	t.AppendHeader(stringsToRow(Header))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxCommentWidth, WidthMaxEnforcer: text.WrapSoft},
		{Number: 4, Align: text.AlignRight},
	})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Username, r.Comment, r.Timestamp, r.Likes, r.Verified})
	}
	t.AppendFooter(table.Row{"Total", len(rows)})
	t.Render()
}

func stringsToRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

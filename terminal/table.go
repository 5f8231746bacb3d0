package terminal

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"ftpbrowser/listing"
)

// maxNameWidth is where long names get truncated
const maxNameWidth = 50

// TableFormatter handles formatted table output
type TableFormatter struct {
	out   io.Writer
	table *tablewriter.Table
}

// NewTableFormatter creates a new table formatter writing to out
func NewTableFormatter(out io.Writer) *TableFormatter {
	table := tablewriter.NewWriter(out)
	table.Header("Name", "Type", "Size", "Modified")
	table.Options(
		tablewriter.WithRendition(tw.Rendition{Borders: tw.Border{Left: tw.Pending, Right: tw.Pending, Top: tw.Pending, Bottom: tw.Pending}}),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
	)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.MaxWidth = 0
		cfg.Header = tw.CellConfig{
			Alignment: tw.CellAlignment{
				Global: tw.AlignLeft,
			},
		}
		cfg.Row = tw.CellConfig{
			Alignment: tw.CellAlignment{
				Global: tw.AlignLeft,
			},
		}
		cfg.Behavior = tw.Behavior{}
	})

	return &TableFormatter{out: out, table: table}
}

// FormatListing renders entries as a table
func (tf *TableFormatter) FormatListing(entries []listing.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(tf.out, "Directory is empty")
		return nil
	}

	tf.table.Reset()
	tf.table.Header("Name", "Type", "Size", "Modified")

	for _, e := range entries {
		if err := tf.table.Append(row(e)); err != nil {
			return err
		}
	}
	return tf.table.Render()
}

// row formats one entry as Name, Type, Size, Modified
func row(e listing.Entry) []string {
	name := e.Name
	if e.IsDir && !e.IsParent() {
		name += "/"
	}
	if len(name) > maxNameWidth {
		name = name[:maxNameWidth-3] + "..."
	}

	size := e.SizeDisplay()
	if size == "" {
		size = "-"
	}

	modified := ""
	if e.ModTime != nil {
		modified = e.ModTime.Format("Jan 02 2006 15:04")
	}

	return []string{name, fileType(e), size, modified}
}

// fileType shows the extension in caps for files, otherwise the entry kind
func fileType(e listing.Entry) string {
	if e.Kind != listing.KindFile {
		return e.Kind.String()
	}
	if ext := filepath.Ext(e.Name); ext != "" && ext != e.Name {
		return strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	return e.Kind.String()
}

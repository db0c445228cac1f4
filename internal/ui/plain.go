package ui

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/maxviazov/cve-catalog-service/internal/browser"
)

// RenderPlain prints the current page as a plain text table for non-interactive use.
func RenderPlain(w io.Writer, st browser.State) error {
	if _, err := fmt.Fprintf(w, "CVE LIST\nTotal Records: %d\n\n", st.Total()); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(Columns)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(true)
	table.SetRowLine(false)
	for _, r := range st.Records() {
		table.Append(Row(r))
	}
	table.Render()

	_, err := fmt.Fprintf(w, "\n%s (page size %d)\n", st.Label(), st.PageSize())
	return err
}

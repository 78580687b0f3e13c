package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printInventoryTable(w io.Writer, inventory []types.ServerInfo) error {
	tw := newTabWriter(w)
	tw.writef("REFERENCE\tMEMORY\tSTORAGE\tAVAILABLE\n")
	for i := range inventory {
		tw.writef("%s\t%s\t%s\t%v\n",
			inventory[i].Reference,
			inventory[i].Memory,
			inventory[i].Storage,
			inventory[i].Available,
		)
	}
	return tw.finish()
}

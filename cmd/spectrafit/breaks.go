package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ja7ad/spectrafit/pkg/spectrum"
)

func newBreaksCmd() *cobra.Command {
	var p float64
	cmd := &cobra.Command{
		Use:   "breaks",
		Short: "List the spectral break shapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := newTable()
			fmt.Fprintf(tw, "BREAK\tβ1\tβ2\ts\tp FITTED\tREGIME\n")
			fmt.Fprintf(tw, "-----\t--\t--\t-\t--------\t------\n")
			for _, b := range spectrum.Breaks() {
				b1, b2, s := b.Slopes(p)
				fitted := "no"
				if b.Identifiable() {
					fitted = "yes"
				}
				fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%.3f\t%s\t%s\n", int(b), b1, b2, s, fitted, b.Regime())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&p, "p", 2.5, "electron index used to evaluate p-dependent slopes")
	return cmd
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

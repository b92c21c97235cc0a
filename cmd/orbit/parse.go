package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreyysyy/orbit/internal/tle"
)

func newParseCmd(a *app) *cobra.Command {
	var (
		sat    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file|url|->",
		Short: "Parse a TLE and print its fields and canonical text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.selectRecord(cmd.Context(), args[0], sat)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				fields := make(map[string]string)
				for _, f := range tle.Fields() {
					fields[f.String()] = rec.Text(f)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"fields":   fields,
					"epoch":    rec.EpochInstant(),
					"elements": rec.Elements(),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, f := range tle.Fields() {
				fmt.Fprintf(tw, "%s\t%s\n", f, rec.Text(f))
			}
			fmt.Fprintf(tw, "epoch\t%s\n", rec.EpochInstant().Format(time.RFC3339Nano))
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, rec.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&sat, "sat", "", "satellite name or catalog number (default: first in file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

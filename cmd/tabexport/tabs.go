package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/tabs"
	"github.com/spf13/cobra"
)

func newTabsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List the open tabs with their window, stack and host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.close()

			src, err := a.source(ctx)
			if err != nil {
				return err
			}
			ts, err := src.Tabs(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ts)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WINDOW\tINDEX\tSTACK\tHOST\tTITLE")
			for _, t := range ts {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", t.WindowID, t.Index, tabs.StackOf(t), tabs.HostOf(t), t.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if !src.SupportsStacks() {
				fmt.Fprintln(cmd.ErrOrStderr(), a.catalog.Lookup(i18n.KeyStackUnavailable))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print tabs as JSON")
	return cmd
}

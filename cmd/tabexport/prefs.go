package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/spf13/cobra"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the stored grouping preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.prefsStore()
			if err != nil {
				return err
			}
			p, err := store.Load()
			if err != nil {
				return err
			}
			return printPrefs(cmd.OutOrStdout(), a.catalog, p)
		},
	})

	set := &cobra.Command{
		Use:   "set",
		Short: "Change stored preferences; unset flags keep their value",
		Example: `  tabexport prefs set --window --host
  tabexport prefs set --stack=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.prefsStore()
			if err != nil {
				return err
			}
			current, err := store.Load()
			if err != nil {
				return err
			}
			next, changed, err := overridePrefs(current, cmd.Flags())
			if err != nil {
				return err
			}
			if !changed {
				return fmt.Errorf("nothing to set: pass at least one of --window, --stack, --host, --indent")
			}
			saved, err := store.Update(func(p *prefs.Prefs) { *p = next })
			if err != nil {
				return err
			}
			return printPrefs(cmd.OutOrStdout(), a.catalog, saved)
		},
	}
	addGroupingFlags(set.Flags(), helpCatalog())
	cmd.AddCommand(set)

	return cmd
}

func printPrefs(w io.Writer, cat *i18n.Catalog, p prefs.Prefs) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		key string
		on  bool
	}{
		{i18n.KeyWindow, p.Window},
		{i18n.KeyStack, p.Stack},
		{i18n.KeyHost, p.Host},
		{i18n.KeyIndent, p.Indent},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%t\n", cat.Lookup(r.key), r.on); err != nil {
			return err
		}
	}
	return tw.Flush()
}

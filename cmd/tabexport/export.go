package main

import (
	"fmt"
	"os"

	"github.com/dgnsrekt/tabexport/internal/controller"
	"github.com/dgnsrekt/tabexport/internal/i18n"
	"github.com/dgnsrekt/tabexport/internal/prefs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// helpCatalog localizes help text. Flags are registered before config
// loads, so only the environment is consulted.
func helpCatalog() *i18n.Catalog {
	return i18n.New(os.Getenv("TABEXPORT_LOCALE"))
}

// addGroupingFlags registers the grouping toggles with localized help text.
func addGroupingFlags(fs *pflag.FlagSet, cat *i18n.Catalog) {
	fs.Bool("window", false, cat.Lookup(i18n.KeyWindow))
	fs.Bool("stack", false, cat.Lookup(i18n.KeyStack))
	fs.Bool("host", false, cat.Lookup(i18n.KeyHost))
	fs.Bool("indent", false, cat.Lookup(i18n.KeyIndent))
}

// overridePrefs applies the grouping flags that were set on top of base and
// reports whether any were.
func overridePrefs(base prefs.Prefs, fs *pflag.FlagSet) (prefs.Prefs, bool, error) {
	changed := false
	for name, dst := range map[string]*bool{
		"window": &base.Window,
		"stack":  &base.Stack,
		"host":   &base.Host,
		"indent": &base.Indent,
	} {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return base, false, err
		}
		*dst = v
		changed = true
	}
	return base, changed, nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		outputDir string
		toStdout  bool
		open      bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: helpCatalog().Lookup(i18n.KeyAsHTML),
		Long: `Export the open tabs as an HTML page.

The page is kept in the export store and a copy is written to the output
directory. Grouping flags override the stored preferences for this run only.

Examples:
  tabexport export                      # use stored preferences
  tabexport export --window --host      # group by window, then host
  tabexport export --source file --input tabs.json --stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.close()

			svc, err := a.service(ctx)
			if err != nil {
				return err
			}

			req := controller.ExportRequest{Locale: a.cfg.Locale, Open: open || a.cfg.Open}
			stored, err := svc.GetPrefs(ctx)
			if err != nil {
				return err
			}
			if p, changed, err := overridePrefs(stored, cmd.Flags()); err != nil {
				return err
			} else if changed {
				req.Prefs = &p
			}

			if toStdout {
				page, meta, err := svc.Build(ctx, req)
				if err != nil {
					return err
				}
				if meta.Notice != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), meta.Notice)
				}
				_, err = cmd.OutOrStdout().Write(page)
				return err
			}

			meta, exportErr := svc.Export(ctx, req)
			if meta.ID == "" {
				return exportErr
			}
			if meta.Notice != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), meta.Notice)
			}
			dir := outputDir
			if dir == "" {
				dir = a.cfg.OutputDir
			}
			path, err := svc.CopyExport(ctx, meta.ID, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d tabs\t%s\n", meta.ID, meta.TabCount, path)
			return exportErr
		},
	}

	addGroupingFlags(cmd.Flags(), helpCatalog())
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for the page copy")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the page to stdout without storing it")
	cmd.Flags().BoolVar(&open, "open", false, "open the saved page in a new browser tab")
	return cmd
}

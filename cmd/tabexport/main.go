// Command tabexport saves the open browser tabs as a grouped HTML page.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tabexport",
		Short: "Export open browser tabs as an HTML page",
		Long: `tabexport reads the open tabs of a Chromium-based browser over the
DevTools protocol (or from a JSON dump) and writes them as a single HTML page,
optionally grouped by window, Vivaldi tab stack, and host.

Settings come from the environment (and a .env file); flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.String("source", "", "tab source: cdp or file")
	pf.String("input", "", "JSON tab dump for the file source (- for stdin)")
	pf.String("cdp-address", "", "CDP host")
	pf.Int("cdp-port", 0, "CDP port")
	pf.String("tab-filter", "", "only include tabs whose URL contains this text")
	pf.String("store-dir", "", "directory for stored exports")
	pf.String("prefs-file", "", "grouping preferences file")
	pf.String("locale", "", "locale for the title and labels, e.g. de-AT")
	pf.Bool("launch", false, "start a browser with remote debugging if none is listening")
	pf.String("browser-path", "", "browser binary to launch")
	pf.String("notify-url", "", "ntfy-style endpoint notified after each export")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-file", "", "rotating log file path")

	root.AddCommand(newExportCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newPrefsCmd(a))
	root.AddCommand(newTabsCmd(a))
	return root
}

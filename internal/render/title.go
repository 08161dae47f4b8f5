package render

import (
	"strings"
	"time"
)

// DefaultDateTimeLayout is used when a locale does not provide its own.
const DefaultDateTimeLayout = "1/2/2006, 3:04:05 PM"

// FormatTitle substitutes the first %s in template with now, formatted with
// layout. Templates without a placeholder are returned unchanged.
func FormatTitle(template string, now time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateTimeLayout
	}
	return strings.Replace(template, "%s", now.Format(layout), 1)
}

// Filename is the suggested download name for a page titled title.
func Filename(title string) string {
	return title + ".html"
}

// SafeFilename is Filename with path separators and other characters that
// most filesystems reject replaced by underscores.
func SafeFilename(title string) string {
	repl := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name := strings.TrimSpace(repl.Replace(title))
	if name == "" {
		name = "tabs"
	}
	return Filename(name)
}

// Package i18n holds the localized strings used by exports and the CLI.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Message keys.
const (
	KeyName             = "name"
	KeyTitle            = "mytabs"
	KeyAsHTML           = "ashtml"
	KeyWindow           = "window"
	KeyStack            = "stack"
	KeyHost             = "host"
	KeyIndent           = "indent"
	KeyWindowLabel      = "window_label"
	KeyStackLabel       = "stack_label"
	KeyStackUnavailable = "stack_unavailable"
	KeyDateTimeLayout   = "datetime_layout"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog resolves message keys for one locale, falling back to English.
type Catalog struct {
	tag      language.Tag
	messages map[string]string
	fallback map[string]string
}

type bundle struct {
	tags     []language.Tag
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
}

var defaultBundle *bundle

func init() {
	b, err := loadBundle()
	if err != nil {
		panic(fmt.Sprintf("i18n: %v", err))
	}
	defaultBundle = b
}

func loadBundle() (*bundle, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	b := &bundle{messages: make(map[language.Tag]map[string]string)}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", e.Name(), err)
		}
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		msgs := make(map[string]string)
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		b.messages[tag] = msgs
		b.tags = append(b.tags, tag)
	}
	if _, ok := b.messages[language.English]; !ok {
		return nil, fmt.Errorf("missing English catalog")
	}
	// The matcher treats the first tag as the default.
	sort.SliceStable(b.tags, func(i, j int) bool {
		return b.tags[i] == language.English && b.tags[j] != language.English
	})
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// New returns the catalog best matching the given locale preferences, such as
// "de-AT" or an Accept-Language header value. Empty input selects English.
func New(locale string) *Catalog {
	b := defaultBundle
	var idx int
	if locale != "" {
		prefs, _, err := language.ParseAcceptLanguage(locale)
		if err == nil && len(prefs) > 0 {
			_, idx, _ = b.matcher.Match(prefs...)
		}
	}
	tag := b.tags[idx]
	return &Catalog{
		tag:      tag,
		messages: b.messages[tag],
		fallback: b.messages[language.English],
	}
}

// Tag returns the matched locale.
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// Lookup returns the message for key. Unknown keys return the key itself.
func (c *Catalog) Lookup(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	if msg, ok := c.fallback[key]; ok {
		return msg
	}
	return key
}

// Locales lists the available catalogs.
func Locales() []string {
	out := make([]string, 0, len(defaultBundle.tags))
	for _, t := range defaultBundle.tags {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

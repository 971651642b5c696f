// Package locale holds the user- and operator-facing message tables.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fallback is used for unknown locales and for keys a locale lacks.
const Fallback = "en-US"

//go:embed *.yaml
var tables embed.FS

// Catalog resolves message keys for one locale.
type Catalog struct {
	locale   string
	messages map[string]string
	fallback map[string]string
}

// Vars are substituted into {name} placeholders.
type Vars map[string]any

// Load returns the catalog for locale. Unknown locales resolve to Fallback;
// a bare language ("zh") picks the first table of that language.
func Load(locale string) (*Catalog, error) {
	fallback, err := loadTable(Fallback)
	if err != nil {
		return nil, err
	}

	resolved := resolve(locale)
	messages := fallback
	if resolved != Fallback {
		if messages, err = loadTable(resolved); err != nil {
			return nil, err
		}
	}
	return &Catalog{locale: resolved, messages: messages, fallback: fallback}, nil
}

// MustLoad is Load for the embedded tables, which are known to parse.
func MustLoad(locale string) *Catalog {
	c, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// Available lists the embedded locales.
func Available() []string {
	entries, _ := fs.Glob(tables, "*.yaml")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e, ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Locale returns the resolved locale name.
func (c *Catalog) Locale() string {
	return c.locale
}

// Text returns the message for key with vars substituted. Missing keys
// render as the key itself.
func (c *Catalog) Text(key string, vars Vars) string {
	msg, ok := c.messages[key]
	if !ok {
		if msg, ok = c.fallback[key]; !ok {
			return key
		}
	}
	if len(vars) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func resolve(locale string) string {
	available := Available()
	for _, a := range available {
		if strings.EqualFold(a, locale) {
			return a
		}
	}
	lang, _, _ := strings.Cut(locale, "-")
	for _, a := range available {
		if l, _, _ := strings.Cut(a, "-"); lang != "" && strings.EqualFold(l, lang) {
			return a
		}
	}
	return Fallback
}

func loadTable(locale string) (map[string]string, error) {
	data, err := tables.ReadFile(locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("locale %s: %w", locale, err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing locale %s: %w", locale, err)
	}

	flat := make(map[string]string)
	flatten("", tree, flat)
	return flat, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case string:
			out[key] = v
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

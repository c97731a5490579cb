// Package i18n holds the message catalog used to render notification texts.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

type Translations map[string]string

// Catalog maps locale -> key -> message. Messages may carry {{NAME}}
// placeholders.
type Catalog struct {
	mu            sync.RWMutex
	locales       map[string]Translations
	defaultLocale string
}

// NewCatalog loads the embedded catalogs.
func NewCatalog(defaultLocale string) (*Catalog, error) {
	c := &Catalog{
		locales:       make(map[string]Translations),
		defaultLocale: defaultLocale,
	}
	if err := c.load(embedded, "locales"); err != nil {
		return nil, fmt.Errorf("load embedded locales: %w", err)
	}
	return c, nil
}

// LoadDir merges <dir>/<locale>.yaml files over what is already loaded.
func (c *Catalog) LoadDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("locales dir %s: %w", dir, err)
	}
	return c.load(os.DirFS(dir), ".")
}

func (c *Catalog) load(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), ".yaml")

		data, err := fs.ReadFile(fsys, path.Join(root, entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		var trans Translations
		if err := yaml.Unmarshal(data, &trans); err != nil {
			return fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}

		if c.locales[locale] == nil {
			c.locales[locale] = make(Translations, len(trans))
		}
		for k, v := range trans {
			c.locales[locale][k] = strings.TrimRight(v, "\n")
		}
	}

	return nil
}

// Locales lists the loaded locale names.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.locales))
	for l := range c.locales {
		out = append(out, l)
	}
	return out
}

// Translate looks key up in locale, then in the default locale, and falls
// back to the key itself. Placeholders are filled from fields; unknown
// placeholders are left as they are.
func (c *Catalog) Translate(locale, key string, fields map[string]string) string {
	msg := c.lookup(locale, key)
	if len(fields) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(fields)*2)
	for name, value := range fields {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func (c *Catalog) lookup(locale, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if trans, ok := c.locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != c.defaultLocale {
		if trans, ok := c.locales[c.defaultLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}

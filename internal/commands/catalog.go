package commands

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/quailyquaily/mucbot/internal/trivia"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type ZodiacSign struct {
	Name string `yaml:"name"`
	Sign string `yaml:"sign"`
}

// Catalog is the static content behind the trivia, horoscope, "would you
// rather" and moderation rules.
type Catalog struct {
	Capitals       []trivia.Pair `yaml:"capitals"`
	Zodiac         []ZodiacSign  `yaml:"zodiac"`
	WouldYouRather []string      `yaml:"would_you_rather"`
	FlaggedTerms   []string      `yaml:"flagged_terms"`
}

func DefaultCatalog() Catalog {
	c, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("commands: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from path. Sections the file leaves out
// keep their built-in content. An empty path returns the built-in catalog.
func LoadCatalog(path string) (Catalog, error) {
	base := DefaultCatalog()
	path = strings.TrimSpace(path)
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	override, err := parseCatalog(raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(override.Capitals) > 0 {
		base.Capitals = override.Capitals
	}
	if len(override.Zodiac) > 0 {
		base.Zodiac = override.Zodiac
	}
	if len(override.WouldYouRather) > 0 {
		base.WouldYouRather = override.WouldYouRather
	}
	if len(override.FlaggedTerms) > 0 {
		base.FlaggedTerms = override.FlaggedTerms
	}
	return base, nil
}

func parseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, err
	}
	for i, p := range c.Capitals {
		if strings.TrimSpace(p.Country) == "" || strings.TrimSpace(p.Capital) == "" {
			return Catalog{}, fmt.Errorf("capitals[%d]: country and capital are required", i)
		}
	}
	for i, z := range c.Zodiac {
		if strings.TrimSpace(z.Name) == "" || strings.TrimSpace(z.Sign) == "" {
			return Catalog{}, fmt.Errorf("zodiac[%d]: name and sign are required", i)
		}
	}
	return c, nil
}

// findSign returns the first catalog sign whose name appears in text.
func (c Catalog) findSign(text string) (ZodiacSign, bool) {
	for _, z := range c.Zodiac {
		if strings.Contains(text, z.Name) {
			return z, true
		}
	}
	return ZodiacSign{}, false
}

func (c Catalog) flaggedIn(text string) []string {
	var hits []string
	for _, term := range c.FlaggedTerms {
		if term != "" && strings.Contains(text, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

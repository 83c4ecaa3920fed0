package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/geoknoesis/rdf-formats/rdf"
	kitlog "github.com/go-kit/kit/log"
	level "github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the optional rdfconvert configuration file.
type Config struct {
	// Aliases maps extra media types onto registered ones, e.g.
	// application/x-turtle: text/turtle.
	Aliases map[string]string `yaml:"aliases"`
	// Extensions maps file extensions onto media types. They take precedence
	// over the built-in extensions.
	Extensions map[string]string `yaml:"extensions"`
	Limits     LimitsConfig      `yaml:"limits"`
	JSONLD     JSONLDConfig      `yaml:"jsonld"`
}

// LimitsConfig bounds what a single conversion may read.
type LimitsConfig struct {
	MaxLineBytes int   `yaml:"max_line_bytes"`
	MaxTriples   int64 `yaml:"max_triples"`
}

// JSONLDConfig controls remote context loading.
type JSONLDConfig struct {
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// LoadConfig reads a YAML configuration file. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Limits.MaxLineBytes <= 0 {
		c.Limits.MaxLineBytes = rdf.DefaultMaxLineBytes
	}
	if c.JSONLD.HTTPTimeout <= 0 {
		c.JSONLD.HTTPTimeout = 30 * time.Second
	}

	extensions := make(map[string]string, len(c.Extensions))
	for ext, mediaType := range c.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = mediaType
	}
	c.Extensions = extensions
}

// MediaTypeForPath infers a media type from the extension of path, checking
// the configured extensions first. It returns "" when nothing matches.
func (c *Config) MediaTypeForPath(path string) string {
	if mediaType, ok := c.Extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return mediaType
	}
	mediaType, _ := rdf.MediaTypeForPath(path)
	return mediaType
}

// ApplyAliases registers every alias whose target is known to one of the
// registries. Aliases are applied in lexical order.
func (c *Config) ApplyAliases(logger kitlog.Logger, formats *rdf.Formats) {
	aliases := make([]string, 0, len(c.Aliases))
	for alias := range c.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		target := c.Aliases[alias]
		parser := formats.Parsers.Alias(alias, target)
		serializer := formats.Serializers.Alias(alias, target)
		if !parser && !serializer {
			level.Warn(logger).Log("event", "alias_target_unknown", "alias", alias, "target", target)
			continue
		}
		level.Debug(logger).Log("event", "alias_registered", "alias", alias, "target", target,
			"parser", parser, "serializer", serializer)
	}
}

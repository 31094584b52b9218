package ai

import (
	"os"
	"strings"

	"github.com/reusedev/draw-studio/config"
)

// Source yields the raw credential string and a name describing where it came
// from. An empty value means the source has nothing configured.
type Source interface {
	Lookup() (value string, name string)
}

// EnvSource reads one environment variable.
type EnvSource string

func (e EnvSource) Lookup() (string, string) {
	return strings.TrimSpace(os.Getenv(string(e))), "env:" + string(e)
}

// StaticSource is a fixed value, used for inline config keys and in tests.
type StaticSource struct {
	Name  string
	Value string
}

func (s StaticSource) Lookup() (string, string) {
	return strings.TrimSpace(s.Value), s.Name
}

// Chain tries its sources in order and stops at the first non-empty one.
type Chain []Source

func (c Chain) Lookup() (string, string) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, name := src.Lookup(); v != "" {
			return v, name
		}
	}
	return "", ""
}

func ChainFromConfig(c config.Credentials) Chain {
	chain := make(Chain, 0, len(c.Sources)+1)
	for _, name := range c.Sources {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		chain = append(chain, EnvSource(name))
	}
	chain = append(chain, StaticSource{Name: "config:credentials.keys", Value: c.Keys})
	return chain
}

// ConfigSource builds the chain from the active config on every lookup.
type ConfigSource struct{}

func (ConfigSource) Lookup() (string, string) {
	c := config.Get()
	if c == nil {
		return "", ""
	}
	return ChainFromConfig(c.Credentials).Lookup()
}

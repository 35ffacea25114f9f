package mp4parser

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the file form of Options.
//
//	max_depth: 8
//	strict: true
//	container_types: [moov, trak, mdia]
//	extra_container_types: [mvex]
//
// A missing container_types key keeps the default set; an empty list
// disables descent.
type Config struct {
	MaxDepth            *int     `yaml:"max_depth,omitempty"`
	Strict              bool     `yaml:"strict,omitempty"`
	ContainerTypes      []string `yaml:"container_types,omitempty"`
	ExtraContainerTypes []string `yaml:"extra_container_types,omitempty"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "mp4parser: read config")
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "mp4parser: parse config")
	}
	return c, nil
}

// Options converts c to Option values for NewOptions.
func (c Config) Options() ([]Option, error) {
	var opts []Option
	if c.MaxDepth != nil {
		opts = append(opts, WithMaxDepth(*c.MaxDepth))
	}
	if c.Strict {
		opts = append(opts, WithStrict(true))
	}
	if c.ContainerTypes != nil {
		types, err := parseBoxTypes(c.ContainerTypes)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithContainerTypes(types))
	}
	if len(c.ExtraContainerTypes) > 0 {
		types, err := parseBoxTypes(c.ExtraContainerTypes)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithExtraContainerTypes(types...))
	}
	return opts, nil
}

func parseBoxTypes(names []string) ([]BoxType, error) {
	types := make([]BoxType, 0, len(names))
	for _, name := range names {
		t, err := ParseBoxType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

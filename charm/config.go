// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v2"
)

// Option represents a single charm config option.
type Option struct {
	Type        string
	Description string
	Default     interface{}
}

// Config represents the supported configuration options for a charm,
// as declared in its config.yaml file.
type Config struct {
	Options map[string]Option
}

// ReadConfig reads a config.yaml file and returns its representation.
func ReadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw struct {
		Options map[string]struct {
			Type        string      `yaml:"type"`
			Description string      `yaml:"description"`
			Default     interface{} `yaml:"default"`
		} `yaml:"options"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}
	if raw.Options == nil {
		return nil, errors.NotValidf("config without options")
	}
	config := &Config{Options: make(map[string]Option, len(raw.Options))}
	for name, option := range raw.Options {
		checker, ok := optionTypeCheckers[option.Type]
		if !ok {
			return nil, errors.NotValidf("option %q type %q", name, option.Type)
		}
		value := option.Default
		if value != nil {
			if value, err = checker.Coerce(value, nil); err != nil {
				return nil, errors.Annotatef(err, "option %q default", name)
			}
		}
		config.Options[name] = Option{
			Type:        option.Type,
			Description: option.Description,
			Default:     value,
		}
	}
	return config, nil
}

var optionTypeCheckers = map[string]schema.Checker{
	"string":  schema.String(),
	"int":     schema.Int(),
	"float":   schema.Float(),
	"boolean": schema.Bool(),
	"secret":  schema.String(),
}

// DefaultSettings returns the settings a unit sees through config-get
// before any option is changed: options without a default are absent.
func (c *Config) DefaultSettings() map[string]interface{} {
	out := make(map[string]interface{})
	for name, option := range c.Options {
		if option.Default != nil {
			out[name] = option.Default
		}
	}
	return out
}

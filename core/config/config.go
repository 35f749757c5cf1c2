// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package config

import (
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/juju/environschema.v1"
)

// Config holds attributes coerced against an environschema field set.
type Config struct {
	fields     environschema.Fields
	defaults   schema.Defaults
	attributes map[string]interface{}
}

// NewConfig coerces attrs with the given fields and defaults. Attributes
// not described by fields are dropped.
func NewConfig(attrs map[string]interface{}, fields environschema.Fields, defaults schema.Defaults) (*Config, error) {
	cfg := &Config{
		fields:   fields,
		defaults: defaults,
	}
	if err := cfg.setAttributes(attrs); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

func (c *Config) setAttributes(attrs map[string]interface{}) error {
	checker, err := c.schemaChecker()
	if err != nil {
		return errors.Trace(err)
	}
	m := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		// A null value means unset; let the defaults decide.
		if v == nil {
			continue
		}
		m[k] = v
	}
	result, err := checker.Coerce(m, nil)
	if err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	c.attributes = result.(map[string]interface{})
	return nil
}

func (c *Config) schemaChecker() (schema.Checker, error) {
	fields, omitted, err := c.fields.ValidationSchema()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defaults := make(schema.Defaults, len(omitted)+len(c.defaults))
	for k, v := range omitted {
		defaults[k] = v
	}
	for k, v := range c.defaults {
		defaults[k] = v
	}
	return schema.FieldMap(fields, defaults), nil
}

// Attributes returns a copy of the coerced attributes.
func (c *Config) Attributes() map[string]interface{} {
	out := make(map[string]interface{}, len(c.attributes))
	for k, v := range c.attributes {
		out[k] = v
	}
	return out
}

// Get returns the coerced value of key, or nil when it is not set.
func (c *Config) Get(key string) interface{} {
	return c.attributes[key]
}

// GetString returns the value of key as a string, and whether it was set
// to a non-empty value.
func (c *Config) GetString(key string) (string, bool) {
	v, _ := c.attributes[key].(string)
	return v, v != ""
}

// GetBool returns the value of key as a bool, and whether it was set.
func (c *Config) GetBool(key string) (bool, bool) {
	v, ok := c.attributes[key].(bool)
	return v, ok
}

// Has reports whether key holds a value. Empty strings count as unset.
func (c *Config) Has(key string) bool {
	v, ok := c.attributes[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

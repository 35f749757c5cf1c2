// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charmconfig gives a typed view over the charm's config.yaml
// options as returned by config-get.
package charmconfig

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/juju/environschema.v1"

	coreconfig "github.com/openstack-charmers/charm-cinder-infinidat/core/config"
)

const (
	InfiniboxIPKey       = "infinibox-ip"
	InfiniboxLoginKey    = "infinibox-login"
	InfiniboxPasswordKey = "infinibox-password"
	PoolNameKey          = "pool-name"
	ProtocolKey          = "protocol"
	ISCSINetspacesKey    = "iscsi-netspaces"
	VolumeBackendNameKey = "volume-backend-name"
	UseMultipathKey      = "use-multipath"
	UseCHAPKey           = "use-chap"
	CHAPUsernameKey      = "chap-username"
	CHAPPasswordKey      = "chap-password"
	UseCompressionKey    = "use-compression"
	ThinProvisionKey     = "thin-provision"
	UseSSLKey            = "infinibox-use-ssl"
	SSLCAKey             = "infinibox-ssl-ca"
	InstallSourcesKey    = "install_sources"
	InstallKeysKey       = "install_keys"
)

// Fields describes every option in config.yaml. Nothing is Mandatory here:
// missing options surface as a blocked workload status, not as an error.
var Fields = environschema.Fields{
	InfiniboxIPKey: {
		Description: "Management IP address or FQDN of the InfiniBox system.",
		Type:        environschema.Tstring,
	},
	InfiniboxLoginKey: {
		Description: "InfiniBox management API user name.",
		Type:        environschema.Tstring,
	},
	InfiniboxPasswordKey: {
		Description: "InfiniBox management API password.",
		Type:        environschema.Tstring,
		Secret:      true,
	},
	PoolNameKey: {
		Description: "InfiniBox pool volumes are created in.",
		Type:        environschema.Tstring,
	},
	ProtocolKey: {
		Description: "Storage protocol, fc or iscsi.",
		Type:        environschema.Tstring,
	},
	ISCSINetspacesKey: {
		Description: "Comma separated InfiniBox iSCSI network spaces.",
		Type:        environschema.Tstring,
	},
	VolumeBackendNameKey: {
		Description: "Cinder backend section name.",
		Type:        environschema.Tstring,
	},
	UseMultipathKey: {
		Description: "Use multipath for image transfer.",
		Type:        environschema.Tbool,
	},
	UseCHAPKey: {
		Description: "Enable CHAP authentication.",
		Type:        environschema.Tbool,
	},
	CHAPUsernameKey: {
		Description: "CHAP user name.",
		Type:        environschema.Tstring,
	},
	CHAPPasswordKey: {
		Description: "CHAP password.",
		Type:        environschema.Tstring,
		Secret:      true,
	},
	UseCompressionKey: {
		Description: "Compress new volumes.",
		Type:        environschema.Tbool,
	},
	ThinProvisionKey: {
		Description: "Thin provision new volumes.",
		Type:        environschema.Tbool,
	},
	UseSSLKey: {
		Description: "Use SSL for the management API.",
		Type:        environschema.Tbool,
	},
	SSLCAKey: {
		Description: "CA certificate for the management API.",
		Type:        environschema.Tstring,
	},
	InstallSourcesKey: {
		Description: "Package source for the Infinidat packages.",
		Type:        environschema.Tstring,
	},
	InstallKeysKey: {
		Description: "Key for the package source.",
		Type:        environschema.Tstring,
	},
}

// Config is the charm configuration.
type Config struct {
	*coreconfig.Config
}

// New validates attrs, typically the output of config-get.
func New(attrs map[string]interface{}) (*Config, error) {
	return NewWithDefaults(attrs, nil)
}

// NewWithDefaults is New, with defaults used for options missing from
// attrs. The defaults usually come from config.yaml.
func NewWithDefaults(attrs, defaults map[string]interface{}) (*Config, error) {
	cfg, err := coreconfig.NewConfig(attrs, Fields, schema.Defaults(defaults))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Config{Config: cfg}, nil
}

func (c *Config) str(key string) string {
	v, _ := c.GetString(key)
	return v
}

// InfiniboxIP returns the management address.
func (c *Config) InfiniboxIP() string { return c.str(InfiniboxIPKey) }

// InfiniboxLogin returns the management user name.
func (c *Config) InfiniboxLogin() string { return c.str(InfiniboxLoginKey) }

// InfiniboxPassword returns the management password.
func (c *Config) InfiniboxPassword() string { return c.str(InfiniboxPasswordKey) }

// PoolName returns the InfiniBox pool name.
func (c *Config) PoolName() string { return c.str(PoolNameKey) }

// Protocol returns the configured protocol exactly as given.
func (c *Config) Protocol() string { return c.str(ProtocolKey) }

// NormalisedProtocol returns the protocol lower-cased.
func (c *Config) NormalisedProtocol() string {
	return strings.ToLower(c.Protocol())
}

// ISCSINetspaces returns the raw iscsi-netspaces value.
func (c *Config) ISCSINetspaces() string { return c.str(ISCSINetspacesKey) }

// VolumeBackendName returns the backend section name, falling back to
// appName when unset.
func (c *Config) VolumeBackendName(appName string) string {
	if name, ok := c.GetString(VolumeBackendNameKey); ok {
		return name
	}
	return appName
}

// UseCHAP reports whether CHAP authentication is enabled. It defaults to
// false.
func (c *Config) UseCHAP() bool {
	v, _ := c.GetBool(UseCHAPKey)
	return v
}

// CHAPUsername returns the CHAP user name.
func (c *Config) CHAPUsername() string { return c.str(CHAPUsernameKey) }

// CHAPPassword returns the CHAP password.
func (c *Config) CHAPPassword() string { return c.str(CHAPPasswordKey) }

// SSLCA returns the CA certificate to install, if any.
func (c *Config) SSLCA() string { return c.str(SSLCAKey) }

// InstallSources returns the package source template.
func (c *Config) InstallSources() string { return c.str(InstallSourcesKey) }

// InstallKeys returns the key for the package source.
func (c *Config) InstallKeys() string { return c.str(InstallKeysKey) }

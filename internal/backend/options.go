// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package backend maps the charm config onto the Cinder InfiniBox volume
// driver options, and renders them for the principal cinder charm.
package backend

import (
	"encoding/json"
	"fmt"

	"github.com/juju/errors"

	"github.com/openstack-charmers/charm-cinder-infinidat/internal/charmconfig"
)

// VolumeDriver is the Cinder driver class for InfiniBox.
const VolumeDriver = "cinder.volume.drivers.infinidat.InfiniboxVolumeDriver"

// Option is a single key/value pair of a cinder.conf backend section.
// A nil Value means the option is unset.
type Option struct {
	Key   string
	Value interface{}
}

// MarshalJSON encodes the option as a two element array, the shape the
// cinder charm expects in subordinate_configuration.
func (o Option) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{o.Key, o.Value})
}

// Options is an ordered list of backend options.
type Options []Option

// Set drops options without a value.
func (opts Options) Set() Options {
	out := make(Options, 0, len(opts))
	for _, o := range opts {
		if o.Value == nil {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Configuration returns the driver options for cfg. The backend name
// falls back to appName when volume-backend-name is not set.
// See https://docs.openstack.org/cinder/latest/configuration/block-storage/drivers/infinidat-volume-driver.html
func Configuration(cfg *charmconfig.Config, appName string) Options {
	opts := Options{
		{"volume_driver", VolumeDriver},
		{"use_multipath_for_image_xfer", cfg.Get(charmconfig.UseMultipathKey)},
		{"infinidat_storage_protocol", cfg.Get(charmconfig.ProtocolKey)},
		{"volume_backend_name", cfg.VolumeBackendName(appName)},
		{"san_ip", cfg.Get(charmconfig.InfiniboxIPKey)},
		{"san_login", cfg.Get(charmconfig.InfiniboxLoginKey)},
		{"san_password", cfg.Get(charmconfig.InfiniboxPasswordKey)},
		{"infinidat_iscsi_netspaces", cfg.Get(charmconfig.ISCSINetspacesKey)},
	}

	useCHAP := cfg.UseCHAP()
	opts = append(opts, Option{"use_chap_auth", useCHAP})
	if useCHAP {
		opts = append(opts,
			Option{"chap_username", cfg.Get(charmconfig.CHAPUsernameKey)},
			Option{"chap_password", cfg.Get(charmconfig.CHAPPasswordKey)},
		)
	}

	return append(opts,
		Option{"infinidat_pool_name", cfg.Get(charmconfig.PoolNameKey)},
		Option{"infinidat_use_compression", cfg.Get(charmconfig.UseCompressionKey)},
		Option{"san_thin_provision", cfg.Get(charmconfig.ThinProvisionKey)},
		Option{"infinidat_use_ssl", cfg.Get(charmconfig.UseSSLKey)},
	)
}

// Stateless and ActiveActive are advertised to cinder so it can run the
// backend from any cinder-volume unit.
const (
	Stateless    = true
	ActiveActive = true
)

// Relation data keys on the storage-backend relation.
const (
	BackendNameKey              = "backend_name"
	StatelessKey                = "stateless"
	ActiveActiveKey             = "active_active"
	SubordinateConfigurationKey = "subordinate_configuration"
)

const cinderConfPath = "/etc/cinder/cinder.conf"

// SubordinateConfiguration returns the JSON document the cinder charm
// merges into cinder.conf.
func SubordinateConfiguration(backendName string, opts Options) (string, error) {
	doc := map[string]interface{}{
		"cinder": map[string]interface{}{
			cinderConfPath: map[string]interface{}{
				"sections": map[string]Options{
					backendName: opts.Set(),
				},
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Annotate(err, "encoding subordinate configuration")
	}
	return string(data), nil
}

// RelationData returns the unit settings published on storage-backend.
func RelationData(cfg *charmconfig.Config, appName string) (map[string]string, error) {
	backendName := cfg.VolumeBackendName(appName)
	subordinate, err := SubordinateConfiguration(backendName, Configuration(cfg, appName))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return map[string]string{
		BackendNameKey:              backendName,
		StatelessKey:                pythonBool(Stateless),
		ActiveActiveKey:             pythonBool(ActiveActive),
		SubordinateConfigurationKey: subordinate,
	}, nil
}

// pythonBool formats b the way the cinder charm compares it.
func pythonBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatValue(v interface{}) string {
	if b, ok := v.(bool); ok {
		return pythonBool(b)
	}
	return fmt.Sprint(v)
}

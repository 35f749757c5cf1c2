// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package infinidat

import (
	"fmt"
	"strings"

	"github.com/juju/collections/set"

	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/charmconfig"
)

// MandatoryConfig lists the options that must be set before the backend
// is published, in the order they are reported.
var MandatoryConfig = []string{
	charmconfig.InfiniboxIPKey,
	charmconfig.InfiniboxLoginKey,
	charmconfig.InfiniboxPasswordKey,
	charmconfig.PoolNameKey,
	charmconfig.ProtocolKey,
}

// ValidProtocols are the accepted values of the protocol option.
var ValidProtocols = []string{"fc", "iscsi"}

// StatusCheck inspects the config and returns an active status when it
// has nothing to report.
type StatusCheck func(cfg *charmconfig.Config) status.StatusInfo

// StatusChecks run in order; the first non-active result wins.
var StatusChecks = []StatusCheck{
	CheckMandatoryParams,
	CheckProtocolValid,
	CheckISCSINetspaces,
}

// CheckMandatoryParams blocks on any unset mandatory option.
func CheckMandatoryParams(cfg *charmconfig.Config) status.StatusInfo {
	var missing []string
	for _, key := range MandatoryConfig {
		if !cfg.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return status.NewBlocked("missing option(s): " + strings.Join(missing, ","))
	}
	return status.NewActive("")
}

// CheckProtocolValid blocks unless the protocol is one of ValidProtocols.
// Case is ignored.
func CheckProtocolValid(cfg *charmconfig.Config) status.StatusInfo {
	if !set.NewStrings(ValidProtocols...).Contains(cfg.NormalisedProtocol()) {
		return status.NewBlocked(fmt.Sprintf(
			"valid values for 'protocol' are %s", strings.Join(ValidProtocols, ",")))
	}
	return status.NewActive("")
}

// CheckISCSINetspaces blocks when iscsi is used without netspaces.
func CheckISCSINetspaces(cfg *charmconfig.Config) status.StatusInfo {
	if cfg.NormalisedProtocol() == "iscsi" && !cfg.Has(charmconfig.ISCSINetspacesKey) {
		return status.NewBlocked("'iscsi-netspaces' must be set when using 'iscsi' protocol")
	}
	return status.NewActive("")
}

// RunChecks returns the first failing check result, or an active status.
func RunChecks(cfg *charmconfig.Config, checks []StatusCheck) status.StatusInfo {
	for _, check := range checks {
		if result := check(cfg); !result.IsActive() {
			return result
		}
	}
	return status.NewActive("")
}

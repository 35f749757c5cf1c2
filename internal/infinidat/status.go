// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package infinidat

import (
	"context"

	"github.com/juju/errors"

	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/charmconfig"
)

const (
	configuringMessage = "Charm configuration in progress"
	readyMessage       = "Unit is ready"
)

func (c *Charm) updateStatus(ctx context.Context, cfg *charmconfig.Config) error {
	c.setApplicationVersion(ctx)

	info, err := c.assessStatus(ctx, cfg)
	if err != nil {
		return errors.Trace(err)
	}
	return c.setStatus(ctx, info)
}

// assessStatus works out the workload status: waiting until the config has
// been applied once, then blocked on a missing relation, a failing check or
// a stopped service, in that order.
func (c *Charm) assessStatus(ctx context.Context, cfg *charmconfig.Config) (status.StatusInfo, error) {
	started, err := c.started(ctx)
	if err != nil {
		return status.StatusInfo{}, errors.Trace(err)
	}
	if !started {
		return status.NewWaiting(configuringMessage), nil
	}

	ids, err := c.config.Tools.RelationIDs(ctx, c.endpoint)
	if err != nil {
		return status.StatusInfo{}, errors.Trace(err)
	}
	if len(ids) == 0 {
		return status.NewBlocked("Missing relations: " + c.endpoint), nil
	}

	if result := RunChecks(cfg, c.config.Checks); !result.IsActive() {
		return result, nil
	}

	running, err := c.config.Services.Running(ctx, ISCSIService)
	if err != nil {
		return status.StatusInfo{}, errors.Trace(err)
	}
	if !running {
		return status.NewBlocked("Services not running that should be: " + ISCSIService), nil
	}
	return status.NewActive(readyMessage), nil
}

func (c *Charm) setApplicationVersion(ctx context.Context) {
	version, err := c.config.Packages.PackageVersion(ctx, VersionPackage)
	if errors.Is(err, errors.NotFound) {
		logger.Debugf("%s not installed", VersionPackage)
		return
	} else if err != nil {
		logger.Warningf("reading %s version: %v", VersionPackage, err)
		return
	}
	if err := c.config.Tools.ApplicationVersionSet(ctx, version); err != nil {
		logger.Warningf("setting application version: %v", err)
	}
}

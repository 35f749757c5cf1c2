// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package infinidat

import (
	"context"

	"github.com/juju/errors"

	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/backend"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/charmconfig"
)

func (c *Charm) install(ctx context.Context, cfg *charmconfig.Config) error {
	if err := c.installPackages(ctx, cfg); err != nil {
		return errors.Trace(err)
	}

	running, err := c.config.Services.Running(ctx, ISCSIService)
	if err != nil {
		return errors.Trace(err)
	}
	if !running {
		logger.Infof("starting %s service", ISCSIService)
		if err := c.config.Services.Resume(ctx, ISCSIService); err != nil {
			return errors.Trace(err)
		}
		if err := c.config.Services.Start(ctx, ISCSIService); err != nil {
			return errors.Trace(err)
		}
	}
	return c.updateStatus(ctx, cfg)
}

func (c *Charm) upgradeCharm(ctx context.Context, cfg *charmconfig.Config) error {
	if err := c.installPackages(ctx, cfg); err != nil {
		return errors.Trace(err)
	}
	return c.updateStatus(ctx, cfg)
}

func (c *Charm) configChanged(ctx context.Context, cfg *charmconfig.Config) error {
	if _, err := c.config.Certs.Install(ctx, c.caCertName(), cfg.SSLCA()); errors.Is(err, errors.NotValid) {
		logger.Errorf("invalid %s: %v", charmconfig.SSLCAKey, err)
		return c.setStatus(ctx, status.NewBlocked("invalid '"+charmconfig.SSLCAKey+"': "+err.Error()))
	} else if err != nil {
		return errors.Annotate(err, "installing CA certificate")
	}

	if ok, err := c.validate(ctx, cfg); err != nil || !ok {
		return errors.Trace(err)
	}

	if err := c.publishAll(ctx, cfg); err != nil {
		return errors.Trace(err)
	}

	if err := c.installPackages(ctx, cfg); err != nil {
		logger.Errorf("installing packages: %v", err)
		return c.setStatus(ctx, status.NewBlocked(err.Error()))
	}

	// Once the config has been valid the unit reports blocked rather than
	// waiting when the config later needs attention.
	if err := c.markStarted(ctx); err != nil {
		return errors.Trace(err)
	}
	return c.updateStatus(ctx, cfg)
}

func (c *Charm) storageBackendChanged(ctx context.Context, cfg *charmconfig.Config) error {
	if ok, err := c.validate(ctx, cfg); err != nil || !ok {
		return errors.Trace(err)
	}
	relationID := c.config.Environment.RelationID
	if relationID == "" {
		return c.publishAll(ctx, cfg)
	}
	return c.publish(ctx, cfg, relationID)
}

// publishAll sends the backend configuration over every storage-backend
// relation.
func (c *Charm) publishAll(ctx context.Context, cfg *charmconfig.Config) error {
	ids, err := c.config.Tools.RelationIDs(ctx, c.endpoint)
	if err != nil {
		return errors.Trace(err)
	}
	for _, id := range ids {
		if err := c.publish(ctx, cfg, id); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (c *Charm) publish(ctx context.Context, cfg *charmconfig.Config, relationID string) error {
	data, err := backend.RelationData(cfg, c.appName())
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("publishing backend %q on %s", data[backend.BackendNameKey], relationID)
	return errors.Annotatef(c.config.Tools.RelationSet(ctx, relationID, data), "publishing on %s", relationID)
}

// installPackages configures the package source, when one is set, and
// installs the Infinidat tools.
func (c *Charm) installPackages(ctx context.Context, cfg *charmconfig.Config) error {
	logger.Infof("installing packages")
	// An empty source still goes to AddSource so a previous list is removed.
	source := cfg.InstallSources()
	var codename string
	if source != "" {
		var err error
		if codename, err = c.config.Codename(); err != nil {
			return errors.Annotate(err, "detecting release codename")
		}
	}
	if err := c.config.Packages.AddSource(ctx, source, cfg.InstallKeys(), codename); err != nil {
		return errors.Trace(err)
	}
	if err := c.config.Packages.Update(ctx); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(c.config.Packages.Install(ctx, Packages...))
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package infinidat implements the cinder-infinidat charm: it validates the
// charm config, publishes the InfiniBox backend to cinder and keeps the
// Infinidat tools installed.
package infinidat

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/openstack-charmers/charm-cinder-infinidat/charm"
	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/charmconfig"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/hookenv"
)

var logger = loggo.GetLogger("cinder-infinidat.charm")

const (
	// CinderBackendInterface is the interface of the endpoint cinder
	// joins on.
	CinderBackendInterface = "cinder-backend"

	// ISCSIService must run for cinder to boot instances from volumes.
	ISCSIService = "iscsid"

	// VersionPackage supplies the application version.
	VersionPackage = "python3-infinisdk"

	startedKey = "started"
)

// Packages are installed on install, upgrade-charm and config-changed.
var Packages = []string{"python3-infinisdk", "infinishell"}

// Config holds the dependencies of a Charm.
type Config struct {
	Environment hookenv.Environment

	// Charm is the unpacked charm being run.
	Charm *charm.CharmDir

	Tools    HookTools
	Packages PackageManager
	Services ServiceManager
	Certs    CertInstaller

	// Codename returns the host's release codename.
	Codename func() (string, error)

	// Checks defaults to StatusChecks.
	Checks []StatusCheck
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Environment.ApplicationName == "" {
		return errors.NotValidf("empty ApplicationName")
	}
	if c.Charm == nil || c.Charm.Meta == nil || c.Charm.Config == nil {
		return errors.NotValidf("nil Charm")
	}
	if c.Tools == nil {
		return errors.NotValidf("nil Tools")
	}
	if c.Packages == nil {
		return errors.NotValidf("nil Packages")
	}
	if c.Services == nil {
		return errors.NotValidf("nil Services")
	}
	if c.Certs == nil {
		return errors.NotValidf("nil Certs")
	}
	if c.Codename == nil {
		return errors.NotValidf("nil Codename")
	}
	return nil
}

// Charm handles the hooks and actions of a single dispatch.
type Charm struct {
	config   Config
	endpoint string
	hooks    map[string]func(context.Context, *charmconfig.Config) error
}

// NewCharm returns a Charm for the given config.
func NewCharm(config Config) (*Charm, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Checks == nil {
		config.Checks = StatusChecks
	}
	endpoint, err := config.Charm.Meta.ProvidedEndpoint(CinderBackendInterface)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c := &Charm{config: config, endpoint: endpoint}
	c.hooks = map[string]func(context.Context, *charmconfig.Config) error{
		"install":        c.install,
		"config-changed": c.configChanged,
		"upgrade-charm":  c.upgradeCharm,
		"start":          c.updateStatus,
		"update-status":  c.updateStatus,
		"leader-elected": c.updateStatus,

		endpoint + "-relation-joined":  c.storageBackendChanged,
		endpoint + "-relation-changed": c.storageBackendChanged,
	}
	return c, nil
}

// Dispatch runs the hook or action named in the environment.
func (c *Charm) Dispatch(ctx context.Context) error {
	env := c.config.Environment
	logger.Debugf("dispatching %s", env)

	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if env.Kind == hookenv.KindAction {
		return errors.Annotatef(c.runAction(ctx, env.Name, cfg), "running action %q", env.Name)
	}
	hook, ok := c.hooks[env.Name]
	if !ok {
		logger.Infof("ignoring hook %q", env.Name)
		return nil
	}
	return errors.Annotatef(hook(ctx, cfg), "running hook %q", env.Name)
}

func (c *Charm) loadConfig(ctx context.Context) (*charmconfig.Config, error) {
	attrs, err := c.config.Tools.ConfigGet(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg, err := charmconfig.NewWithDefaults(attrs, c.config.Charm.Config.DefaultSettings())
	return cfg, errors.Trace(err)
}

func (c *Charm) appName() string {
	return c.config.Environment.ApplicationName
}

func (c *Charm) setStatus(ctx context.Context, info status.StatusInfo) error {
	logger.Debugf("setting status %s", info)
	return errors.Trace(c.config.Tools.StatusSet(ctx, info))
}

// validate sets the first failing check as the unit status and reports
// whether the config passed every check.
func (c *Charm) validate(ctx context.Context, cfg *charmconfig.Config) (bool, error) {
	result := RunChecks(cfg, c.config.Checks)
	if result.IsActive() {
		return true, nil
	}
	logger.Errorf("%s", result.Message)
	return false, errors.Trace(c.setStatus(ctx, result))
}

func (c *Charm) started(ctx context.Context) (bool, error) {
	value, ok, err := c.config.Tools.StateGet(ctx, startedKey)
	if err != nil {
		return false, errors.Trace(err)
	}
	return ok && value == "true", nil
}

func (c *Charm) markStarted(ctx context.Context) error {
	return errors.Trace(c.config.Tools.StateSet(ctx, map[string]string{startedKey: "true"}))
}

func (c *Charm) caCertName() string {
	return fmt.Sprintf("juju-%s", c.appName())
}

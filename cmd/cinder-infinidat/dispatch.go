// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/openstack-charmers/charm-cinder-infinidat/charm"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/command"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/hookenv"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/host"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/infinidat"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/packaging"
)

const defaultLoggingConfig = "<root>=INFO"

type dispatchCommand struct {
	cmd.CommandBase

	getenv   func(string) string
	runner   command.Runner
	newDBus  host.DBusAPIFactory
	codename func() (string, error)
	clock    clock.Clock

	loggingConfig string
}

func newDispatchCommand() *dispatchCommand {
	return &dispatchCommand{
		getenv:   os.Getenv,
		runner:   command.NewRunner(),
		newDBus:  host.NewDBusAPI,
		codename: host.Codename,
		clock:    clock.WallClock,
	}
}

// Info implements cmd.Command.
func (c *dispatchCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "cinder-infinidat",
		Purpose: "run a cinder-infinidat hook or action",
		Doc: `
The hook or action is taken from JUJU_DISPATCH_PATH, as set by the unit
agent, falling back to JUJU_HOOK_NAME and JUJU_ACTION_NAME.
`,
	}
}

// SetFlags implements cmd.Command.
func (c *dispatchCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.loggingConfig, "logging-config", defaultLoggingConfig, "logging configuration, e.g. <root>=DEBUG")
}

// Init implements cmd.Command.
func (c *dispatchCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *dispatchCommand) Run(ctx *cmd.Context) error {
	env, err := hookenv.ReadEnvironment(c.getenv)
	if err != nil {
		return errors.Annotate(err, "reading hook environment")
	}

	tools := hookenv.NewTools(c.runner)
	if _, err := loggo.ReplaceDefaultWriter(hookenv.NewLogWriter(tools, ctx.Stderr)); err != nil {
		return errors.Trace(err)
	}
	if err := loggo.ConfigureLoggers(c.loggingConfig); err != nil {
		return errors.Annotate(err, "configuring logging")
	}

	charmPath := env.CharmDir
	if charmPath == "" {
		// The unit agent runs dispatch from the charm directory.
		charmPath = "."
	}
	charmDir, err := charm.ReadCharmDir(charmPath)
	if err != nil {
		return errors.Annotate(err, "reading charm")
	}

	apt, err := packaging.NewApt(packaging.Config{
		Name:   env.ApplicationName,
		Runner: c.runner,
		Clock:  c.clock,
		Proxy:  env.Proxy,
	})
	if err != nil {
		return errors.Trace(err)
	}

	unit, err := infinidat.NewCharm(infinidat.Config{
		Environment: env,
		Charm:       charmDir,
		Tools:       tools,
		Packages:    apt,
		Services:    host.NewServices(c.newDBus),
		Certs:       host.NewCACerts("", c.runner),
		Codename:    c.codename,
	})
	if err != nil {
		return errors.Trace(err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debugf("running %s for %s", env, env.UnitName)
	return errors.Trace(unit.Dispatch(sigCtx))
}

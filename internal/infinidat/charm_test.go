// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package infinidat_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/openstack-charmers/charm-cinder-infinidat/charm"
	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/backend"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/hookenv"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/infinidat"
)

const (
	defaultSource = "deb https://repo.infinidat.com/packages/main-stable/apt/linux-ubuntu {distrib_codename} main"
	relationID    = "storage-backend:1"
)

type baseSuite struct {
	testing.IsolationSuite

	charmDir *charm.CharmDir
	defaults map[string]interface{}
	settings map[string]interface{}

	tools    *fakeTools
	packages *fakePackages
	services *fakeServices
	certs    *fakeCerts
	codename string
}

func (s *baseSuite) SetUpSuite(c *gc.C) {
	s.IsolationSuite.SetUpSuite(c)

	dir, err := charm.ReadCharmDir("../..")
	c.Assert(err, jc.ErrorIsNil)
	s.charmDir = dir
	s.defaults = dir.Config.DefaultSettings()
}

func (s *baseSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	s.settings = make(map[string]interface{})
	s.tools = newFakeTools()
	s.tools.relations = []string{relationID}
	s.packages = &fakePackages{Stub: &testing.Stub{}}
	s.services = &fakeServices{Stub: &testing.Stub{}, running: true}
	s.certs = &fakeCerts{Stub: &testing.Stub{}}
	s.codename = "jammy"
	s.applyConfig()
}

func (s *baseSuite) applyConfig() {
	s.tools.config = make(map[string]interface{})
	for k, v := range s.defaults {
		s.tools.config[k] = v
	}
	for k, v := range s.settings {
		s.tools.config[k] = v
	}
}

func (s *baseSuite) newCharm(c *gc.C, env hookenv.Environment) *infinidat.Charm {
	env.UnitName = "cinder-infinidat/0"
	env.ApplicationName = "cinder-infinidat"
	ch, err := infinidat.NewCharm(infinidat.Config{
		Environment: env,
		Charm:       s.charmDir,
		Tools:       s.tools,
		Packages:    s.packages,
		Services:    s.services,
		Certs:       s.certs,
		Codename:    func() (string, error) { return s.codename, nil },
	})
	c.Assert(err, jc.ErrorIsNil)
	return ch
}

func (s *baseSuite) runHook(c *gc.C, name string) error {
	env := hookenv.Environment{Kind: hookenv.KindHook, Name: name}
	if name == "storage-backend-relation-joined" || name == "storage-backend-relation-changed" {
		env.RelationName = "storage-backend"
		env.RelationID = relationID
	}
	return s.newCharm(c, env).Dispatch(context.Background())
}

func (s *baseSuite) runAction(c *gc.C, name string) error {
	env := hookenv.Environment{Kind: hookenv.KindAction, Name: name}
	return s.newCharm(c, env).Dispatch(context.Background())
}

// updateConfig changes the given options, unsets the named ones and runs
// config-changed, as the unit agent does after juju config.
func (s *baseSuite) updateConfig(c *gc.C, attrs map[string]interface{}, unset ...string) {
	for k, v := range attrs {
		s.settings[k] = v
	}
	for _, k := range unset {
		delete(s.settings, k)
	}
	s.applyConfig()
	c.Assert(s.runHook(c, "config-changed"), jc.ErrorIsNil)
}

func partialConfig() map[string]interface{} {
	return map[string]interface{}{
		"infinibox-ip":       "123.123.123.123",
		"infinibox-login":    "login",
		"infinibox-password": "password",
		"pool-name":          "test",
	}
}

func validConfig() map[string]interface{} {
	cfg := partialConfig()
	cfg["protocol"] = "iscsi"
	cfg["iscsi-netspaces"] = "A,B"
	return cfg
}

type charmSuite struct {
	baseSuite
}

var _ = gc.Suite(&charmSuite{})

func (s *charmSuite) TestConfigValidate(c *gc.C) {
	_, err := infinidat.NewCharm(infinidat.Config{})
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	c.Check(err, gc.ErrorMatches, "empty ApplicationName not valid")

	_, err = infinidat.NewCharm(infinidat.Config{
		Environment: hookenv.Environment{ApplicationName: "cinder-infinidat"},
		Tools:       s.tools,
	})
	c.Check(err, gc.ErrorMatches, "nil Charm not valid")

	_, err = infinidat.NewCharm(infinidat.Config{
		Environment: hookenv.Environment{ApplicationName: "cinder-infinidat"},
		Charm:       s.charmDir,
		Tools:       s.tools,
		Packages:    s.packages,
		Services:    s.services,
		Certs:       s.certs,
	})
	c.Check(err, gc.ErrorMatches, "nil Codename not valid")
}

func (s *charmSuite) TestEndpointFromMetadata(c *gc.C) {
	meta := *s.charmDir.Meta
	meta.Provides = map[string]charm.Relation{
		"block-backend": {Interface: infinidat.CinderBackendInterface, Scope: charm.ScopeContainer},
	}
	dir := &charm.CharmDir{Meta: &meta, Config: s.charmDir.Config}
	s.settings = validConfig()
	s.applyConfig()

	ch, err := infinidat.NewCharm(infinidat.Config{
		Environment: hookenv.Environment{
			ApplicationName: "cinder-infinidat",
			Kind:            hookenv.KindHook,
			Name:            "block-backend-relation-joined",
			RelationName:    "block-backend",
			RelationID:      "block-backend:7",
		},
		Charm:    dir,
		Tools:    s.tools,
		Packages: s.packages,
		Services: s.services,
		Certs:    s.certs,
		Codename: func() (string, error) { return s.codename, nil },
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ch.Dispatch(context.Background()), jc.ErrorIsNil)
	c.Check(s.tools.relationData["block-backend:7"], gc.NotNil)

	meta.Provides = nil
	_, err = infinidat.NewCharm(infinidat.Config{
		Environment: hookenv.Environment{ApplicationName: "cinder-infinidat"},
		Charm:       dir,
		Tools:       s.tools,
		Packages:    s.packages,
		Services:    s.services,
		Certs:       s.certs,
		Codename:    func() (string, error) { return s.codename, nil },
	})
	c.Assert(err, jc.ErrorIs, errors.NotFound)
}

func (s *charmSuite) TestMissingOptionsTakeCharmDefaults(c *gc.C) {
	// config-get output without install_sources or install_keys.
	s.tools.config = validConfig()
	c.Assert(s.runHook(c, "config-changed"), jc.ErrorIsNil)
	s.packages.CheckCall(c, 0, "AddSource", defaultSource, "", "jammy")
}

func (s *charmSuite) TestEmptyConfigBlocks(c *gc.C) {
	s.updateConfig(c, nil)

	c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked(
		"missing option(s): infinibox-ip,infinibox-login,infinibox-password,pool-name"))
	c.Check(s.tools.relationData, gc.HasLen, 0)
	s.packages.CheckNoCalls(c)
	c.Check(s.tools.state, gc.HasLen, 0)
}

func (s *charmSuite) TestProtocolValidation(c *gc.C) {
	cfg := partialConfig()
	cfg["protocol"] = "not_fc_or_iscsi"
	s.updateConfig(c, cfg)
	c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked("valid values for 'protocol' are fc,iscsi"))

	s.updateConfig(c, map[string]interface{}{"protocol": "iscsi"})
	c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked(
		"'iscsi-netspaces' must be set when using 'iscsi' protocol"))

	s.updateConfig(c, map[string]interface{}{"iscsi-netspaces": "A,B"})
	c.Check(s.tools.status, jc.DeepEquals, status.NewActive("Unit is ready"))

	s.updateConfig(c, map[string]interface{}{"protocol": "fc"}, "iscsi-netspaces")
	c.Check(s.tools.status, jc.DeepEquals, status.NewActive("Unit is ready"))
}

func (s *charmSuite) TestProtocolCaseIgnored(c *gc.C) {
	cfg := validConfig()
	cfg["protocol"] = "iSCSI"
	s.updateConfig(c, cfg)
	c.Check(s.tools.status, jc.DeepEquals, status.NewActive("Unit is ready"))
}

func (s *charmSuite) TestMandatoryConfigParams(c *gc.C) {
	cfg := validConfig()
	s.updateConfig(c, cfg)
	c.Assert(s.tools.status, jc.DeepEquals, status.NewActive("Unit is ready"))

	for _, p := range infinidat.MandatoryConfig {
		s.updateConfig(c, nil, p)
		if _, hasDefault := s.defaults[p]; !hasDefault {
			c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked("missing option(s): "+p),
				gc.Commentf("unset %s", p))
		}

		s.updateConfig(c, cfg)
		c.Check(s.tools.status, jc.DeepEquals, status.NewActive("Unit is ready"),
			gc.Commentf("reset %s", p))
	}
}

func (s *charmSuite) TestEmptyStringIsUnset(c *gc.C) {
	cfg := validConfig()
	cfg["pool-name"] = ""
	s.updateConfig(c, cfg)
	c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked("missing option(s): pool-name"))
}

func (s *charmSuite) TestConfigChangedPublishes(c *gc.C) {
	s.tools.relations = []string{"storage-backend:1", "storage-backend:7"}
	s.updateConfig(c, validConfig())

	c.Assert(s.tools.relationData, gc.HasLen, 2)
	for _, id := range s.tools.relations {
		data := s.tools.relationData[id]
		c.Check(data[backend.BackendNameKey], gc.Equals, "cinder-infinidat")
		c.Check(data[backend.StatelessKey], gc.Equals, "True")
		c.Check(data[backend.ActiveActiveKey], gc.Equals, "True")
		c.Check(data[backend.SubordinateConfigurationKey], gc.Matches,
			`\{"cinder":\{"/etc/cinder/cinder.conf":\{"sections":\{"cinder-infinidat":\[\["volume_driver",.*`)
	}
	c.Check(s.tools.state, jc.DeepEquals, map[string]string{"started": "true"})
}

func (s *charmSuite) TestBackendNameOverride(c *gc.C) {
	cfg := validConfig()
	cfg["volume-backend-name"] = "overridden"
	s.updateConfig(c, cfg)

	data := s.tools.relationData[relationID]
	c.Check(data[backend.BackendNameKey], gc.Equals, "overridden")
	c.Check(data[backend.SubordinateConfigurationKey], jc.Contains, `["volume_backend_name","overridden"]`)
}

func (s *charmSuite) TestRepoManagement(c *gc.C) {
	cfg := validConfig()
	for _, codename := range []string{"focal", "jammy", "noble"} {
		static := "deb https://repo.infinidat.com/packages/main-stable/apt/linux-ubuntu " + codename + " main"
		for _, source := range []string{defaultSource, static} {
			s.packages.ResetCalls()
			s.codename = codename
			cfg["install_sources"] = source
			cfg["install_keys"] = "0xA1B2C3D4"
			s.updateConfig(c, cfg)

			s.packages.CheckCallNames(c, "AddSource", "Update", "Install", "PackageVersion")
			s.packages.CheckCall(c, 0, "AddSource", source, "0xA1B2C3D4", codename)
			s.packages.CheckCall(c, 2, "Install", []string{"python3-infinisdk", "infinishell"})
		}
	}
}

func (s *charmSuite) TestClearedSourceIsPassedOn(c *gc.C) {
	cfg := validConfig()
	cfg["install_sources"] = ""
	s.updateConfig(c, cfg)
	s.packages.CheckCallNames(c, "AddSource", "Update", "Install", "PackageVersion")
	s.packages.CheckCall(c, 0, "AddSource", "", "", "")
}

func (s *charmSuite) TestCodenameError(c *gc.C) {
	ch, err := infinidat.NewCharm(infinidat.Config{
		Environment: hookenv.Environment{
			ApplicationName: "cinder-infinidat",
			Kind:            hookenv.KindHook,
			Name:            "install",
		},
		Charm:    s.charmDir,
		Tools:    s.tools,
		Packages: s.packages,
		Services: s.services,
		Certs:    s.certs,
		Codename: func() (string, error) { return "", errors.NotFoundf("release codename") },
	})
	c.Assert(err, jc.ErrorIsNil)
	err = ch.Dispatch(context.Background())
	c.Assert(err, gc.ErrorMatches, `running hook "install": detecting release codename: release codename not found`)
}

func (s *charmSuite) TestInstallFailureBlocks(c *gc.C) {
	s.packages.installErr = errors.New("apt-get install: apt-get install exited 100")
	s.updateConfig(c, validConfig())

	c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked("apt-get install: apt-get install exited 100"))
	c.Check(s.tools.state, gc.HasLen, 0)
}

func (s *charmSuite) TestInvalidCACertBlocks(c *gc.C) {
	s.certs.err = errors.NotValidf("CA certificate")
	s.updateConfig(c, validConfig())

	c.Check(s.tools.status, jc.DeepEquals, status.NewBlocked(
		"invalid 'infinibox-ssl-ca': CA certificate not valid"))
	c.Check(s.tools.relationData, gc.HasLen, 0)
}

func (s *charmSuite) TestCACertInstalled(c *gc.C) {
	cfg := validConfig()
	cfg["infinibox-ssl-ca"] = "LS0tLS1CRUdJTg=="
	s.updateConfig(c, cfg)
	s.certs.CheckCall(c, 0, "Install", "juju-cinder-infinidat", "LS0tLS1CRUdJTg==")
}

func (s *charmSuite) TestInstall(c *gc.C) {
	s.services.running = false
	c.Assert(s.runHook(c, "install"), jc.ErrorIsNil)

	s.packages.CheckCallNames(c, "AddSource", "Update", "Install", "PackageVersion")
	s.packages.CheckCall(c, 0, "AddSource", defaultSource, "", "jammy")
	s.services.CheckCallNames(c, "Running", "Resume", "Start")
	s.services.CheckCall(c, 1, "Resume", "iscsid")
	s.services.CheckCall(c, 2, "Start", "iscsid")
	c.Check(s.tools.status, jc.DeepEquals, status.NewWaiting("Charm configuration in progress"))
}

func (s *charmSuite) TestInstallISCSIDRunning(c *gc.C) {
	c.Assert(s.runHook(c, "install"), jc.ErrorIsNil)
	s.services.CheckCallNames(c, "Running")
}

func (s *charmSuite) TestInstallPackageErrorFailsHook(c *gc.C) {
	s.packages.installErr = errors.New("boom")
	err := s.runHook(c, "install")
	c.Assert(err, gc.ErrorMatches, `running hook "install": boom`)
	s.services.CheckNoCalls(c)
}

func (s *charmSuite) TestUpgradeCharm(c *gc.C) {
	c.Assert(s.runHook(c, "upgrade-charm"), jc.ErrorIsNil)
	s.packages.CheckCallNames(c, "AddSource", "Update", "Install", "PackageVersion")
}

func (s *charmSuite) TestApplicationVersion(c *gc.C) {
	s.packages.version = "225.1.1"
	s.updateConfig(c, validConfig())
	c.Check(s.tools.version, gc.Equals, "225.1.1")
}

func (s *charmSuite) TestUnknownHookIgnored(c *gc.C) {
	c.Assert(s.runHook(c, "juju-info-relation-joined"), jc.ErrorIsNil)
	s.tools.CheckCallNames(c, "ConfigGet")
	s.packages.CheckNoCalls(c)
}

func (s *charmSuite) TestConfigTypeError(c *gc.C) {
	s.tools.config["use-chap"] = []string{"yes"}
	err := s.runHook(c, "update-status")
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

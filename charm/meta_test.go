// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm_test

import (
	"os"
	"strings"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/openstack-charmers/charm-cinder-infinidat/charm"
)

type MetaSuite struct{}

var _ = gc.Suite(&MetaSuite{})

func (s *MetaSuite) TestReadRepositoryMeta(c *gc.C) {
	f, err := os.Open("../metadata.yaml")
	c.Assert(err, jc.ErrorIsNil)
	defer f.Close()

	meta, err := charm.ReadMeta(f)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(meta.Name, gc.Equals, "cinder-infinidat")
	c.Check(meta.Subordinate, jc.IsTrue)
	c.Check(meta.Provides, jc.DeepEquals, map[string]charm.Relation{
		"storage-backend": {
			Interface: "cinder-backend",
			Scope:     charm.ScopeContainer,
		},
	})
	c.Check(meta.Requires, jc.DeepEquals, map[string]charm.Relation{
		"juju-info": {
			Interface: "juju-info",
			Scope:     charm.ScopeContainer,
			Limit:     1,
		},
	})
	c.Check(meta.Series, jc.DeepEquals, []string{"focal", "jammy"})
}

func (s *MetaSuite) TestShorthandInterface(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(`
name: dummy
summary: That's a dummy charm.
description: |
  This is a longer description.
provides:
  server: riak
peers:
  ring: riak-ring
`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(meta.Subordinate, jc.IsFalse)
	c.Check(meta.Provides["server"], jc.DeepEquals, charm.Relation{
		Interface: "riak",
		Scope:     charm.ScopeGlobal,
	})
	c.Check(meta.Peers["ring"], jc.DeepEquals, charm.Relation{
		Interface: "riak-ring",
		Scope:     charm.ScopeGlobal,
		Limit:     1,
	})
}

func (s *MetaSuite) TestSubordinateWithoutContainerRelation(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(`
name: logging
summary: A subordinate.
description: Logs things.
subordinate: true
requires:
  info: juju-info
`))
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	c.Assert(err, gc.ErrorMatches, `subordinate charm "logging" without a container scoped requirement not valid`)
}

func (s *MetaSuite) TestMissingName(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader("summary: x\ndescription: y\n"))
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	c.Assert(err, gc.ErrorMatches, `metadata without name not valid`)
}

func (s *MetaSuite) TestFullRelationForm(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(`
name: dummy
requires:
  db:
    interface: mysql
    limit: 3
    optional: true
  cache:
    interface: memcache
    limit:
`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(meta.Requires, jc.DeepEquals, map[string]charm.Relation{
		"db":    {Interface: "mysql", Limit: 3, Optional: true, Scope: charm.ScopeGlobal},
		"cache": {Interface: "memcache", Limit: 1, Scope: charm.ScopeGlobal},
	})
}

func (s *MetaSuite) TestInvalidRelation(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader(`
name: dummy
provides:
  server:
    interface: http
    scope: machine
`))
	c.Assert(err, gc.ErrorMatches, `relation "server": scope "machine" not valid`)

	_, err = charm.ReadMeta(strings.NewReader(`
name: dummy
provides:
  server:
    limit: 2
`))
	c.Assert(err, gc.ErrorMatches, `relation "server": relation without interface not valid`)
}

func (s *MetaSuite) TestProvidedEndpoint(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(`
name: dummy
provides:
  website: http
  backend-b: cinder-backend
  backend-a: cinder-backend
`))
	c.Assert(err, jc.ErrorIsNil)
	name, err := meta.ProvidedEndpoint("cinder-backend")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(name, gc.Equals, "backend-a")

	_, err = meta.ProvidedEndpoint("mysql")
	c.Assert(err, jc.ErrorIs, errors.NotFound)
}

func (s *MetaSuite) TestReadCharmDir(c *gc.C) {
	dir, err := charm.ReadCharmDir("..")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(dir.Meta.Name, gc.Equals, "cinder-infinidat")
	c.Check(dir.Config.Options["protocol"].Default, gc.Equals, "iscsi")

	_, err = charm.ReadCharmDir(c.MkDir())
	c.Assert(err, gc.ErrorMatches, `open .*metadata.yaml: no such file or directory`)
}

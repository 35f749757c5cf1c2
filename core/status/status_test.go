// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status_test

import (
	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
)

type statusSuite struct{}

var _ = gc.Suite(&statusSuite{})

func (s *statusSuite) TestValidWorkloadStatus(c *gc.C) {
	for _, st := range []status.Status{
		status.Active, status.Blocked, status.Waiting, status.Maintenance, status.Unknown,
	} {
		c.Check(status.ValidWorkloadStatus(st), jc.IsTrue, gc.Commentf("%s", st))
	}
	c.Check(status.ValidWorkloadStatus("error"), jc.IsFalse)
	c.Check(status.ValidWorkloadStatus(""), jc.IsFalse)
}

func (s *statusSuite) TestIsActive(c *gc.C) {
	c.Check(status.NewActive("Unit is ready").IsActive(), jc.IsTrue)
	c.Check(status.NewBlocked("nope").IsActive(), jc.IsFalse)
	c.Check(status.NewWaiting("").IsActive(), jc.IsFalse)
	c.Check(status.NewMaintenance("").IsActive(), jc.IsFalse)
}

func (s *statusSuite) TestValidate(c *gc.C) {
	c.Assert(status.NewBlocked("x").Validate(), jc.ErrorIsNil)
	err := status.StatusInfo{Status: "bogus"}.Validate()
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	c.Assert(err, gc.ErrorMatches, `workload status "bogus" not valid`)
}

func (s *statusSuite) TestString(c *gc.C) {
	c.Check(status.NewActive("").String(), gc.Equals, "active")
	c.Check(status.NewBlocked("missing option(s): pool-name").String(), gc.Equals, "blocked: missing option(s): pool-name")
}

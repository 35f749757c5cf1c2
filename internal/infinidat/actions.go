// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package infinidat

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"github.com/openstack-charmers/charm-cinder-infinidat/internal/backend"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/charmconfig"
)

// ShowConfigAction renders the backend section cinder receives.
const ShowConfigAction = "show-config"

func (c *Charm) runAction(ctx context.Context, name string, cfg *charmconfig.Config) error {
	switch name {
	case ShowConfigAction:
		return c.showConfig(ctx, cfg)
	}
	return errors.Trace(c.config.Tools.ActionFail(ctx, fmt.Sprintf("unknown action %q", name)))
}

func (c *Charm) showConfig(ctx context.Context, cfg *charmconfig.Config) error {
	params, err := c.config.Tools.ActionGet(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	redact := true
	if v, ok := params["redact"].(bool); ok {
		redact = v
	}

	backendName := cfg.VolumeBackendName(c.appName())
	rendered, err := backend.RenderINI(backendName, backend.Configuration(cfg, c.appName()), redact)
	if err != nil {
		return errors.Trace(c.config.Tools.ActionFail(ctx, err.Error()))
	}
	return errors.Trace(c.config.Tools.ActionSet(ctx, map[string]string{"config": rendered}))
}

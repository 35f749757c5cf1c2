// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"gopkg.in/yaml.v2"

	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
	"github.com/openstack-charmers/charm-cinder-infinidat/internal/command"
)

// Tools calls the hook tools the unit agent places on PATH for the
// duration of a hook or action.
type Tools struct {
	runner command.Runner
}

// NewTools returns a Tools that runs hook tools with the given runner.
func NewTools(runner command.Runner) *Tools {
	return &Tools{runner: runner}
}

func (t *Tools) run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	res, err := t.runner.Run(ctx, command.Params{
		Name:  name,
		Args:  args,
		Stdin: stdin,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "running %s", name)
	}
	return res.Stdout, nil
}

func (t *Tools) runJSON(ctx context.Context, out interface{}, name string, args ...string) error {
	stdout, err := t.run(ctx, nil, name, append([]string{"--format", "json"}, args...)...)
	if err != nil {
		return errors.Trace(err)
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return errors.Annotatef(err, "parsing %s output", name)
	}
	return nil
}

// ConfigGet returns the charm config. Options without a value and
// without a default are absent from the result.
func (t *Tools) ConfigGet(ctx context.Context) (map[string]interface{}, error) {
	var attrs map[string]interface{}
	if err := t.runJSON(ctx, &attrs, "config-get"); err != nil {
		return nil, errors.Trace(err)
	}
	if attrs == nil {
		attrs = make(map[string]interface{})
	}
	return attrs, nil
}

// StatusSet sets the workload status of the unit.
func (t *Tools) StatusSet(ctx context.Context, info status.StatusInfo) error {
	if err := info.Validate(); err != nil {
		return errors.Trace(err)
	}
	_, err := t.run(ctx, nil, "status-set", info.Status.String(), info.Message)
	return errors.Trace(err)
}

// ApplicationVersionSet records the workload version.
func (t *Tools) ApplicationVersionSet(ctx context.Context, version string) error {
	_, err := t.run(ctx, nil, "application-version-set", version)
	return errors.Trace(err)
}

// Log writes a message to the unit's log in the controller.
func (t *Tools) Log(ctx context.Context, level loggo.Level, message string) error {
	_, err := t.run(ctx, nil, "juju-log", "-l", level.String(), "--", message)
	return errors.Trace(err)
}

// RelationIDs returns the ids of all relations established on the named
// endpoint, e.g. "storage-backend:12".
func (t *Tools) RelationIDs(ctx context.Context, endpoint string) ([]string, error) {
	var ids []string
	if err := t.runJSON(ctx, &ids, "relation-ids", endpoint); err != nil {
		return nil, errors.Trace(err)
	}
	return ids, nil
}

// RelationSet writes settings into the local unit's databag of the given
// relation. The settings are passed as YAML on stdin so values may hold
// arbitrary text.
func (t *Tools) RelationSet(ctx context.Context, relationID string, settings map[string]string) error {
	data, err := marshalSettings(settings)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = t.run(ctx, data, "relation-set", "-r", relationID, "--file", "-")
	return errors.Trace(err)
}

// StateGet returns the value stored under key in the unit's state, and
// whether it was found.
func (t *Tools) StateGet(ctx context.Context, key string) (string, bool, error) {
	var values map[string]string
	if err := t.runJSON(ctx, &values, "state-get"); err != nil {
		return "", false, errors.Trace(err)
	}
	value, ok := values[key]
	return value, ok, nil
}

// StateSet stores the given values in the unit's state.
func (t *Tools) StateSet(ctx context.Context, values map[string]string) error {
	data, err := marshalSettings(values)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = t.run(ctx, data, "state-set", "--file", "-")
	return errors.Trace(err)
}

// ActionGet returns the parameters of the running action.
func (t *Tools) ActionGet(ctx context.Context) (map[string]interface{}, error) {
	var params map[string]interface{}
	if err := t.runJSON(ctx, &params, "action-get"); err != nil {
		return nil, errors.Trace(err)
	}
	if params == nil {
		params = make(map[string]interface{})
	}
	return params, nil
}

// ActionSet records results for the running action.
func (t *Tools) ActionSet(ctx context.Context, results map[string]string) error {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, k+"="+results[k])
	}
	_, err := t.run(ctx, nil, "action-set", args...)
	return errors.Trace(err)
}

// ActionFail marks the running action as failed.
func (t *Tools) ActionFail(ctx context.Context, message string) error {
	_, err := t.run(ctx, nil, "action-fail", message)
	return errors.Trace(err)
}

func marshalSettings(settings map[string]string) ([]byte, error) {
	if settings == nil {
		settings = map[string]string{}
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, errors.Annotate(err, "marshalling settings")
	}
	return data, nil
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package infinidat

import (
	"context"

	"github.com/openstack-charmers/charm-cinder-infinidat/core/status"
)

// HookTools is the part of the unit agent's hook tools the charm uses.
type HookTools interface {
	ConfigGet(ctx context.Context) (map[string]interface{}, error)
	StatusSet(ctx context.Context, info status.StatusInfo) error
	ApplicationVersionSet(ctx context.Context, version string) error
	RelationIDs(ctx context.Context, endpoint string) ([]string, error)
	RelationSet(ctx context.Context, relationID string, settings map[string]string) error
	StateGet(ctx context.Context, key string) (string, bool, error)
	StateSet(ctx context.Context, values map[string]string) error
	ActionGet(ctx context.Context) (map[string]interface{}, error)
	ActionSet(ctx context.Context, results map[string]string) error
	ActionFail(ctx context.Context, message string) error
}

// PackageManager configures apt and installs packages.
type PackageManager interface {
	AddSource(ctx context.Context, source, key, codename string) error
	Update(ctx context.Context) error
	Install(ctx context.Context, pkgs ...string) error
	PackageVersion(ctx context.Context, pkg string) (string, error)
}

// ServiceManager controls system services.
type ServiceManager interface {
	Running(ctx context.Context, name string) (bool, error)
	Resume(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
}

// CertInstaller adds CA certificates to the system trust store.
type CertInstaller interface {
	Install(ctx context.Context, name, cert string) (bool, error)
}

// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"path"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"github.com/juju/proxy"
)

// Environment variables set by the unit agent for every hook and action.
const (
	EnvUnitName     = "JUJU_UNIT_NAME"
	EnvModelName    = "JUJU_MODEL_NAME"
	EnvCharmDir     = "JUJU_CHARM_DIR"
	EnvDispatchPath = "JUJU_DISPATCH_PATH"
	EnvHookName     = "JUJU_HOOK_NAME"
	EnvActionName   = "JUJU_ACTION_NAME"
	EnvRelation     = "JUJU_RELATION"
	EnvRelationID   = "JUJU_RELATION_ID"
	EnvRemoteUnit   = "JUJU_REMOTE_UNIT"

	EnvCharmHTTPProxy  = "JUJU_CHARM_HTTP_PROXY"
	EnvCharmHTTPSProxy = "JUJU_CHARM_HTTPS_PROXY"
	EnvCharmFTPProxy   = "JUJU_CHARM_FTP_PROXY"
	EnvCharmNoProxy    = "JUJU_CHARM_NO_PROXY"
)

// Kind distinguishes hooks from actions.
type Kind string

const (
	KindHook   Kind = "hook"
	KindAction Kind = "action"
)

// Environment describes the context the charm binary was invoked in.
type Environment struct {
	UnitName        string
	ApplicationName string
	ModelName       string
	CharmDir        string

	// Kind and Name identify the hook or action being dispatched.
	Kind Kind
	Name string

	// RelationName, RelationID and RemoteUnit are only set for
	// relation hooks.
	RelationName string
	RelationID   string
	RemoteUnit   string

	// Proxy holds the model proxy settings for charm traffic.
	Proxy proxy.Settings
}

// ReadEnvironment builds an Environment from the given lookup function,
// usually os.Getenv.
func ReadEnvironment(getenv func(string) string) (Environment, error) {
	unitName := getenv(EnvUnitName)
	if unitName == "" {
		return Environment{}, errors.NotFoundf("%s", EnvUnitName)
	}
	if !names.IsValidUnit(unitName) {
		return Environment{}, errors.NotValidf("unit name %q", unitName)
	}
	appName, err := names.UnitApplication(unitName)
	if err != nil {
		return Environment{}, errors.Trace(err)
	}

	kind, name, err := handler(getenv)
	if err != nil {
		return Environment{}, errors.Trace(err)
	}

	return Environment{
		UnitName:        unitName,
		ApplicationName: appName,
		ModelName:       getenv(EnvModelName),
		CharmDir:        getenv(EnvCharmDir),
		Kind:            kind,
		Name:            name,
		RelationName:    getenv(EnvRelation),
		RelationID:      getenv(EnvRelationID),
		RemoteUnit:      getenv(EnvRemoteUnit),
		Proxy: proxy.Settings{
			Http:    getenv(EnvCharmHTTPProxy),
			Https:   getenv(EnvCharmHTTPSProxy),
			Ftp:     getenv(EnvCharmFTPProxy),
			NoProxy: getenv(EnvCharmNoProxy),
		},
	}, nil
}

// handler works out what is being dispatched. JUJU_DISPATCH_PATH is
// preferred ("hooks/install", "actions/show-config"); older agents only
// set JUJU_HOOK_NAME or JUJU_ACTION_NAME.
func handler(getenv func(string) string) (Kind, string, error) {
	if dispatch := getenv(EnvDispatchPath); dispatch != "" {
		dir, name := path.Split(path.Clean(dispatch))
		switch strings.TrimSuffix(dir, "/") {
		case "hooks":
			return KindHook, name, nil
		case "actions":
			return KindAction, name, nil
		}
		return "", "", errors.NotValidf("dispatch path %q", dispatch)
	}
	if name := getenv(EnvActionName); name != "" {
		return KindAction, name, nil
	}
	if name := getenv(EnvHookName); name != "" {
		return KindHook, name, nil
	}
	return "", "", errors.NotFoundf("hook or action name")
}

// String returns a human readable description, e.g. "hook config-changed".
func (e Environment) String() string {
	return string(e.Kind) + " " + e.Name
}

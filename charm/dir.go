// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// CharmDir is an unpacked charm, as found in JUJU_CHARM_DIR.
type CharmDir struct {
	Path   string
	Meta   *Meta
	Config *Config
}

// ReadCharmDir reads metadata.yaml and config.yaml from path.
func ReadCharmDir(path string) (*CharmDir, error) {
	dir := &CharmDir{Path: path}
	f, err := os.Open(filepath.Join(path, "metadata.yaml"))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	if dir.Meta, err = ReadMeta(f); err != nil {
		return nil, errors.Annotatef(err, "reading %s", f.Name())
	}

	cf, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cf.Close()
	if dir.Config, err = ReadConfig(cf); err != nil {
		return nil, errors.Annotatef(err, "reading %s", cf.Name())
	}
	return dir, nil
}

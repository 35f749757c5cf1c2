// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"

	"github.com/openstack-charmers/charm-cinder-infinidat/internal/command"
)

// ExpandSource replaces the {distrib_codename} and $codename placeholders
// in source with the lower-cased codename.
func ExpandSource(source, codename string) string {
	codename = strings.ToLower(codename)
	return strings.NewReplacer(
		"{distrib_codename}", codename,
		"$codename", codename,
	).Replace(source)
}

// AddSource configures apt to use source, trusting key. The source may be
// a deb line, an archive URL, or a ppa: or cloud-archive: reference. Only
// deb lines and URLs are kept in the charm's own source list; any other
// source, including an empty one, removes that list.
func (a *Apt) AddSource(ctx context.Context, source, key, codename string) error {
	source = strings.TrimSpace(ExpandSource(source, codename))
	if source == "" {
		return errors.Trace(a.removeSourceList())
	}

	var err error
	switch {
	case strings.HasPrefix(source, "deb ") || strings.HasPrefix(source, "deb-src "):
		err = a.writeSourceList(source)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		err = a.writeSourceList(fmt.Sprintf("deb %s %s main", source, strings.ToLower(codename)))
	case strings.HasPrefix(source, "ppa:") || strings.HasPrefix(source, "cloud-archive:"):
		if err = a.addRepository(ctx, source); err == nil {
			err = a.removeSourceList()
		}
	default:
		return errors.NotValidf("source %q", source)
	}
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(a.AddKey(ctx, key), "adding key")
}

func (a *Apt) writeSourceList(line string) error {
	path := a.sourcePath()
	changed, err := writeIfChanged(path, []byte(line+"\n"), 0644)
	if err != nil {
		return errors.Annotatef(err, "writing %s", path)
	}
	if changed {
		logger.Infof("wrote apt source %q to %s", line, path)
	}
	return nil
}

func (a *Apt) removeSourceList() error {
	path := a.sourcePath()
	err := os.Remove(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return errors.Annotatef(err, "removing %s", path)
	}
	logger.Infof("removed apt source %s", path)
	return nil
}

func (a *Apt) addRepository(ctx context.Context, source string) error {
	params := command.Params{
		Name: "add-apt-repository",
		Args: []string{"--yes", source},
		Env:  a.env(),
	}
	logger.Infof("running %s", params)
	if _, err := a.config.Runner.Run(ctx, params); err != nil {
		return errors.Annotatef(err, "adding repository %q", source)
	}
	return nil
}

// writeIfChanged atomically replaces path with data unless it already
// holds exactly data.
func writeIfChanged(path string, data []byte, perm os.FileMode) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, errors.Trace(err)
	}
	if err := utils.AtomicWriteFile(path, data, perm); err != nil {
		return false, errors.Trace(err)
	}
	return true, nil
}

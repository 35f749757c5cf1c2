// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package host inspects and configures the machine the unit runs on.
package host

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
)

const (
	// LSBReleaseFile is the primary source of the series codename.
	LSBReleaseFile = "/etc/lsb-release"

	// OSReleaseFile is consulted when lsb-release has no codename.
	OSReleaseFile = "/etc/os-release"
)

// Codename returns the lower-cased release codename of the host, such as
// "jammy".
func Codename() (string, error) {
	return ReadCodename(LSBReleaseFile, OSReleaseFile)
}

// ReadCodename reads DISTRIB_CODENAME from lsbRelease, falling back to
// VERSION_CODENAME and then UBUNTU_CODENAME from osRelease.
func ReadCodename(lsbRelease, osRelease string) (string, error) {
	if codename, err := readKey(lsbRelease, "DISTRIB_CODENAME"); err != nil {
		return "", errors.Trace(err)
	} else if codename != "" {
		return codename, nil
	}
	for _, key := range []string{"VERSION_CODENAME", "UBUNTU_CODENAME"} {
		codename, err := readKey(osRelease, key)
		if err != nil {
			return "", errors.Trace(err)
		}
		if codename != "" {
			return codename, nil
		}
	}
	return "", errors.NotFoundf("release codename in %s or %s", lsbRelease, osRelease)
}

// readKey returns the lower-cased value of key in the env-style file at
// path. A missing file reads as empty.
func readKey(path, key string) (string, error) {
	values, err := godotenv.Read(path)
	if os.IsNotExist(errors.Cause(err)) {
		return "", nil
	}
	if err != nil {
		return "", errors.Annotatef(err, "reading %s", path)
	}
	return strings.ToLower(strings.TrimSpace(values[key])), nil
}

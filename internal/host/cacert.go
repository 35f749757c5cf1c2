// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package host

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"

	"github.com/openstack-charmers/charm-cinder-infinidat/internal/command"
)

// DefaultCACertDir is where update-ca-certificates picks up local CAs.
const DefaultCACertDir = "/usr/local/share/ca-certificates"

// CACerts installs CA certificates into the system trust store.
type CACerts struct {
	dir    string
	runner command.Runner
}

// NewCACerts returns a CACerts writing into dir, or DefaultCACertDir
// when dir is empty.
func NewCACerts(dir string, runner command.Runner) *CACerts {
	if dir == "" {
		dir = DefaultCACertDir
	}
	return &CACerts{dir: dir, runner: runner}
}

// Install writes cert as <name>.crt and refreshes the trust store. The
// cert is PEM, or base64 encoded PEM. An empty cert does nothing, as does
// a cert that is already installed. Install reports whether the trust
// store changed; when the refresh fails the previous file is restored.
func (c *CACerts) Install(ctx context.Context, name, cert string) (bool, error) {
	cert = strings.TrimSpace(cert)
	if cert == "" {
		return false, nil
	}
	data, err := decodeCACert(cert)
	if err != nil {
		return false, errors.Trace(err)
	}

	path := filepath.Join(c.dir, name+".crt")
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, errors.Annotatef(err, "reading %s", path)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return false, errors.Trace(err)
	}
	if err := utils.AtomicWriteFile(path, data, 0644); err != nil {
		return false, errors.Annotatef(err, "writing %s", path)
	}
	logger.Infof("installed CA certificate %s", path)

	if _, err := c.runner.Run(ctx, command.Params{
		Name: "update-ca-certificates",
		Args: []string{"--fresh"},
	}); err != nil {
		// Put back what was there so a retry sees the cert as new.
		if rerr := restoreFile(path, existing); rerr != nil {
			logger.Errorf("restoring %s: %v", path, rerr)
		}
		return false, errors.Annotate(err, "updating CA certificates")
	}
	return true, nil
}

// restoreFile writes previous to path, or removes path when previous is
// nil.
func restoreFile(path string, previous []byte) error {
	if previous == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Trace(err)
		}
		return nil
	}
	return errors.Trace(utils.AtomicWriteFile(path, previous, 0644))
}

// decodeCACert returns the PEM encoding of cert, decoding base64 first
// when cert is not already PEM.
func decodeCACert(cert string) ([]byte, error) {
	data := []byte(cert)
	if !strings.HasPrefix(cert, "-----BEGIN") {
		decoded, err := base64.StdEncoding.DecodeString(cert)
		if err != nil {
			return nil, errors.NewNotValid(err, "CA certificate is neither PEM nor base64")
		}
		data = bytes.TrimSpace(decoded)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.NotValidf("CA certificate without a PEM certificate block")
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return nil, errors.NewNotValid(err, "parsing CA certificate")
	}
	return append(data, '\n'), nil
}

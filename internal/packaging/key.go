// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

const armoredKeyHeader = "-----BEGIN PGP PUBLIC KEY BLOCK-----"

// keyIDPattern matches short, long and fingerprint key ids.
var keyIDPattern = regexp.MustCompile(`^(0x)?([0-9a-fA-F]{8}|[0-9a-fA-F]{16}|[0-9a-fA-F]{40})$`)

// AddKey installs key into apt's trusted keyrings. The key is either an
// ASCII armored public key or a key id looked up on the key server. An
// empty key does nothing.
func (a *Apt) AddKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	var armored []byte
	switch {
	case key == "":
		return nil
	case strings.Contains(key, armoredKeyHeader):
		armored = []byte(key)
	case keyIDPattern.MatchString(key):
		var err error
		if armored, err = a.fetchKey(ctx, strings.TrimPrefix(key, "0x")); err != nil {
			return errors.Trace(err)
		}
	default:
		return errors.NotValidf("key %q", key)
	}

	keyring, err := dearmor(armored)
	if err != nil {
		return errors.Trace(err)
	}
	path := a.keyringPath()
	changed, err := writeIfChanged(path, keyring, 0644)
	if err != nil {
		return errors.Annotatef(err, "writing %s", path)
	}
	if changed {
		logger.Infof("installed apt key %s", path)
	}
	return nil
}

func (a *Apt) fetchKey(ctx context.Context, id string) ([]byte, error) {
	query := url.Values{
		"op":      {"get"},
		"options": {"mr"},
		"exact":   {"on"},
		"search":  {"0x" + id},
	}
	u := strings.TrimRight(a.config.KeyServerURL, "/") + "/pks/lookup?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Debugf("fetching key %s from %s", id, a.config.KeyServerURL)
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching key %s", id)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errors.NotFoundf("key %s", id)
	default:
		return nil, errors.Errorf("fetching key %s: %s", id, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotatef(err, "reading key %s", id)
	}
	return data, nil
}

// dearmor converts an ASCII armored public key to the binary keyring
// format apt reads from trusted.gpg.d.
func dearmor(armored []byte) ([]byte, error) {
	block, err := armor.Decode(bytes.NewReader(armored))
	if err != nil {
		return nil, errors.NewNotValid(err, "decoding armored key")
	}
	if block.Type != openpgp.PublicKeyType {
		return nil, errors.NotValidf("armored block %q", block.Type)
	}
	keyring, err := io.ReadAll(block.Body)
	if err != nil {
		return nil, errors.NewNotValid(err, "decoding armored key")
	}
	if _, err := openpgp.ReadKeyRing(bytes.NewReader(keyring)); err != nil {
		return nil, errors.NewNotValid(err, "reading public key")
	}
	return keyring, nil
}

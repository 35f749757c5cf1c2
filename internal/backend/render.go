// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backend

import (
	"bytes"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"gopkg.in/ini.v1"
)

// secretKeys are replaced when rendering with redaction.
var secretKeys = set.NewStrings("san_password", "chap_password")

const redacted = "********"

// RenderINI renders opts as a cinder.conf section named backendName.
// Unset options are skipped and booleans render as True/False.
func RenderINI(backendName string, opts Options, redact bool) (string, error) {
	file := ini.Empty()
	section, err := file.NewSection(backendName)
	if err != nil {
		return "", errors.Annotatef(err, "creating section %q", backendName)
	}
	for _, o := range opts.Set() {
		value := formatValue(o.Value)
		if redact && secretKeys.Contains(o.Key) {
			value = redacted
		}
		if _, err := section.NewKey(o.Key, value); err != nil {
			return "", errors.Annotatef(err, "adding %q", o.Key)
		}
	}
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return "", errors.Annotate(err, "writing backend section")
	}
	return buf.String(), nil
}

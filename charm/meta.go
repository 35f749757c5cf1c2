// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"
	"sort"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

const (
	ScopeGlobal    = "global"
	ScopeContainer = "container"
)

// Relation is an endpoint declared in metadata.yaml.
type Relation struct {
	Interface string
	Optional  bool
	Limit     int
	Scope     string
}

// relationDoc accepts both the "name: interface" shorthand and the full
// mapping form of an endpoint.
type relationDoc struct {
	Interface string `yaml:"interface"`
	Optional  bool   `yaml:"optional"`
	Limit     *int   `yaml:"limit"`
	Scope     string `yaml:"scope"`
}

func (d *relationDoc) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var iface string
	if err := unmarshal(&iface); err == nil {
		*d = relationDoc{Interface: iface}
		return nil
	}
	type plain relationDoc
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*d = relationDoc(p)
	return nil
}

func (d relationDoc) relation(defaultLimit int) (Relation, error) {
	if d.Interface == "" {
		return Relation{}, errors.NotValidf("relation without interface")
	}
	r := Relation{
		Interface: d.Interface,
		Optional:  d.Optional,
		Limit:     defaultLimit,
		Scope:     d.Scope,
	}
	if d.Limit != nil {
		r.Limit = *d.Limit
	}
	switch r.Scope {
	case "":
		r.Scope = ScopeGlobal
	case ScopeGlobal, ScopeContainer:
	default:
		return Relation{}, errors.NotValidf("scope %q", r.Scope)
	}
	return r, nil
}

// Meta holds the parts of metadata.yaml the charm reads at runtime.
type Meta struct {
	Name        string
	Summary     string
	Description string
	Provides    map[string]Relation
	Requires    map[string]Relation
	Peers       map[string]Relation
	Subordinate bool
	Series      []string
}

type metaDoc struct {
	Name        string                 `yaml:"name"`
	Summary     string                 `yaml:"summary"`
	Description string                 `yaml:"description"`
	Provides    map[string]relationDoc `yaml:"provides"`
	Requires    map[string]relationDoc `yaml:"requires"`
	Peers       map[string]relationDoc `yaml:"peers"`
	Subordinate bool                   `yaml:"subordinate"`
	Series      []string               `yaml:"series"`
}

// ReadMeta reads a metadata.yaml document. Requires and peers default to
// a limit of one; provides are unlimited.
func ReadMeta(r io.Reader) (*Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var doc metaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "metadata")
	}
	if doc.Name == "" {
		return nil, errors.NotValidf("metadata without name")
	}
	meta := &Meta{
		Name:        doc.Name,
		Summary:     doc.Summary,
		Description: doc.Description,
		Subordinate: doc.Subordinate,
		Series:      doc.Series,
	}
	for _, role := range []struct {
		docs  map[string]relationDoc
		out   *map[string]Relation
		limit int
	}{
		{doc.Provides, &meta.Provides, 0},
		{doc.Requires, &meta.Requires, 1},
		{doc.Peers, &meta.Peers, 1},
	} {
		if len(role.docs) == 0 {
			continue
		}
		*role.out = make(map[string]Relation, len(role.docs))
		for name, d := range role.docs {
			rel, err := d.relation(role.limit)
			if err != nil {
				return nil, errors.Annotatef(err, "relation %q", name)
			}
			(*role.out)[name] = rel
		}
	}
	if meta.Subordinate && !hasScope(meta.Requires, ScopeContainer) {
		return nil, errors.NotValidf("subordinate charm %q without a container scoped requirement", meta.Name)
	}
	return meta, nil
}

func hasScope(relations map[string]Relation, scope string) bool {
	for _, r := range relations {
		if r.Scope == scope {
			return true
		}
	}
	return false
}

// ProvidedEndpoint returns the name of the provides endpoint using iface.
// When several do, the first by name wins.
func (m *Meta) ProvidedEndpoint(iface string) (string, error) {
	var names []string
	for name, r := range m.Provides {
		if r.Interface == iface {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", errors.NotFoundf("endpoint providing %q", iface)
	}
	sort.Strings(names)
	return names[0], nil
}

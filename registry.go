// xmpmeta.dev/xmp - Extensible Metadata Platform in Go
// Copyright (C) 2024  The xmpmeta.dev Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package xmp

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry is the namespace/prefix bijection plus alias table shared by
// the parser, serializer and path layer. The zero value is not usable;
// construct one with
// [NewRegistry]. A *Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	nsToPrefix map[string]string
	prefixToNS map[string]string
	aliases    map[aliasKey]predefinedAlias
}

type aliasKey struct {
	ns, prop string
}

// AliasInfo describes one alias table entry: the legacy name on the left,
// the canonical property it resolves to on the right, and the form the
// target takes (simple value, first item of an ordered array, or the
// x-default item of an AltText array).
type AliasInfo struct {
	AliasNS, AliasProp   string
	ActualNS, ActualProp string
	Form                 AliasForm
}

// defaultRegistry is the process-wide registry shared by callers that do
// not construct their own.
var defaultRegistry = NewRegistry()

// Default returns the process-wide shared Registry.
func Default() *Registry { return defaultRegistry }

// ResetDefault replaces the process-wide registry with a freshly seeded
// one, discarding all runtime registrations. It exists for tests and must
// not race with concurrent users of [Default].
func ResetDefault() { defaultRegistry = NewRegistry() }

// NewRegistry returns a Registry seeded with the predefined namespaces and
// aliases.
func NewRegistry() *Registry {
	r := &Registry{
		nsToPrefix: make(map[string]string),
		prefixToNS: make(map[string]string),
		aliases:    make(map[aliasKey]predefinedAlias),
	}
	for _, ns := range predefinedNamespaces {
		r.nsToPrefix[ns.uri] = ns.prefix
		r.prefixToNS[ns.prefix] = ns.uri
	}
	for _, a := range predefinedAliases {
		r.aliases[aliasKey{a.aliasNS, a.aliasProp}] = a
	}
	return r
}

// RegisterNamespace associates uri with suggestedPrefix, or with a
// mechanically derived variant if suggestedPrefix is already taken by a
// different namespace. It returns the prefix actually in
// effect. Registering an already-known uri is a no-op that returns the
// established prefix: the mapping is a bijection once created.
func (r *Registry) RegisterNamespace(uri, suggestedPrefix string) (string, error) {
	if uri == "" {
		return "", newErr(BadSchema, nil, "empty namespace URI")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if pfx, ok := r.nsToPrefix[uri]; ok {
		return pfx, nil
	}

	prefix := suggestedPrefix
	if prefix == "" || !isLegalPrefixToken(prefix) || r.prefixToNS[prefix] != "" {
		prefix = getPrefix(r.prefixToNS, uri, suggestedPrefix)
	}
	r.nsToPrefix[uri] = prefix
	r.prefixToNS[prefix] = uri
	return prefix, nil
}

// URIForPrefix returns the namespace URI currently bound to prefix (without
// its trailing colon, e.g. "dc", not "dc:"). Accepts either form.
func (r *Registry) URIForPrefix(prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, ":")
	r.mu.RLock()
	defer r.mu.RUnlock()
	uri, ok := r.prefixToNS[prefix]
	return uri, ok
}

// PrefixForURI returns the registered prefix for uri, with a trailing colon
// (e.g. "dc:"), ready for path/QName composition.
func (r *Registry) PrefixForURI(uri string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pfx, ok := r.nsToPrefix[uri]
	if !ok {
		return "", false
	}
	return pfx + ":", true
}

// normalizeNamespace validates that ns is a registered namespace URI and
// returns it together with its bound prefix (without trailing colon).
func (r *Registry) normalizeNamespace(ns string) (uri, prefix string, err error) {
	r.mu.RLock()
	pfx, ok := r.nsToPrefix[ns]
	r.mu.RUnlock()
	if !ok {
		return "", "", newErr(BadSchema, nil, "unregistered namespace %q", ns)
	}
	return ns, pfx, nil
}

// Namespaces returns a snapshot of all registered namespace URIs, in
// deterministic (sorted) order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uris := maps.Keys(r.nsToPrefix)
	sort.Strings(uris)
	return uris
}

// RegisterAlias adds a row to the alias table mapping (aliasNS, aliasProp)
// to (actualNS, actualProp) in the given form. It rejects
// aliases that would form a cycle or point through another alias (only
// direct, single-hop aliases are supported).
func (r *Registry) RegisterAlias(aliasNS, aliasProp, actualNS, actualProp string, form AliasForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := aliasKey{aliasNS, aliasProp}
	if key == (aliasKey{actualNS, actualProp}) {
		return newErr(BadSchema, nil, "an alias cannot target itself")
	}
	if _, ok := r.aliases[aliasKey{actualNS, actualProp}]; ok {
		return newErr(BadSchema, nil, "alias target %s/%s is itself an alias", actualNS, actualProp)
	}
	for k, a := range r.aliases {
		if k != key && a.actualNS == aliasNS && a.actualProp == aliasProp {
			return newErr(BadSchema, nil, "%s/%s is already an alias target", aliasNS, aliasProp)
		}
	}
	r.aliases[key] = predefinedAlias{aliasNS, aliasProp, actualNS, actualProp, form}
	return nil
}

// ResolveAlias returns the actual (namespace, property, form) that
// (ns, prop) aliases to, if any.
func (r *Registry) ResolveAlias(ns, prop string) (actualNS, actualProp string, form AliasForm, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aliases[aliasKey{ns, prop}]
	if !ok {
		return "", "", 0, false
	}
	return a.actualNS, a.actualProp, a.form, true
}

// AliasesForNamespace returns a snapshot of every alias whose actual
// property lives in ns, in a deterministic (sorted) order.
func (r *Registry) AliasesForNamespace(ns string) []AliasInfo {
	r.mu.RLock()
	var out []AliasInfo
	for _, a := range r.aliases {
		if a.actualNS == ns {
			out = append(out, AliasInfo{a.aliasNS, a.aliasProp, a.actualNS, a.actualProp, a.form})
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].AliasNS != out[j].AliasNS {
			return out[i].AliasNS < out[j].AliasNS
		}
		return out[i].AliasProp < out[j].AliasProp
	})
	return out
}

// getPrefix derives a fresh, unused prefix for ns. It starts from
// suggested, or from the trailing path element of the URI when suggested
// is empty; a candidate that is not a legal prefix becomes "_", one that
// starts with "xml" (any case) is escaped with a leading "_", and one
// already in use gets the numeric suffix shape base_N_ with the smallest
// free N.
func getPrefix(prefixToNS map[string]string, ns, suggested string) string {
	prefix := suggested
	if prefix == "" {
		prefix = strings.TrimRight(ns, "/#")
		if i := strings.LastIndex(prefix, "/"); i >= 0 {
			prefix = prefix[i+1:]
		}
	}
	if prefix == "" || !isLegalPrefixToken(prefix) {
		prefix = "_"
	}
	if len(prefix) >= 3 && strings.EqualFold(prefix[:3], "xml") {
		prefix = "_" + prefix
	}

	if prefixToNS[prefix] == "" {
		return prefix
	}
	base := prefix
	for idx := 1; ; idx++ {
		candidate := base + "_" + strconv.Itoa(idx) + "_"
		if prefixToNS[candidate] == "" {
			return candidate
		}
	}
}

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
	"strconv"
	"strings"
)

// StepKind identifies the kind of a single [Step] in a [Path].
type StepKind int

const (
	schemaStep StepKind = iota
	StructField
	ArrayIndex
	ArrayLast
	Qualifier
	FieldSelector
	QualSelector
)

// Step is one element of a parsed [Path]. Depending on Kind, only a subset
// of the fields is meaningful:
//
//   - StructField, Qualifier: NS + Name select the child/qualifier.
//   - ArrayIndex: Index (1-based). ParsePath turns "[0]" into an ArrayLast
//     step; an ArrayIndex step with Index below 1 matches no item.
//   - ArrayLast: no extra fields.
//   - FieldSelector, QualSelector: NS + Name + Value select a struct-in-array
//     (or qualified array item) by the value of one of its fields.
type Step struct {
	Kind  StepKind
	NS    string
	Name  string
	Index int
	Value string
}

// Path is a parsed XMP path expression. Step 0 is always a synthetic schema
// step carrying the property's namespace URI; step 1 is the root property.
type Path struct {
	Steps []Step
}

// ParsePath parses propName (the XMP path syntax, e.g. "prop",
// "prop/ns:sub", "prop[2]", "prop[last()]", "prop/?ns:qual",
// "prop[ns:field='value']") in the context of namespace ns.
//
// A leading prefix on the first path token must agree with ns (via the
// registry); if the first token has no prefix, ns supplies it.
func ParsePath(reg *Registry, ns, propName string) (Path, error) {
	if propName == "" {
		return Path{}, newErr(BadXPath, nil, "empty path")
	}

	tokens, err := splitPathTokens(propName)
	if err != nil {
		return Path{}, err
	}

	uri, _, err := reg.normalizeNamespace(ns)
	if err != nil {
		return Path{}, err
	}

	p := Path{Steps: []Step{{Kind: schemaStep, NS: uri}}}

	for i, tok := range tokens {
		step, err := parseStepToken(reg, tok, i == 0, uri)
		if err != nil {
			return Path{}, err
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// splitPathTokens splits a path expression into step tokens: on '/' between
// steps and on '[' for index/selector steps attached to a name (so
// "prop[3]/ns:f" becomes "prop", "[3]", "ns:f"). Bracketed selectors and
// quoted selector values are kept intact; doubled quotes are the escape for
// a literal quote.
func splitPathTokens(s string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	depth := 0
	var quote byte
	justClosed := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				// doubled quote -> literal quote, stay in quote mode
				if i+1 < len(s) && s[i+1] == quote {
					cur.WriteByte(quote)
					i++
				} else {
					quote = 0
				}
			}
		case c == '\'' || c == '"':
			if depth == 0 {
				return nil, newErr(BadXPath, nil, "quote outside selector in path %q", s)
			}
			quote = c
			cur.WriteByte(c)
		case c == '[':
			if depth == 0 {
				flush()
			}
			depth++
			cur.WriteByte(c)
			justClosed = false
		case c == ']':
			depth--
			if depth < 0 {
				return nil, newErr(BadXPath, nil, "unbalanced ']' in path %q", s)
			}
			cur.WriteByte(c)
			if depth == 0 {
				flush()
				justClosed = true
			}
		case c == '/' && depth == 0:
			if cur.Len() == 0 && !justClosed {
				return nil, newErr(BadXPath, nil, "empty path step in %q", s)
			}
			flush()
			justClosed = false
		default:
			cur.WriteByte(c)
			justClosed = false
		}
	}
	if depth != 0 {
		return nil, newErr(BadXPath, nil, "unbalanced '[' in path %q", s)
	}
	if quote != 0 {
		return nil, newErr(BadXPath, nil, "unterminated quote in path %q", s)
	}
	flush()
	if len(tokens) == 0 {
		return nil, newErr(BadXPath, nil, "empty path")
	}
	return tokens, nil
}

func parseStepToken(reg *Registry, tok string, isFirst bool, defaultNS string) (Step, error) {
	if tok == "" {
		return Step{}, newErr(BadXPath, nil, "empty path step")
	}

	switch tok[0] {
	case '?':
		ns, name, err := splitQName(reg, tok[1:], defaultNS, isFirst)
		if err != nil {
			return Step{}, err
		}
		return Step{Kind: Qualifier, NS: ns, Name: name}, nil
	case '@':
		ns, name, err := splitQName(reg, tok[1:], defaultNS, isFirst)
		if err != nil {
			return Step{}, err
		}
		return Step{Kind: Qualifier, NS: ns, Name: name}, nil
	case '[':
		if !strings.HasSuffix(tok, "]") {
			return Step{}, newErr(BadXPath, nil, "malformed index step %q", tok)
		}
		return parseIndexStep(reg, tok[1:len(tok)-1], defaultNS)
	}

	ns, name, err := splitQName(reg, tok, defaultNS, isFirst)
	if err != nil {
		return Step{}, err
	}
	return Step{Kind: StructField, NS: ns, Name: name}, nil
}

func parseIndexStep(reg *Registry, inner, defaultNS string) (Step, error) {
	inner = strings.TrimSpace(inner)
	if inner == "last()" {
		return Step{Kind: ArrayLast}, nil
	}
	if n, err := strconv.Atoi(inner); err == nil {
		if n == 0 {
			return Step{Kind: ArrayLast}, nil
		}
		return Step{Kind: ArrayIndex, Index: n}, nil
	}

	// [ns:field="value"] or [?ns:qual="value"]
	isQual := strings.HasPrefix(inner, "?")
	if isQual {
		inner = inner[1:]
	}
	eq := strings.IndexByte(inner, '=')
	if eq < 0 {
		return Step{}, newErr(BadXPath, nil, "malformed selector %q", inner)
	}
	qname := strings.TrimSpace(inner[:eq])
	valPart := strings.TrimSpace(inner[eq+1:])
	value, err := unquoteSelectorValue(valPart)
	if err != nil {
		return Step{}, err
	}
	ns, name, err := splitQName(reg, qname, defaultNS, false)
	if err != nil {
		return Step{}, err
	}
	if isQual {
		return Step{Kind: QualSelector, NS: ns, Name: name, Value: value}, nil
	}
	return Step{Kind: FieldSelector, NS: ns, Name: name, Value: value}, nil
}

func unquoteSelectorValue(s string) (string, error) {
	if len(s) < 2 {
		return "", newErr(BadXPath, nil, "malformed selector value %q", s)
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", newErr(BadXPath, nil, "selector value must be quoted: %q", s)
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		b.WriteByte(body[i])
		if body[i] == q && i+1 < len(body) && body[i+1] == q {
			i++
		}
	}
	return b.String(), nil
}

// splitQName splits "prefix:local" (or, for the first property token, a
// bare "local" defaulting to defaultNS) into a resolved namespace URI and
// local name.
func splitQName(reg *Registry, qname, defaultNS string, isFirst bool) (ns, name string, err error) {
	i := strings.IndexByte(qname, ':')
	if i < 0 {
		if !isFirst {
			return "", "", newErr(BadXPath, nil, "missing namespace prefix in %q", qname)
		}
		return defaultNS, qname, nil
	}
	prefix := qname[:i+1]
	local := qname[i+1:]
	uri, ok := reg.URIForPrefix(prefix)
	if !ok {
		return "", "", newErr(BadSchema, nil, "unknown namespace prefix %q", prefix)
	}
	if isFirst && uri != defaultNS {
		return "", "", newErr(BadSchema, nil, "prefix %q does not match supplied namespace %q", prefix, defaultNS)
	}
	return uri, local, nil
}

// ComposeArrayIndex renders the textual form of an array index step.
func ComposeArrayIndex(n int) string {
	if n <= 0 {
		return "[last()]"
	}
	return "[" + strconv.Itoa(n) + "]"
}

// ComposeQualifier renders the textual form of a qualifier step.
func ComposeQualifier(reg *Registry, ns, name string) (string, error) {
	prefix, ok := reg.PrefixForURI(ns)
	if !ok {
		return "", newErr(BadSchema, nil, "unregistered namespace %q", ns)
	}
	return "/?" + prefix + name, nil
}

// ComposeStructField renders the textual form of a struct-field step.
func ComposeStructField(reg *Registry, ns, name string) (string, error) {
	prefix, ok := reg.PrefixForURI(ns)
	if !ok {
		return "", newErr(BadSchema, nil, "unregistered namespace %q", ns)
	}
	return "/" + prefix + name, nil
}

// ComposeFieldSelector renders the textual form of a field-selector step.
func ComposeFieldSelector(reg *Registry, ns, name, value string) (string, error) {
	prefix, ok := reg.PrefixForURI(ns)
	if !ok {
		return "", newErr(BadSchema, nil, "unregistered namespace %q", ns)
	}
	return "[" + prefix + name + "=\"" + escapeSelectorValue(value) + "\"]", nil
}

// ComposeQualSelector renders the textual form of a qualifier-selector step.
func ComposeQualSelector(reg *Registry, ns, name, value string) (string, error) {
	prefix, ok := reg.PrefixForURI(ns)
	if !ok {
		return "", newErr(BadSchema, nil, "unregistered namespace %q", ns)
	}
	return "[?" + prefix + name + "=\"" + escapeSelectorValue(value) + "\"]", nil
}

func escapeSelectorValue(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// Compose renders p back to its textual form (without the leading schema
// step), the inverse of ParsePath. Composed paths round-trip through
// ParsePath.
func (p Path) Compose(reg *Registry) (string, error) {
	if len(p.Steps) < 2 {
		return "", newErr(BadXPath, nil, "path has no root property")
	}
	var b strings.Builder
	root := p.Steps[1]
	prefix, ok := reg.PrefixForURI(root.NS)
	if !ok {
		return "", newErr(BadSchema, nil, "unregistered namespace %q", root.NS)
	}
	b.WriteString(prefix)
	b.WriteString(root.Name)

	for _, s := range p.Steps[2:] {
		switch s.Kind {
		case StructField:
			frag, err := ComposeStructField(reg, s.NS, s.Name)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		case ArrayIndex:
			b.WriteString(ComposeArrayIndex(s.Index))
		case ArrayLast:
			b.WriteString("[last()]")
		case Qualifier:
			frag, err := ComposeQualifier(reg, s.NS, s.Name)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		case FieldSelector:
			frag, err := ComposeFieldSelector(reg, s.NS, s.Name, s.Value)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		case QualSelector:
			frag, err := ComposeQualSelector(reg, s.NS, s.Name, s.Value)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		}
	}
	return b.String(), nil
}

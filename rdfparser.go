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
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"
)

// Parse reads RDF/XML from r and builds a [Document], dispatching each
// property element into one of the six RDF/XML productions this package
// accepts: resourcePropertyElt, literalPropertyElt,
// parseTypeResourcePropertyElt, emptyPropertyElt, array containers, and the
// plain top-level description. reg supplies the namespace/alias tables used
// while resolving element and attribute names; any namespace not already
// known to reg is registered under a derived prefix as it is encountered.
func Parse(reg *Registry, r io.Reader, opts ParseOptions) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, newErr(BadStream, err, "reading input")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, newErr(BadXml, nil, "empty input")
	}

	decoded, err := decodeInput(raw, opts)
	if err != nil {
		return nil, err
	}
	if err := checkDoctype(decoded, opts); err != nil {
		return nil, err
	}
	if opts&FixControlChars != 0 {
		decoded = fixControlChars(decoded)
	} else if c, found := findBadControlChar(decoded); found {
		return nil, newErr(BadXml, nil, "invalid control character 0x%02x in input", c)
	}

	dec := xml.NewDecoder(bytes.NewReader(decoded))
	dec.Strict = true

	p := &rdfParser{dec: dec, reg: reg, opts: opts, doc: NewDocument()}
	if err := p.run(); err != nil {
		return nil, err
	}
	if p.haveAbout {
		p.doc.SetObjectName(p.about)
	}
	if opts&OmitNormalization == 0 {
		if err := Normalize(reg, p.doc, opts); err != nil {
			return nil, err
		}
	}
	return p.doc, nil
}

type rdfParser struct {
	dec  *xml.Decoder
	reg  *Registry
	opts ParseOptions
	doc  *Document

	haveAbout bool
	about     string
}

type childInfo struct {
	name xml.Name
	node *Node
}

// run walks the token stream looking for an optional x:xmpmeta wrapper
// followed by rdf:RDF; everything else at that level is skipped.
func (p *rdfParser) run() error {
	sawXmpMeta := false
	foundRDF := false
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return newErr(BadXml, err, "parsing XML")
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case se.Name.Space == xmpMetaNS && se.Name.Local == "xmpmeta":
			sawXmpMeta = true
		case se.Name.Space == RDFNamespace && se.Name.Local == "RDF":
			if p.opts&RequireXmpMeta != 0 && !sawXmpMeta {
				return newErr(BadXml, nil, "rdf:RDF must be wrapped in x:xmpmeta")
			}
			if err := p.parseRDF(se); err != nil {
				return err
			}
			foundRDF = true
		default:
			if err := p.skipElement(); err != nil {
				return err
			}
		}
	}
	if !foundRDF {
		return newErr(BadXml, nil, "no rdf:RDF element found")
	}
	return nil
}

func (p *rdfParser) skipElement() error {
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return newErr(BadXml, err, "skipping element")
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func (p *rdfParser) parseRDF(start xml.StartElement) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return newErr(BadXml, err, "parsing rdf:RDF")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != RDFNamespace || t.Name.Local != "Description" {
				return newErr(BadRdf, nil, "expected rdf:Description inside rdf:RDF")
			}
			if err := p.parseDescription(t); err != nil {
				return err
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return newErr(BadRdf, nil, "unexpected character data in rdf:RDF")
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *rdfParser) parseDescription(start xml.StartElement) error {
	if err := checkRefused(start.Attr); err != nil {
		return err
	}
	if about, ok := attrVal(start.Attr, RDFNamespace, "about"); ok {
		if p.haveAbout && p.about != about {
			return newErr(BadXmp, nil, "inconsistent rdf:about values: %q != %q", p.about, about)
		}
		p.haveAbout = true
		p.about = about
	}
	for _, a := range start.Attr {
		if isIgnoredAttr(a.Name) {
			continue
		}
		ns := p.registerNamespace(a.Name.Space)
		p.doc.schema(ns, true).addChild(&Node{NS: ns, Name: a.Name.Local, Value: a.Value})
	}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return newErr(BadXml, err, "parsing rdf:Description")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node, err := p.dispatchProperty(t)
			if err != nil {
				return err
			}
			ns := p.registerNamespace(t.Name.Space)
			node.NS, node.Name = ns, t.Name.Local
			p.doc.schema(ns, true).addChild(node)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return newErr(BadRdf, nil, "unexpected character data in rdf:Description")
			}
		case xml.EndElement:
			return nil
		}
	}
}

// dispatchProperty parses one property element, returning the Node it
// denotes (NS/Name are left zero; the caller fills them in from the
// element's own qualified name).
func (p *rdfParser) dispatchProperty(start xml.StartElement) (*Node, error) {
	if err := checkRefused(start.Attr); err != nil {
		return nil, err
	}

	if parseType, ok := attrVal(start.Attr, RDFNamespace, "parseType"); ok {
		if parseType != "Resource" {
			return nil, newErr(BadRdf, nil, "unsupported rdf:parseType %q", parseType)
		}
		node, err := p.parseStructBody(start)
		if err != nil {
			return nil, err
		}
		applyLang(node, start.Attr)
		return node, nil
	}

	datatype, hasDatatype := attrVal(start.Attr, RDFNamespace, "datatype")
	resourceAttr, hasResource := attrVal(start.Attr, RDFNamespace, "resource")
	valueAttr, hasValueAttr := attrVal(start.Attr, RDFNamespace, "value")
	if hasResource && hasValueAttr {
		return nil, newErr(BadXmp, nil, "rdf:resource and rdf:value cannot both be present")
	}

	if hasDatatype {
		text, children, err := p.readPropertyContent(start)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			return nil, newErr(BadRdf, nil, "rdf:datatype property element must not have element children")
		}
		node := &Node{Value: text}
		applyLang(node, start.Attr)
		node.addQualifier(&Node{NS: RDFNamespace, Name: "type", Value: datatype})
		return node, nil
	}

	if hasResource {
		node := &Node{Value: resourceAttr, Options: UriFlag}
		for _, a := range start.Attr {
			if isIgnoredAttr(a.Name) {
				continue
			}
			node.addQualifier(&Node{NS: a.Name.Space, Name: a.Name.Local, Value: a.Value})
		}
		applyLang(node, start.Attr)
		if err := p.expectEmpty(); err != nil {
			return nil, err
		}
		return node, nil
	}

	if hasValueAttr {
		if err := p.expectEmpty(); err != nil {
			return nil, err
		}
		node := &Node{Value: valueAttr}
		for _, a := range start.Attr {
			if isIgnoredAttr(a.Name) {
				continue
			}
			node.addQualifier(&Node{NS: a.Name.Space, Name: a.Name.Local, Value: a.Value})
		}
		applyLang(node, start.Attr)
		return node, nil
	}

	var otherAttrs []xml.Attr
	for _, a := range start.Attr {
		if isIgnoredAttr(a.Name) {
			continue
		}
		otherAttrs = append(otherAttrs, a)
	}

	text, children, err := p.readPropertyContent(start)
	if err != nil {
		return nil, err
	}

	switch {
	case len(children) == 0 && len(otherAttrs) > 0 && text == "":
		node := &Node{Options: StructFlag}
		for _, a := range otherAttrs {
			ns := p.registerNamespace(a.Name.Space)
			node.addChild(&Node{NS: ns, Name: a.Name.Local, Value: a.Value})
		}
		applyLang(node, start.Attr)
		return node, nil

	case len(children) == 0:
		node := &Node{Value: text}
		applyLang(node, start.Attr)
		return node, nil

	case len(children) == 1 && children[0].name.Space == RDFNamespace && children[0].name.Local == "Description":
		node := children[0].node
		applyLang(node, start.Attr)
		return node, nil

	case len(children) == 1 && children[0].name.Space == RDFNamespace && isContainerName(children[0].name.Local):
		node := children[0].node
		applyLang(node, start.Attr)
		return node, nil

	default:
		return nil, newErr(BadRdf, nil, "property element has ambiguous content")
	}
}

// readPropertyContent reads a property element's body (text plus any child
// elements) up to its matching end tag.
func (p *rdfParser) readPropertyContent(start xml.StartElement) (string, []childInfo, error) {
	var text strings.Builder
	var children []childInfo
contentLoop:
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", nil, newErr(BadXml, err, "parsing property content")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := p.dispatchChildElement(t)
			if err != nil {
				return "", nil, err
			}
			children = append(children, childInfo{t.Name, child})
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			break contentLoop
		}
	}
	return strings.TrimSpace(text.String()), children, nil
}

// dispatchChildElement handles the one nested element a resourcePropertyElt
// may contain: a struct (rdf:Description) or an array container.
func (p *rdfParser) dispatchChildElement(t xml.StartElement) (*Node, error) {
	switch {
	case t.Name.Space == RDFNamespace && t.Name.Local == "Description":
		return p.parseStructBody(t)
	case t.Name.Space == RDFNamespace && isContainerName(t.Name.Local):
		return p.parseContainer(t)
	default:
		return nil, newErr(BadRdf, nil, "unexpected nested element {%s}%s", t.Name.Space, t.Name.Local)
	}
}

// parseStructBody parses the flat sequence of property elements found
// directly inside either a rdf:parseType="Resource" property element or a
// nested rdf:Description, producing a single struct node. It is also where
// the rdf:value qualified-node collapse is applied.
func (p *rdfParser) parseStructBody(start xml.StartElement) (*Node, error) {
	if err := checkRefused(start.Attr); err != nil {
		return nil, err
	}
	node := &Node{Options: StructFlag}
	for _, a := range start.Attr {
		if isIgnoredAttr(a.Name) {
			continue
		}
		ns := p.registerNamespace(a.Name.Space)
		node.addChild(&Node{NS: ns, Name: a.Name.Local, Value: a.Value})
	}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, newErr(BadXml, err, "parsing struct content")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := p.dispatchProperty(t)
			if err != nil {
				return nil, err
			}
			ns := p.registerNamespace(t.Name.Space)
			child.NS, child.Name = ns, t.Name.Local
			node.addChild(child)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, newErr(BadRdf, nil, "unexpected character data in struct content")
			}
		case xml.EndElement:
			fixupRDFValue(node)
			return node, nil
		}
	}
}

// fixupRDFValue collapses a struct node whose child is named rdf:value: the
// value child's value becomes the parent's, its rdf:type (if any) transfers
// to the parent, and every other sibling becomes a qualifier.
func fixupRDFValue(node *Node) {
	if !node.Options.IsStruct() {
		return
	}
	idx := -1
	var valueChild *Node
	for i, c := range node.Children {
		if c.NS == RDFNamespace && c.Name == "value" {
			valueChild, idx = c, i
			break
		}
	}
	if valueChild == nil {
		return
	}
	node.Value = valueChild.Value
	node.Options |= valueChild.Options & UriFlag
	typeQual, _ := valueChild.findQualifier(RDFNamespace, "type")
	node.removeChildAt(idx)
	remaining := node.Children
	node.Children = nil
	node.Options &^= StructFlag
	for _, c := range remaining {
		node.addQualifier(&Node{NS: c.NS, Name: c.Name, Value: c.Value})
	}
	if typeQual != nil {
		node.addQualifier(&Node{NS: RDFNamespace, Name: "type", Value: typeQual.Value})
	}
}

func (p *rdfParser) parseContainer(start xml.StartElement) (*Node, error) {
	opts := ArrayFlag
	switch start.Name.Local {
	case "Seq":
		opts |= ArrayOrderedFlag
	case "Alt":
		opts |= ArrayAlternateFlag | ArrayOrderedFlag
	}
	node := &Node{Options: opts}
	allLang, any := true, false
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, newErr(BadXml, err, "parsing array content")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != RDFNamespace || t.Name.Local != "li" {
				return nil, newErr(BadRdf, nil, "expected rdf:li inside array container")
			}
			item, err := p.dispatchProperty(t)
			if err != nil {
				return nil, err
			}
			any = true
			if item.Lang() == "" {
				allLang = false
			}
			node.addChild(item)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, newErr(BadRdf, nil, "unexpected character data in array container")
			}
		case xml.EndElement:
			if start.Name.Local == "Alt" && any && allLang {
				node.Options |= ArrayAltTextFlag
			}
			opts, err := node.Options.Check()
			if err != nil {
				return nil, err
			}
			node.Options = opts
			return node, nil
		}
	}
}

// expectEmpty consumes tokens up to the enclosing element's end tag,
// failing if anything but whitespace is found (used for the rdf:resource
// and rdf:value emptyPropertyElt forms, which must have no element
// children).
func (p *rdfParser) expectEmpty() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return newErr(BadXml, err, "parsing empty property element")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return newErr(BadRdf, nil, "property element with rdf:resource/rdf:value must have no element children")
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return newErr(BadRdf, nil, "property element with rdf:resource/rdf:value must have no text content")
			}
		case xml.EndElement:
			return nil
		}
	}
}

func isContainerName(local string) bool {
	return local == "Bag" || local == "Seq" || local == "Alt"
}

// isIgnoredAttr reports attributes that never become fields or qualifiers:
// anything in the rdf namespace (handled by the production dispatch),
// xml:lang (captured separately as a qualifier), namespace declarations,
// and unprefixed attributes (which cannot name an XMP property).
func isIgnoredAttr(name xml.Name) bool {
	return name.Space == RDFNamespace ||
		(name.Space == xmlNamespace && name.Local == "lang") ||
		name.Space == "xmlns" ||
		name.Space == "http://www.w3.org/2000/xmlns/" ||
		name.Space == ""
}

func applyLang(node *Node, attrs []xml.Attr) {
	if lang, ok := attrVal(attrs, xmlNamespace, "lang"); ok {
		node.addQualifier(&Node{NS: xmlNamespace, Name: "lang", Value: lang})
	}
}

func attrVal(attrs []xml.Attr, ns, local string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func checkRefused(attrs []xml.Attr) error {
	for _, a := range attrs {
		if a.Name.Space != RDFNamespace {
			continue
		}
		switch a.Name.Local {
		case "aboutEach", "aboutEachPrefix", "bagID":
			return newErr(BadRdf, nil, "the old RDF term rdf:%s is not supported", a.Name.Local)
		}
	}
	return nil
}

// legacyDCNamespace is the pre-2001 Dublin Core URI some Acrobat-era
// writers emitted instead of the canonical one.
const legacyDCNamespace = "http://purl.org/dc/1.1/"

func (p *rdfParser) registerNamespace(ns string) string {
	if ns == legacyDCNamespace || ns == strings.TrimSuffix(legacyDCNamespace, "/") {
		ns = dcNamespace
	}
	p.reg.RegisterNamespace(ns, "")
	return ns
}

// checkDoctype rejects DOCTYPE declarations unless re-enabled, and in that
// case still bounds entity expansion so that a billion-laughs payload fails
// with BadXml instead of exhausting memory.
func checkDoctype(decoded []byte, opts ParseOptions) error {
	idx := bytes.Index(decoded, []byte("<!DOCTYPE"))
	if idx < 0 {
		return nil
	}
	if opts.DisallowDoctype() {
		return newErr(BadXml, nil, "DOCTYPE declarations are not permitted")
	}

	rest := decoded[idx:]
	end := len(rest)
	if bracket := bytes.IndexByte(rest, '['); bracket >= 0 {
		if close := bytes.Index(rest[bracket:], []byte("]>")); close >= 0 {
			end = bracket + close + 2
		}
	} else if gt := bytes.IndexByte(rest, '>'); gt >= 0 {
		end = gt + 1
	}
	return checkEntityCeiling(rest[:end])
}

const (
	maxDeclaredEntities = 10000
	maxExpandedBytes    = 10 * 1024 * 1024
)

var (
	entityDeclRE = regexp.MustCompile(`<!ENTITY\s+(\S+)\s+(?:"([^"]*)"|'([^']*)')`)
	entityRefRE  = regexp.MustCompile(`&(\w+);`)
)

func checkEntityCeiling(doctype []byte) error {
	decls := entityDeclRE.FindAllSubmatch(doctype, -1)
	if len(decls) > maxDeclaredEntities {
		return newErr(BadXml, nil, "too many entity declarations")
	}
	values := make(map[string]string, len(decls))
	var order []string
	for _, m := range decls {
		name := string(m[1])
		val := string(m[2])
		if val == "" && m[3] != nil {
			val = string(m[3])
		}
		values[name] = val
		order = append(order, name)
	}

	var expand func(name string, depth int, seen map[string]bool) (int, error)
	expand = func(name string, depth int, seen map[string]bool) (int, error) {
		if depth > 64 {
			return 0, newErr(BadXml, nil, "entity expansion nested too deeply")
		}
		if seen[name] {
			return 0, newErr(BadXml, nil, "recursive entity definition %q", name)
		}
		val, ok := values[name]
		if !ok {
			return 0, nil
		}
		inner := make(map[string]bool, len(seen)+1)
		for k := range seen {
			inner[k] = true
		}
		inner[name] = true
		total := len(val)
		for _, ref := range entityRefRE.FindAllStringSubmatch(val, -1) {
			n, err := expand(ref[1], depth+1, inner)
			if err != nil {
				return 0, err
			}
			total += n
			if total > maxExpandedBytes {
				return 0, newErr(BadXml, nil, "entity expansion exceeds the size ceiling")
			}
		}
		return total, nil
	}

	total := 0
	for _, name := range order {
		n, err := expand(name, 0, map[string]bool{})
		if err != nil {
			return err
		}
		total += n
		if total > maxExpandedBytes {
			return newErr(BadXml, nil, "entity expansion exceeds the size ceiling")
		}
	}
	return nil
}

func fixControlChars(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		r, size := decodeRuneUTF8(b)
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			out = append(out, ' ')
		} else {
			out = append(out, b[:size]...)
		}
		b = b[size:]
	}
	return out
}

// findBadControlChar locates the first C0 control character XML 1.0 forbids
// (anything below 0x20 except TAB/LF/CR); encoding/xml passes these through
// unchecked, so they are caught here to keep BadXml the lexical error code.
func findBadControlChar(b []byte) (byte, bool) {
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return c, true
		}
	}
	return 0, false
}

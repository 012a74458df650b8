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
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/text/encoding/unicode"

	"xmpmeta.dev/xmp/jvxml"
)

// packetID is the fixed GUID the XMP packet wrapper always carries.
const packetID = "W5M0MpCehiHzreSzNTczkc9d"

const xmpMetaNS = "adobe:ns:meta/"

// PacketHeader returns the fixed processing instruction that opens a
// wrapped XMP packet, as [Serialize] emits it.
func PacketHeader() string {
	return "<?xpacket begin=\"\ufeff\" id=\"" + packetID + "\"?>"
}

// Serialize renders d to RDF/XML bytes per params. The Document
// is not mutated, even when SortOnSerialize is set: sorting operates on an
// internal clone.
func Serialize(reg *Registry, d *Document, params SerializeParams) ([]byte, error) {
	if err := params.Options.Check(params.Padding); err != nil {
		return nil, err
	}

	// Schemas emit ordered by prefix, with the URI as tie-breaker for
	// namespaces the registry has never seen.
	schemas := d.Schemas()
	sort.Slice(schemas, func(i, j int) bool {
		pi, _ := reg.PrefixForURI(schemas[i])
		pj, _ := reg.PrefixForURI(schemas[j])
		if pi != pj {
			return pi < pj
		}
		return schemas[i] < schemas[j]
	})

	work := make(map[string]*Node, len(schemas))
	for _, ns := range schemas {
		n := d.schemas[ns].Clone()
		if params.Options&SortOnSerialize != 0 {
			n.Sort()
		}
		work[ns] = n
	}

	about := params.ObjectName
	if about == "" {
		about = d.objectName
	}

	s := &serializer{reg: reg, params: params, about: about, nsToPrefix: make(map[string]string)}
	s.collectNamespaces(schemas, work)

	buf := &bytes.Buffer{}
	enc := jvxml.NewEncoder(buf)
	if params.Indent != "" {
		enc.Indent(strings.Repeat(params.Indent, params.BaseIndent), params.Indent)
	}
	s.enc = enc
	s.buf = buf

	wrapped := params.Options&OmitPacketWrapper == 0

	id := packetID
	if params.PacketIDGen != nil {
		id = params.PacketIDGen()
	}

	if wrapped {
		if err := enc.EncodeToken(xml.ProcInst{
			Target: "xpacket",
			Inst:   []byte("begin=\"\ufeff\" id=\"" + id + "\""),
		}); err != nil {
			return nil, wrapErr(BadSerialize, err)
		}
		if err := enc.EncodeToken(xml.CharData(newlineOf(params))); err != nil {
			return nil, wrapErr(BadSerialize, err)
		}
		xAttrs := []xml.Attr{{Name: xml.Name{Local: "xmlns:x"}, Value: xmpMetaNS}}
		if err := s.writeStart(xmpMetaNS, "xmpmeta", xAttrs); err != nil {
			return nil, err
		}
	}

	if err := s.writeRDF(schemas, work); err != nil {
		return nil, err
	}

	if wrapped {
		if err := s.writeEnd(xmpMetaNS, "xmpmeta"); err != nil {
			return nil, err
		}
	}

	if err := enc.Close(); err != nil {
		return nil, wrapErr(BadSerialize, err)
	}

	out := buf.Bytes()

	if wrapped {
		trailer, err := buildTrailer(len(out), params)
		if err != nil {
			return nil, err
		}
		out = append(out, trailer...)
	}

	return encodeOutput(out, params.Options)
}

// buildTrailer renders the padding plus the closing `<?xpacket end="..."?>`
// processing instruction. contentLen is the
// length of everything already written before the trailer.
//
// When ExactPacketLength is set, Padding is the *target total length*:
// the padding actually inserted is target - contentLen - len(fixed
// trailer); if that is negative the packet cannot be made to fit and
// serialization fails with BadSerialize. Otherwise Padding is a plain byte
// count of filler inserted before the trailer.
func buildTrailer(contentLen int, params SerializeParams) ([]byte, error) {
	end := "w"
	if params.Options&ReadOnlyPacket != 0 {
		end = "r"
	}
	fixed := []byte(newlineOf(params) + "<?xpacket end=\"" + end + "\"?>")

	if params.Options&ExactPacketLength != 0 {
		avail := params.Padding - contentLen - len(fixed)
		if avail < 0 {
			return nil, newErr(BadSerialize, nil,
				"content (%d bytes) plus trailer does not fit in exact packet length %d", contentLen, params.Padding)
		}
		var buf bytes.Buffer
		buf.WriteString(strings.Repeat(" ", avail))
		buf.Write(fixed)
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Repeat(" ", params.Padding))
	buf.Write(fixed)
	return buf.Bytes(), nil
}

func newlineOf(params SerializeParams) string {
	if params.Newline != "" {
		return params.Newline
	}
	return "\n"
}

func encodeOutput(out []byte, opts SerializeOptions) ([]byte, error) {
	switch {
	case opts&EncodeUtf16Be != 0:
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		return enc.Bytes(out)
	case opts&EncodeUtf16Le != 0:
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		return enc.Bytes(out)
	default:
		return out, nil
	}
}

// serializer carries the per-call state of one Serialize invocation: the
// namespace→prefix map in effect and the underlying token printer.
type serializer struct {
	reg        *Registry
	params     SerializeParams
	about      string
	nsToPrefix map[string]string
	enc        *jvxml.Encoder
	buf        *bytes.Buffer
}

func (s *serializer) collectNamespaces(schemas []string, work map[string]*Node) {
	s.nsToPrefix[xmlNamespace] = "xml"
	s.nsToPrefix[RDFNamespace] = "rdf"
	s.nsToPrefix[xmpMetaNS] = "x"
	for _, ns := range schemas {
		s.addNamespace(ns)
		collectNodeNamespaces(work[ns], s)
	}
}

func collectNodeNamespaces(n *Node, s *serializer) {
	for _, c := range n.Children {
		if c.NS != "" {
			s.addNamespace(c.NS)
		}
		collectNodeNamespaces(c, s)
	}
	for _, q := range n.Qualifiers {
		s.addNamespace(q.NS)
	}
}

func (s *serializer) addNamespace(ns string) {
	if ns == "" {
		return
	}
	if _, ok := s.nsToPrefix[ns]; ok {
		return
	}
	if pfx, ok := s.reg.PrefixForURI(ns); ok {
		s.nsToPrefix[ns] = strings.TrimSuffix(pfx, ":")
		return
	}
	s.nsToPrefix[ns] = getPrefix(invert(s.nsToPrefix), ns, "")
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func (s *serializer) name(ns, local string) xml.Name {
	pfx := s.nsToPrefix[ns]
	if pfx == "" {
		return xml.Name{Local: local}
	}
	return xml.Name{Local: pfx + ":" + local}
}

func (s *serializer) writeStart(ns, local string, attr []xml.Attr) error {
	return wrapErr(BadSerialize, s.enc.EncodeToken(xml.StartElement{Name: s.name(ns, local), Attr: attr}))
}

func (s *serializer) writeEmpty(ns, local string, attr []xml.Attr) error {
	return wrapErr(BadSerialize, s.enc.EncodeToken(jvxml.EmptyElement{Name: s.name(ns, local), Attr: attr}))
}

func (s *serializer) writeEnd(ns, local string) error {
	return wrapErr(BadSerialize, s.enc.EncodeToken(xml.EndElement{Name: s.name(ns, local)}))
}

func (s *serializer) writeText(text string) error {
	return wrapErr(BadSerialize, s.enc.EncodeToken(xml.CharData(text)))
}

func (s *serializer) writeRDF(schemas []string, work map[string]*Node) error {
	var attrs []xml.Attr
	names := maps.Keys(s.nsToPrefix)
	sort.Strings(names)
	for _, ns := range names {
		if ns == xmlNamespace || ns == xmpMetaNS {
			continue
		}
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + s.nsToPrefix[ns]}, Value: ns})
	}
	if err := s.writeStart(RDFNamespace, "RDF", attrs); err != nil {
		return err
	}
	for _, ns := range schemas {
		if err := s.writeDescription(ns, work[ns]); err != nil {
			return err
		}
	}
	return s.writeEnd(RDFNamespace, "RDF")
}

func (s *serializer) writeDescription(ns string, schema *Node) error {
	compact := s.params.Options&UseCompactFormat != 0
	attrsCompatible := compact && allSimple(schema)

	var attrs []xml.Attr
	attrs = append(attrs, xml.Attr{Name: s.name(RDFNamespace, "about"), Value: s.about})
	if attrsCompatible {
		for _, p := range schema.Children {
			attrs = append(attrs, xml.Attr{Name: s.name(p.NS, p.Name), Value: p.Value})
		}
	}

	if len(schema.Children) == 0 {
		return s.writeEmpty(RDFNamespace, "Description", attrs)
	}
	if err := s.writeStart(RDFNamespace, "Description", attrs); err != nil {
		return err
	}
	if !attrsCompatible {
		for _, p := range schema.Children {
			if err := s.writeProperty(p); err != nil {
				return err
			}
		}
	}
	return s.writeEnd(RDFNamespace, "Description")
}

// allSimple reports whether every child of n is a simple, unqualified,
// non-URI leaf, the heuristic under which the compact attribute form is
// used instead of child elements.
func allSimple(n *Node) bool {
	for _, c := range n.Children {
		if !c.Options.IsSimple() || c.Options.IsUri() || len(c.Qualifiers) > 0 {
			return false
		}
	}
	return true
}

func (s *serializer) writeProperty(p *Node) error {
	compact := s.params.Options&UseCompactFormat != 0

	switch {
	case p.Options.IsArray():
		return s.writeArray(p)
	case p.Options.IsStruct():
		return s.writeStruct(p)
	default:
		return s.writeSimple(p, compact)
	}
}

func (s *serializer) writeArray(p *Node) error {
	if err := s.writeStart(p.NS, p.Name, nil); err != nil {
		return err
	}
	if err := s.writeArrayBody(p); err != nil {
		return err
	}
	return s.writeEnd(p.NS, p.Name)
}

// writeArrayBody emits the rdf:Bag|Seq|Alt element and its rdf:li items,
// without the surrounding named property element -- shared by top-level
// arrays and array-valued array items.
func (s *serializer) writeArrayBody(p *Node) error {
	kind := "Bag"
	switch {
	case p.Options.IsArrayAltText(), p.Options.IsArrayAlternate():
		kind = "Alt"
	case p.Options.IsArrayOrdered():
		kind = "Seq"
	}
	if err := s.writeStart(RDFNamespace, kind, nil); err != nil {
		return err
	}
	for _, item := range p.Children {
		if err := s.writeArrayItem(item); err != nil {
			return err
		}
	}
	return s.writeEnd(RDFNamespace, kind)
}

func (s *serializer) writeArrayItem(item *Node) error {
	switch {
	case item.Options.IsStruct():
		attrs := []xml.Attr{{Name: s.name(RDFNamespace, "parseType"), Value: "Resource"}}
		if err := s.writeStart(RDFNamespace, "li", attrs); err != nil {
			return err
		}
		for _, f := range item.Children {
			if err := s.writeProperty(f); err != nil {
				return err
			}
		}
		return s.writeEnd(RDFNamespace, "li")
	case item.Options.IsArray():
		if err := s.writeStart(RDFNamespace, "li", nil); err != nil {
			return err
		}
		if err := s.writeArrayBody(item); err != nil {
			return err
		}
		return s.writeEnd(RDFNamespace, "li")
	default:
		var attrs []xml.Attr
		if item.Options.IsUri() {
			attrs = append(attrs, xml.Attr{Name: s.name(RDFNamespace, "resource"), Value: item.Value})
		}
		if lang := item.Lang(); lang != "" {
			attrs = append(attrs, xml.Attr{Name: s.name(xmlNamespace, "lang"), Value: lang})
		}
		if item.Options.IsUri() {
			return s.writeEmpty(RDFNamespace, "li", attrs)
		}
		if err := s.writeStart(RDFNamespace, "li", attrs); err != nil {
			return err
		}
		if err := s.writeText(item.Value); err != nil {
			return err
		}
		return s.writeEnd(RDFNamespace, "li")
	}
}

func (s *serializer) writeStruct(p *Node) error {
	compact := s.params.Options&UseCompactFormat != 0
	attrs := []xml.Attr{{Name: s.name(RDFNamespace, "parseType"), Value: "Resource"}}
	attrsCompatible := compact && allSimple(p)

	if attrsCompatible {
		for _, f := range p.Children {
			attrs = append(attrs, xml.Attr{Name: s.name(f.NS, f.Name), Value: f.Value})
		}
	}
	if err := s.writeStart(p.NS, p.Name, attrs); err != nil {
		return err
	}
	if !attrsCompatible {
		for _, f := range p.Children {
			if err := s.writeProperty(f); err != nil {
				return err
			}
		}
	}
	return s.writeEnd(p.NS, p.Name)
}

// writeSimple emits a leaf property: unqualified
// simple values as a compact attribute is handled by the caller
// (writeDescription/writeStruct); this only ever emits the verbose child
// element form, used whenever the property carries qualifiers (other than
// xml:lang, which becomes an attribute) or the compact heuristic didn't
// apply.
func (s *serializer) writeSimple(p *Node, compact bool) error {
	otherQuals := qualifiersExceptLang(p)

	if len(otherQuals) > 0 {
		attrs := []xml.Attr{{Name: s.name(RDFNamespace, "parseType"), Value: "Resource"}}
		if lang := p.Lang(); lang != "" {
			attrs = append(attrs, xml.Attr{Name: s.name(xmlNamespace, "lang"), Value: lang})
		}
		if err := s.writeStart(p.NS, p.Name, attrs); err != nil {
			return err
		}
		if err := s.writeRDFValue(p); err != nil {
			return err
		}
		for _, q := range otherQuals {
			if err := s.writeLeafElement(q.NS, q.Name, q.Value, false, nil); err != nil {
				return err
			}
		}
		return s.writeEnd(p.NS, p.Name)
	}

	var langAttr []xml.Attr
	if lang := p.Lang(); lang != "" {
		langAttr = []xml.Attr{{Name: s.name(xmlNamespace, "lang"), Value: lang}}
	}
	return s.writeLeafElement(p.NS, p.Name, p.Value, p.Options.IsUri(), langAttr)
}

func (s *serializer) writeRDFValue(p *Node) error {
	return s.writeLeafElement(RDFNamespace, "value", p.Value, p.Options.IsUri(), nil)
}

func (s *serializer) writeLeafElement(ns, name, value string, isURI bool, extraAttrs []xml.Attr) error {
	if isURI {
		attrs := append([]xml.Attr{{Name: s.name(RDFNamespace, "resource"), Value: value}}, extraAttrs...)
		return s.writeEmpty(ns, name, attrs)
	}
	if err := s.writeStart(ns, name, extraAttrs); err != nil {
		return err
	}
	if err := s.writeText(value); err != nil {
		return err
	}
	return s.writeEnd(ns, name)
}

func qualifiersExceptLang(p *Node) []*Node {
	var out []*Node
	for _, q := range p.Qualifiers {
		if q.NS == xmlNamespace && q.Name == "lang" {
			continue
		}
		out = append(out, q)
	}
	return out
}

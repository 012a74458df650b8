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
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Document is the root aggregate of an XMP property graph: one schema node
// per namespace that currently has properties. The zero value is
// ready to use.
type Document struct {
	schemas    map[string]*Node
	objectName string
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{schemas: make(map[string]*Node)}
}

// ObjectName returns the graph's object name (the rdf:about value the
// parser captured, if any).
func (d *Document) ObjectName() string { return d.objectName }

// SetObjectName sets the graph's object name.
func (d *Document) SetObjectName(name string) { d.objectName = name }

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.objectName = d.objectName
	for ns, s := range d.schemas {
		out.schemas[ns] = s.Clone()
	}
	return out
}

// Sort reorders every schema's subtree into canonical order; schema
// order itself is always emitted sorted by the
// serializer, so only the per-schema trees need touching here.
func (d *Document) Sort() {
	for _, s := range d.schemas {
		s.Sort()
	}
}

// Dump renders the graph as an indented debugging listing, one line per
// node. The output format is not stable across releases.
func (d *Document) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document (objectName=%q)\n", d.objectName)
	nss := d.Schemas()
	sort.Strings(nss)
	for _, ns := range nss {
		fmt.Fprintf(&b, "  schema %s\n", ns)
		for _, c := range d.schemas[ns].Children {
			dumpNode(&b, c, 2)
		}
	}
	return b.String()
}

func dumpNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	label := n.Name
	if label == "" {
		label = "[]"
	}
	fmt.Fprintf(b, "%s%s", indent, label)
	if n.Value != "" {
		fmt.Fprintf(b, " = %q", n.Value)
	}
	if n.Options != 0 {
		fmt.Fprintf(b, " (0x%x)", uint32(n.Options))
	}
	b.WriteByte('\n')
	for _, q := range n.Qualifiers {
		fmt.Fprintf(b, "%s  ?%s = %q\n", indent, q.Name, q.Value)
	}
	for _, c := range n.Children {
		dumpNode(b, c, depth+1)
	}
}

func (d *Document) schema(ns string, create bool) *Node {
	if s, ok := d.schemas[ns]; ok {
		return s
	}
	if !create {
		return nil
	}
	if d.schemas == nil {
		d.schemas = make(map[string]*Node)
	}
	s := &Node{NS: ns, Options: SchemaNodeFlag}
	d.schemas[ns] = s
	return s
}

// Schemas returns the namespace URIs of every schema currently holding at
// least one property.
func (d *Document) Schemas() []string {
	out := make([]string, 0, len(d.schemas))
	for ns := range d.schemas {
		out = append(out, ns)
	}
	return out
}

// deleteEmptySchema drops ns's schema node once it holds no properties.
func (d *Document) deleteEmptySchema(ns string) {
	if s, ok := d.schemas[ns]; ok && len(s.Children) == 0 {
		delete(d.schemas, ns)
	}
}

// resolve walks path from the schema root, optionally creating intermediate
// struct/qualifier nodes as it goes. Array navigation never
// auto-creates items: use AppendArrayItem.
func (d *Document) resolve(path Path, create bool) (*Node, error) {
	if len(path.Steps) < 2 {
		return nil, newErr(BadXPath, nil, "path has no root property")
	}
	cur := d.schema(path.Steps[0].NS, create)
	if cur == nil {
		return nil, nil
	}
	for _, step := range path.Steps[1:] {
		next, err := navigateStep(cur, step, create)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		cur = next
	}
	return cur, nil
}

func navigateStep(cur *Node, step Step, create bool) (*Node, error) {
	switch step.Kind {
	case StructField:
		if c, _ := cur.findChild(step.NS, step.Name); c != nil {
			return c, nil
		}
		if !create {
			return nil, nil
		}
		c := &Node{NS: step.NS, Name: step.Name}
		cur.addChild(c)
		return c, nil

	case ArrayIndex:
		if step.Index < 1 || step.Index > len(cur.Children) {
			return nil, nil
		}
		return cur.Children[step.Index-1], nil

	case ArrayLast:
		if len(cur.Children) == 0 {
			return nil, nil
		}
		return cur.Children[len(cur.Children)-1], nil

	case Qualifier:
		if q, _ := cur.findQualifier(step.NS, step.Name); q != nil {
			return q, nil
		}
		if !create {
			return nil, nil
		}
		q := &Node{NS: step.NS, Name: step.Name}
		cur.addQualifier(q)
		return q, nil

	case FieldSelector:
		for _, item := range cur.Children {
			if f, _ := item.findChild(step.NS, step.Name); f != nil && f.Value == step.Value {
				return item, nil
			}
		}
		return nil, nil

	case QualSelector:
		for _, item := range cur.Children {
			if q, _ := item.findQualifier(step.NS, step.Name); q != nil && q.Value == step.Value {
				return item, nil
			}
		}
		return nil, nil
	}
	return nil, newErr(InternalFailure, nil, "unhandled step kind %d", step.Kind)
}

// GetProperty returns the node at schemaNS/propName, if any.
func (d *Document) GetProperty(reg *Registry, schemaNS, propName string) (*Node, bool, error) {
	path, err := ParsePath(reg, schemaNS, propName)
	if err != nil {
		return nil, false, err
	}
	n, err := d.resolve(path, false)
	if err != nil || n == nil {
		return nil, false, err
	}
	return n, true, nil
}

// SetProperty sets schemaNS/propName to value with the given options,
// creating intermediate struct nodes as needed.
func (d *Document) SetProperty(reg *Registry, schemaNS, propName, value string, opts PropOptions) error {
	opts, err := opts.Check()
	if err != nil {
		return err
	}
	path, err := ParsePath(reg, schemaNS, propName)
	if err != nil {
		return err
	}
	n, err := d.resolve(path, true)
	if err != nil {
		return err
	}
	n.Value = value
	n.Options = opts
	return nil
}

// DeleteProperty removes schemaNS/propName if present.
func (d *Document) DeleteProperty(reg *Registry, schemaNS, propName string) error {
	path, err := ParsePath(reg, schemaNS, propName)
	if err != nil {
		return err
	}
	if len(path.Steps) == 2 {
		s := d.schema(schemaNS, false)
		if s == nil {
			return nil
		}
		if _, i := s.findChild(path.Steps[1].NS, path.Steps[1].Name); i >= 0 {
			s.removeChildAt(i)
			d.deleteEmptySchema(schemaNS)
		}
		return nil
	}
	parentPath := Path{Steps: path.Steps[:len(path.Steps)-1]}
	parent, err := d.resolve(parentPath, false)
	if err != nil || parent == nil {
		return err
	}
	last := path.Steps[len(path.Steps)-1]
	switch last.Kind {
	case StructField:
		if _, i := parent.findChild(last.NS, last.Name); i >= 0 {
			parent.removeChildAt(i)
		}
	case Qualifier:
		if _, i := parent.findQualifier(last.NS, last.Name); i >= 0 {
			parent.removeQualifierAt(i)
		}
	case ArrayIndex:
		if last.Index >= 1 && last.Index <= len(parent.Children) {
			parent.removeChildAt(last.Index - 1)
		}
	case ArrayLast:
		if len(parent.Children) > 0 {
			parent.removeChildAt(len(parent.Children) - 1)
		}
	}
	d.deleteEmptySchema(schemaNS)
	return nil
}

// DoesPropertyExist reports whether schemaNS/propName resolves to a node.
func (d *Document) DoesPropertyExist(reg *Registry, schemaNS, propName string) (bool, error) {
	_, ok, err := d.GetProperty(reg, schemaNS, propName)
	return ok, err
}

// arrayNode returns (creating if needed) the array root at schemaNS/arrayName.
func (d *Document) arrayNode(reg *Registry, schemaNS, arrayName string, arrayOpts PropOptions, create bool) (*Node, error) {
	path, err := ParsePath(reg, schemaNS, arrayName)
	if err != nil {
		return nil, err
	}
	n, err := d.resolve(path, create)
	if err != nil || n == nil {
		return n, err
	}
	if n.Options.IsSimple() && len(n.Children) == 0 && create {
		opts, err := arrayOpts.Check()
		if err != nil {
			return nil, err
		}
		n.Options = opts
	}
	if !n.Options.IsArray() {
		return nil, newErr(BadXPath, nil, "%s is not an array", arrayName)
	}
	return n, nil
}

// AppendArrayItem adds a new item to the array at schemaNS/arrayName
// (creating the array itself, with arrayOpts, if it does not yet exist).
func (d *Document) AppendArrayItem(reg *Registry, schemaNS, arrayName string, arrayOpts PropOptions, itemValue string, itemOpts PropOptions) (*Node, error) {
	arr, err := d.arrayNode(reg, schemaNS, arrayName, arrayOpts, true)
	if err != nil {
		return nil, err
	}
	opts, err := itemOpts.Check()
	if err != nil {
		return nil, err
	}
	item := &Node{Value: itemValue, Options: opts}
	arr.addChild(item)
	return item, nil
}

// SetArrayItem overwrites the 1-based index-th item of the array at
// schemaNS/arrayName. Index -1 (or 0) addresses the last item.
func (d *Document) SetArrayItem(reg *Registry, schemaNS, arrayName string, index int, itemValue string, itemOpts PropOptions) error {
	arr, err := d.arrayNode(reg, schemaNS, arrayName, 0, false)
	if err != nil {
		return err
	}
	if arr == nil {
		return newErr(BadXPath, nil, "array %s does not exist", arrayName)
	}
	if index <= 0 {
		index = len(arr.Children)
	}
	if index < 1 || index > len(arr.Children) {
		return newErr(BadXPath, nil, "array index %d out of range", index)
	}
	opts, err := itemOpts.Check()
	if err != nil {
		return err
	}
	item := arr.Children[index-1]
	item.Value = itemValue
	item.Options = opts
	item.Children = nil
	return nil
}

// InsertArrayItem inserts a new item before the 1-based index-th item of
// the array at schemaNS/arrayName; inserting at length+1 appends.
func (d *Document) InsertArrayItem(reg *Registry, schemaNS, arrayName string, index int, itemValue string, itemOpts PropOptions) error {
	arr, err := d.arrayNode(reg, schemaNS, arrayName, 0, false)
	if err != nil {
		return err
	}
	if arr == nil {
		return newErr(BadXPath, nil, "array %s does not exist", arrayName)
	}
	if index <= 0 {
		index = len(arr.Children)
	}
	if index < 1 || index > len(arr.Children)+1 {
		return newErr(BadXPath, nil, "array index %d out of range", index)
	}
	opts, err := itemOpts.Check()
	if err != nil {
		return err
	}
	arr.insertChild(index-1, &Node{Value: itemValue, Options: opts})
	return nil
}

// DoesArrayItemExist reports whether the array at schemaNS/arrayName has a
// 1-based index-th item.
func (d *Document) DoesArrayItemExist(reg *Registry, schemaNS, arrayName string, index int) (bool, error) {
	_, ok, err := d.GetArrayItem(reg, schemaNS, arrayName, index)
	return ok, err
}

// GetArrayItem returns the 1-based index-th item of the array at
// schemaNS/arrayName.
func (d *Document) GetArrayItem(reg *Registry, schemaNS, arrayName string, index int) (*Node, bool, error) {
	arr, err := d.arrayNode(reg, schemaNS, arrayName, 0, false)
	if err != nil || arr == nil {
		return nil, false, err
	}
	if index < 1 || index > len(arr.Children) {
		return nil, false, nil
	}
	return arr.Children[index-1], true, nil
}

// CountArrayItems returns the number of items in the array at
// schemaNS/arrayName, or 0 if it does not exist.
func (d *Document) CountArrayItems(reg *Registry, schemaNS, arrayName string) (int, error) {
	arr, err := d.arrayNode(reg, schemaNS, arrayName, 0, false)
	if err != nil || arr == nil {
		return 0, err
	}
	return len(arr.Children), nil
}

// DeleteArrayItem removes the 1-based index-th item of the array at
// schemaNS/arrayName.
func (d *Document) DeleteArrayItem(reg *Registry, schemaNS, arrayName string, index int) error {
	arr, err := d.arrayNode(reg, schemaNS, arrayName, 0, false)
	if err != nil || arr == nil {
		return err
	}
	if index < 1 || index > len(arr.Children) {
		return nil
	}
	arr.removeChildAt(index - 1)
	return nil
}

// GetStructField returns the field ns/name of struct node s.
func GetStructField(s *Node, ns, name string) (*Node, bool) {
	c, _ := s.findChild(ns, name)
	return c, c != nil
}

// SetStructField sets field ns/name of struct node s to value, creating it
// if necessary.
func SetStructField(s *Node, ns, name, value string, opts PropOptions) error {
	opts, err := opts.Check()
	if err != nil {
		return err
	}
	if !s.Options.IsStruct() && len(s.Children) == 0 {
		s.Options |= StructFlag
	}
	if c, _ := s.findChild(ns, name); c != nil {
		c.Value = value
		c.Options = opts
		return nil
	}
	c := &Node{NS: ns, Name: name, Value: value, Options: opts}
	s.addChild(c)
	return nil
}

// DeleteStructField removes field ns/name from struct node s.
func DeleteStructField(s *Node, ns, name string) {
	if _, i := s.findChild(ns, name); i >= 0 {
		s.removeChildAt(i)
	}
}

// DoesStructFieldExist reports whether struct node s has a field ns/name.
func DoesStructFieldExist(s *Node, ns, name string) bool {
	_, ok := GetStructField(s, ns, name)
	return ok
}

// GetQualifier returns qualifier ns/name of node n.
func GetQualifier(n *Node, ns, name string) (*Node, bool) {
	q, _ := n.findQualifier(ns, name)
	return q, q != nil
}

// SetQualifier sets qualifier ns/name of node n to value, creating it if
// necessary.
func SetQualifier(n *Node, ns, name, value string) {
	if q, _ := n.findQualifier(ns, name); q != nil {
		q.Value = value
		return
	}
	n.addQualifier(&Node{NS: ns, Name: name, Value: value})
}

// DeleteQualifier removes qualifier ns/name from node n.
func DeleteQualifier(n *Node, ns, name string) {
	if _, i := n.findQualifier(ns, name); i >= 0 {
		n.removeQualifierAt(i)
	}
}

// DoesQualifierExist reports whether node n carries a qualifier ns/name.
func DoesQualifierExist(n *Node, ns, name string) bool {
	_, ok := GetQualifier(n, ns, name)
	return ok
}

// --- Typed convenience accessors ---

// GetBool returns the boolean value of schemaNS/propName ("True"/"False"
// per the XMP Basic schema convention).
func (d *Document) GetBool(reg *Registry, schemaNS, propName string) (bool, bool, error) {
	n, ok, err := d.GetProperty(reg, schemaNS, propName)
	if err != nil || !ok {
		return false, ok, err
	}
	return n.Value == "True", true, nil
}

// SetBool sets schemaNS/propName to the canonical "True"/"False" spelling.
func (d *Document) SetBool(reg *Registry, schemaNS, propName string, v bool) error {
	s := "False"
	if v {
		s = "True"
	}
	return d.SetProperty(reg, schemaNS, propName, s, 0)
}

// GetInt64 parses schemaNS/propName as a signed decimal integer.
func (d *Document) GetInt64(reg *Registry, schemaNS, propName string) (int64, bool, error) {
	n, ok, err := d.GetProperty(reg, schemaNS, propName)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, true, newErr(BadValue, err, "not an integer: %q", n.Value)
	}
	return v, true, nil
}

// SetInt64 sets schemaNS/propName to v's decimal representation.
func (d *Document) SetInt64(reg *Registry, schemaNS, propName string, v int64) error {
	return d.SetProperty(reg, schemaNS, propName, strconv.FormatInt(v, 10), 0)
}

// GetFloat64 parses schemaNS/propName as a floating point number.
func (d *Document) GetFloat64(reg *Registry, schemaNS, propName string) (float64, bool, error) {
	n, ok, err := d.GetProperty(reg, schemaNS, propName)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, true, newErr(BadValue, err, "not a number: %q", n.Value)
	}
	return v, true, nil
}

// SetFloat64 sets schemaNS/propName to v's shortest decimal representation.
func (d *Document) SetFloat64(reg *Registry, schemaNS, propName string, v float64) error {
	return d.SetProperty(reg, schemaNS, propName, strconv.FormatFloat(v, 'g', -1, 64), 0)
}

// GetDate parses schemaNS/propName as an XMP ISO-8601 date/time (see
// iso8601.go).
func (d *Document) GetDate(reg *Registry, schemaNS, propName string) (time.Time, bool, error) {
	n, ok, err := d.GetProperty(reg, schemaNS, propName)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	t, err := ParseDate(n.Value)
	if err != nil {
		return time.Time{}, true, err
	}
	return t, true, nil
}

// SetDate sets schemaNS/propName to t formatted per FormatDate.
func (d *Document) SetDate(reg *Registry, schemaNS, propName string, t time.Time) error {
	return d.SetProperty(reg, schemaNS, propName, FormatDate(t), 0)
}

// GetBase64 decodes schemaNS/propName as standard base64.
func (d *Document) GetBase64(reg *Registry, schemaNS, propName string) ([]byte, bool, error) {
	n, ok, err := d.GetProperty(reg, schemaNS, propName)
	if err != nil || !ok {
		return nil, ok, err
	}
	b, err := base64.StdEncoding.DecodeString(n.Value)
	if err != nil {
		return nil, true, newErr(BadValue, err, "not valid base64")
	}
	return b, true, nil
}

// SetBase64 sets schemaNS/propName to the standard base64 encoding of v.
func (d *Document) SetBase64(reg *Registry, schemaNS, propName string, v []byte) error {
	return d.SetProperty(reg, schemaNS, propName, base64.StdEncoding.EncodeToString(v), 0)
}

// --- AltText localized text ---

const xDefault = "x-default"

// GetLocalizedText implements the four-step AltText language match:
// exact tag match, then the generic-language prefix match (e.g. "en" for
// "en-US"), then "x-default", then the first item of the array.
func (d *Document) GetLocalizedText(reg *Registry, schemaNS, altTextName, genericLang, specificLang string) (*Node, bool, error) {
	arr, err := d.arrayNode(reg, schemaNS, altTextName, 0, false)
	if err != nil || arr == nil {
		return nil, false, err
	}
	if exact := findByLang(arr, specificLang); exact != nil {
		return exact, true, nil
	}
	if genericLang != "" {
		if generic := findGenericLang(arr, genericLang); generic != nil {
			return generic, true, nil
		}
	}
	if def := findByLang(arr, xDefault); def != nil {
		return def, true, nil
	}
	if len(arr.Children) > 0 {
		return arr.Children[0], true, nil
	}
	return nil, false, nil
}

func findByLang(arr *Node, lang string) *Node {
	for _, item := range arr.Children {
		if item.Lang() == lang {
			return item
		}
	}
	return nil
}

func findGenericLang(arr *Node, genericLang string) *Node {
	want, err := language.Parse(genericLang)
	if err != nil {
		return nil
	}
	for _, item := range arr.Children {
		tag, err := language.Parse(item.Lang())
		if err != nil {
			continue
		}
		base, conf := tag.Base()
		wantBase, _ := want.Base()
		if conf != language.No && base == wantBase {
			return item
		}
	}
	return nil
}

// SetLocalizedText implements the AltText upsert rule: set (or create)
// the item the language selection finds. Promoting the sole existing item
// creates an x-default twin; while the array is exactly that
// x-default/translation pair, updating the translation keeps the pair in
// sync. An item reached through the generic-language fallback keeps its
// original xml:lang tag; only a freshly created item is tagged with
// specificLang.
func (d *Document) SetLocalizedText(reg *Registry, schemaNS, altTextName, genericLang, specificLang, value string) error {
	arr, err := d.arrayNode(reg, schemaNS, altTextName, ArrayAltTextFlag, true)
	if err != nil {
		return err
	}

	target := findByLang(arr, specificLang)
	if target == nil && genericLang != "" {
		target = findGenericLang(arr, genericLang)
	}

	hadDefault := findByLang(arr, xDefault) != nil

	if target == nil {
		target = &Node{Value: value}
		SetQualifier(target, xmlNamespace, "lang", specificLang)
		arr.addChild(target)
	} else {
		target.Value = value
	}

	if specificLang == xDefault {
		return nil
	}

	if !hadDefault {
		if len(arr.Children) == 1 {
			def := &Node{Value: value}
			SetQualifier(def, xmlNamespace, "lang", xDefault)
			arr.insertChild(0, def)
		}
	} else if def := findByLang(arr, xDefault); def != nil && len(arr.Children) == 2 {
		def.Value = value
	}
	return nil
}

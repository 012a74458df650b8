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
	"regexp"
	"time"

	"github.com/ucarion/c14n"
)

// Normalize runs the post-parse clean-up pass: DC array upgrades, a handful
// of camera/rights migrations, explicit alias resolution, the old-XMP
// object-name tweak, and empty-schema reaping. [Parse] calls it
// automatically unless [OmitNormalization] is set; callers building a
// [Document] by hand may call it directly.
func Normalize(reg *Registry, d *Document, opts ParseOptions) error {
	touchUp(d)
	if err := moveAliases(reg, d, opts&StrictAliasing != 0); err != nil {
		return err
	}
	tweakOldXMP(d)
	for _, ns := range d.Schemas() {
		d.deleteEmptySchema(ns)
	}
	return nil
}

// canonicalSubtree renders n (under ns/name) through [Serialize] and then
// through github.com/ucarion/c14n's Exclusive Canonical XML canonicalizer,
// giving a byte string two candidate subtrees can be compared for identity
// regardless of attribute order or formatting differences.
func canonicalSubtree(reg *Registry, ns, name string, n *Node) ([]byte, error) {
	tmp := NewDocument()
	clone := n.Clone()
	clone.NS, clone.Name = ns, name
	tmp.schema(ns, true).addChild(clone)

	raw, err := Serialize(reg, tmp, SerializeParams{Options: OmitPacketWrapper})
	if err != nil {
		return nil, err
	}
	return c14n.Canonicalize(xml.NewDecoder(bytes.NewReader(raw)))
}

func subtreesEqual(reg *Registry, ns, name string, a, b *Node) (bool, error) {
	ca, err := canonicalSubtree(reg, ns, name, a)
	if err != nil {
		return false, err
	}
	cb, err := canonicalSubtree(reg, ns, name, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}

var dcBagProps = []string{"contributor", "language", "publisher", "relation", "subject", "type"}
var dcSeqProps = []string{"creator", "date"}
var dcAltTextProps = []string{"description", "rights", "title"}

func touchUp(d *Document) {
	dc := d.schema(dcNamespace, true)
	for _, name := range dcBagProps {
		upgradeIfSimple(dc, dcNamespace, name, ArrayFlag)
	}
	for _, name := range dcSeqProps {
		upgradeIfSimple(dc, dcNamespace, name, ArrayFlag|ArrayOrderedFlag)
	}
	for _, name := range dcAltTextProps {
		upgradeIfSimple(dc, dcNamespace, name, ArrayFlag|ArrayOrderedFlag|ArrayAlternateFlag|ArrayAltTextFlag)
	}

	if exif := d.schema(exifNamespace, false); exif != nil {
		fixGPSTimestamp(exif)
		repairOrWrapAltText(exif, exifNamespace, "UserComment")
	}

	migrateXmpDMCopyright(d)

	if rights := d.schema(xmpRightsNamespace, false); rights != nil {
		repairOrWrapAltText(rights, xmpRightsNamespace, "UsageTerms")
	}
}

// upgradeIfSimple wraps a simple-valued DC property that should be an array
// (an Acrobat-5 era writer quirk) into its correct array shape, with a
// single item carrying the original value.
func upgradeIfSimple(schema *Node, ns, name string, opts PropOptions) {
	c, _ := schema.findChild(ns, name)
	if c == nil || !c.Options.IsSimple() {
		return
	}
	value := c.Value
	checked, err := opts.Check()
	if err != nil {
		return
	}
	c.Options = checked
	c.Value = ""
	item := &Node{Value: value}
	if opts&ArrayAltTextFlag != 0 {
		SetQualifier(item, xmlNamespace, "lang", xDefault)
	}
	c.addChild(item)
}

// repairOrWrapAltText brings schema/name into AltText shape: a bare simple
// value is wrapped as a single x-default item; an existing array is passed
// through [repairAltText].
func repairOrWrapAltText(schema *Node, ns, name string) {
	c, _ := schema.findChild(ns, name)
	if c == nil {
		return
	}
	if c.Options.IsSimple() {
		upgradeIfSimple(schema, ns, name, ArrayFlag|ArrayOrderedFlag|ArrayAlternateFlag|ArrayAltTextFlag)
		return
	}
	if c.Options.IsArray() {
		repairAltText(c)
	}
}

// repairAltText enforces the AltText shape on an existing array: non-simple
// items are dropped outright; an empty item with no xml:lang is tagged
// "x-repair" so it survives as an identifiable placeholder, while an empty
// item that already carries a language tag (and so cannot be usefully
// repaired) is dropped.
func repairAltText(arr *Node) {
	opts, err := (arr.Options | ArrayFlag | ArrayOrderedFlag | ArrayAlternateFlag | ArrayAltTextFlag).Check()
	if err != nil {
		return
	}
	arr.Options = opts

	kept := arr.Children[:0:0]
	for _, c := range arr.Children {
		if !c.Options.IsSimple() {
			continue
		}
		if c.Value != "" {
			kept = append(kept, c)
			continue
		}
		if c.Lang() == "" {
			SetQualifier(c, xmlNamespace, "lang", "x-repair")
			kept = append(kept, c)
		}
	}
	arr.Children = nil
	for _, c := range kept {
		arr.addChild(c)
	}
}

// fixGPSTimestamp repairs exif:GPSTimeStamp when its date component is the
// zero value time.Parse leaves when only a time-of-day was supplied,
// borrowing year/month/day from exif:DateTimeOriginal or
// exif:DateTimeDigitized. Any parse failure along the way silently leaves
// the property untouched; a broken timestamp never fails the parse.
func fixGPSTimestamp(exif *Node) {
	ts, _ := exif.findChild(exifNamespace, "GPSTimeStamp")
	if ts == nil || !ts.Options.IsSimple() {
		return
	}
	t, err := ParseDate(ts.Value)
	if err != nil || t.Year() != 0 {
		return
	}
	source := firstNonEmptyChild(exif, "DateTimeOriginal", "DateTimeDigitized")
	if source == nil {
		return
	}
	srcT, err := ParseDate(source.Value)
	if err != nil {
		return
	}
	combined := time.Date(srcT.Year(), srcT.Month(), srcT.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	ts.Value = FormatDate(combined)
}

func firstNonEmptyChild(schema *Node, names ...string) *Node {
	for _, name := range names {
		if c, _ := schema.findChild(exifNamespace, name); c != nil && c.Value != "" {
			return c
		}
	}
	return nil
}

// migrateXmpDMCopyright folds a legacy xmpDM:copyright value into
// dc:rights['x-default'], matching the Adobe XMP Toolkit's long-standing
// migration: a missing dc:rights is created outright; a simple dc:rights
// equal to the xmpDM value is promoted to AltText; an existing AltText
// dc:rights whose x-default already agrees just loses the now-redundant
// xmpDM:copyright. Anything else (a genuine conflict) is left alone for
// both properties, since this step swallows its errors rather than forcing
// a resolution.
func migrateXmpDMCopyright(d *Document) {
	dm := d.schema(xmpDMNamespace, false)
	if dm == nil {
		return
	}
	copyNode, _ := dm.findChild(xmpDMNamespace, "copyright")
	if copyNode == nil || !copyNode.Options.IsSimple() || copyNode.Value == "" {
		return
	}
	value := copyNode.Value

	dc := d.schema(dcNamespace, true)
	rights, _ := dc.findChild(dcNamespace, "rights")

	switch {
	case rights == nil:
		arr := &Node{NS: dcNamespace, Name: "rights"}
		opts, err := (ArrayFlag | ArrayOrderedFlag | ArrayAlternateFlag | ArrayAltTextFlag).Check()
		if err != nil {
			return
		}
		arr.Options = opts
		item := &Node{Value: value}
		SetQualifier(item, xmlNamespace, "lang", xDefault)
		arr.addChild(item)
		dc.addChild(arr)

	case rights.Options.IsSimple():
		if rights.Value != value {
			return
		}
		upgradeIfSimple(dc, dcNamespace, "rights", ArrayFlag|ArrayOrderedFlag|ArrayAlternateFlag|ArrayAltTextFlag)

	case rights.Options.IsArrayAltText():
		def := findByLang(rights, xDefault)
		if def == nil || def.Value != value {
			return
		}

	default:
		return
	}

	if _, i := dm.findChild(xmpDMNamespace, "copyright"); i >= 0 {
		dm.removeChildAt(i)
	}
}

// moveAliases walks every schema's direct children and, for each whose
// (namespace, name) the registry has an alias entry for, moves or
// reconciles it into the actual property the alias targets. Under strict,
// a mismatch between the alias and an
// already-present actual value is an error instead of being reconciled.
func moveAliases(reg *Registry, d *Document, strict bool) error {
	for _, ns := range d.Schemas() {
		schema := d.schema(ns, false)
		if schema == nil {
			continue
		}
		children := append([]*Node(nil), schema.Children...)
		for _, child := range children {
			actualNS, actualProp, form, ok := reg.ResolveAlias(ns, child.Name)
			if !ok {
				continue
			}
			if err := moveAlias(reg, d, ns, child, actualNS, actualProp, form, strict); err != nil {
				return err
			}
		}
	}
	return nil
}

func moveAlias(reg *Registry, d *Document, aliasNS string, aliasNode *Node, actualNS, actualProp string, form AliasForm, strict bool) error {
	actualSchema := d.schema(actualNS, true)
	existing, _ := actualSchema.findChild(actualNS, actualProp)

	switch form {
	case AliasSimple:
		switch {
		case existing == nil:
			moved := aliasNode.Clone()
			moved.NS, moved.Name = actualNS, actualProp
			actualSchema.addChild(moved)
		case strict:
			equal, err := subtreesEqual(reg, actualNS, actualProp, existing, aliasNode)
			if err != nil {
				return err
			}
			if !equal {
				return newErr(BadXmp, nil, "alias %s/%s conflicts with %s/%s",
					aliasNS, aliasNode.Name, actualNS, actualProp)
			}
		default:
			existing.Value = aliasNode.Value
			existing.Options = aliasNode.Options
		}

	case AliasArrayOrdered, AliasArrayAltText:
		item := aliasNode.Clone()
		item.NS, item.Name = "", ""
		if form == AliasArrayAltText {
			SetQualifier(item, xmlNamespace, "lang", xDefault)
		}

		if existing == nil {
			opts := ArrayFlag | ArrayOrderedFlag
			if form == AliasArrayAltText {
				opts |= ArrayAlternateFlag | ArrayAltTextFlag
			}
			checked, err := opts.Check()
			if err != nil {
				return err
			}
			arr := &Node{NS: actualNS, Name: actualProp, Options: checked}
			arr.addChild(item)
			actualSchema.addChild(arr)
		} else if strict {
			match := false
			for _, it := range existing.Children {
				equal, err := subtreesEqual(reg, actualNS, "li", it, item)
				if err != nil {
					return err
				}
				if equal {
					match = true
					break
				}
			}
			if !match {
				return newErr(BadXmp, nil, "alias %s/%s conflicts with existing array %s/%s",
					aliasNS, aliasNode.Name, actualNS, actualProp)
			}
		} else {
			existing.addChild(item)
		}
	}

	aliasSchema := d.schema(aliasNS, false)
	if aliasSchema != nil {
		if _, i := aliasSchema.findChild(aliasNS, aliasNode.Name); i >= 0 {
			aliasSchema.removeChildAt(i)
		}
	}
	return nil
}

var bareUUIDRE = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// tweakOldXMP moves a bare-UUID object name into xmpMM:InstanceID, the shape
// modern consumers expect, clearing the object name once it has somewhere
// to live.
func tweakOldXMP(d *Document) {
	name := d.ObjectName()
	if name == "" || !bareUUIDRE.MatchString(name) {
		return
	}
	mm := d.schema(xmpMMNamespace, true)
	if _, ok := GetStructField(mm, xmpMMNamespace, "InstanceID"); !ok {
		mm.addChild(&Node{NS: xmpMMNamespace, Name: "InstanceID", Value: "uuid:" + name})
	}
	d.SetObjectName("")
}

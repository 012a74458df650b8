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

// PropOptions is the per-node option bitset: it records
// what kind of node a [Node] is (array/struct/qualifier/schema) and a
// handful of derived convenience bits (hasQualifiers, hasLanguage, ...).
type PropOptions uint32

const (
	ArrayFlag PropOptions = 1 << iota
	ArrayOrderedFlag
	ArrayAlternateFlag
	ArrayAltTextFlag
	StructFlag
	SchemaNodeFlag
	QualifierFlag
	HasQualifiersFlag
	HasLanguageFlag
	HasTypeFlag
	UriFlag
)

// Check normalizes and validates o, applying the implication rules
// (Alt implies Ordered+Array, AltText implies Alt) and rejecting
// combinations that can never arise from a single node (e.g. a node cannot
// be both an array and a struct).
func (o PropOptions) Check() (PropOptions, error) {
	if o&ArrayAltTextFlag != 0 {
		o |= ArrayAlternateFlag
	}
	if o&ArrayAlternateFlag != 0 {
		o |= ArrayOrderedFlag
	}
	if o&ArrayOrderedFlag != 0 {
		o |= ArrayFlag
	}
	if o&ArrayFlag != 0 && o&StructFlag != 0 {
		return 0, newErr(BadOptions, nil, "a node cannot be both an array and a struct")
	}
	if o&SchemaNodeFlag != 0 && o&(ArrayFlag|StructFlag|QualifierFlag) != 0 {
		return 0, newErr(BadOptions, nil, "a schema node cannot carry property kind flags")
	}
	return o, nil
}

func (o PropOptions) IsArray() bool          { return o&ArrayFlag != 0 }
func (o PropOptions) IsArrayOrdered() bool   { return o&ArrayOrderedFlag != 0 }
func (o PropOptions) IsArrayAlternate() bool { return o&ArrayAlternateFlag != 0 }
func (o PropOptions) IsArrayAltText() bool   { return o&ArrayAltTextFlag != 0 }
func (o PropOptions) IsStruct() bool         { return o&StructFlag != 0 }
func (o PropOptions) IsSchemaNode() bool     { return o&SchemaNodeFlag != 0 }
func (o PropOptions) IsQualifier() bool      { return o&QualifierFlag != 0 }
func (o PropOptions) HasQualifiers() bool    { return o&HasQualifiersFlag != 0 }
func (o PropOptions) HasLanguage() bool      { return o&HasLanguageFlag != 0 }
func (o PropOptions) HasType() bool          { return o&HasTypeFlag != 0 }
func (o PropOptions) IsUri() bool            { return o&UriFlag != 0 }
func (o PropOptions) IsSimple() bool         { return o&(ArrayFlag|StructFlag) == 0 }

// ParseOptions configures [Parse].
type ParseOptions uint32

const (
	RequireXmpMeta ParseOptions = 1 << iota
	StrictAliasing
	FixControlChars
	AcceptLatin1
	OmitNormalization
	disallowDoctypeUnset // internal: see DisallowDoctype below
)

// DisallowDoctype reports whether DOCTYPE declarations should be rejected.
// It defaults to true: pass [AllowDoctype] explicitly to re-enable them.
func (o ParseOptions) DisallowDoctype() bool { return o&disallowDoctypeUnset == 0 }

// AllowDoctype re-enables DOCTYPE declarations (still subject to the
// entity-expansion ceiling enforced by the parser).
const AllowDoctype = disallowDoctypeUnset

// SerializeOptions configures [Serialize].
type SerializeOptions uint32

const (
	UseCompactFormat SerializeOptions = 1 << iota
	OmitPacketWrapper
	ReadOnlyPacket
	ExactPacketLength
	SortOnSerialize
	EncodeUtf16Be
	EncodeUtf16Le
	EncodeUtf8
)

// Check rejects option combinations that cannot be honored together.
func (o SerializeOptions) Check(padding int) error {
	if padding > 0 && o&ReadOnlyPacket != 0 {
		return newErr(BadOptions, nil, "Padding > 0 is incompatible with ReadOnlyPacket")
	}
	n := 0
	for _, f := range []SerializeOptions{EncodeUtf16Be, EncodeUtf16Le, EncodeUtf8} {
		if o&f != 0 {
			n++
		}
	}
	if n > 1 {
		return newErr(BadOptions, nil, "at most one encoding flag may be set")
	}
	return nil
}

// SerializeParams bundles the scalar serialize settings that
// don't fit naturally in the bitset: byte padding, indentation, newline
// style, the rdf:about object name, and the packet ID source.
type SerializeParams struct {
	Options     SerializeOptions
	Padding     int
	Indent      string
	BaseIndent  int
	Newline     string
	ObjectName  string
	PacketIDGen func() string // test seam; nil uses the fixed XMP GUID
}

// IterOptions configures [Iterator].
type IterOptions uint32

const (
	JustChildren IterOptions = 1 << iota
	JustLeafName
	JustLeafNodes
	OmitQualifiers
)

// AliasForm selects how an alias target should be materialized.
type AliasForm int

const (
	AliasSimple AliasForm = iota
	AliasArrayOrdered
	AliasArrayAltText
)

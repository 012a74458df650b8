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

import "strings"

// xmlNamespace and RDFNamespace are always registered; they can never be
// re-registered under a different prefix.
const (
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// dcNamespace is the canonical Dublin Core URI; rdfparser.go rewrites the
	// legacy purl.org/dc/1.1/ spelling to this one on entry.
	dcNamespace = "http://purl.org/dc/elements/1.1/"

	// Namespaces normalize.go touches directly, named here so both it and
	// namespaces.go's predefined-prefix table stay in sync.
	xmpNamespace       = "http://ns.adobe.com/xap/1.0/"
	xmpMMNamespace     = "http://ns.adobe.com/xap/1.0/mm/"
	xmpRightsNamespace = "http://ns.adobe.com/xap/1.0/rights/"
	xmpDMNamespace     = "http://ns.adobe.com/xmp/1.0/DynamicMedia/"
	exifNamespace      = "http://ns.adobe.com/exif/1.0/"
	photoshopNamespace = "http://ns.adobe.com/photoshop/1.0/"
	crsNamespace       = "http://ns.adobe.com/camera-raw-settings/1.0/"
	xmpNoteNamespace   = "http://ns.adobe.com/xmp/note/"
)

// predefinedNamespaces is the seed table for [NewRegistry]: every namespace
// URI the XMP specification assigns a standard prefix to. Applications may
// register additional namespaces at runtime via [Registry.RegisterNamespace].
var predefinedNamespaces = []struct {
	uri, prefix string
}{
	{xmlNamespace, "xml"},
	{RDFNamespace, "rdf"},
	{"http://purl.org/dc/elements/1.1/", "dc"},
	{"http://ns.adobe.com/xap/1.0/", "xmp"},
	{"http://ns.adobe.com/xap/1.0/mm/", "xmpMM"},
	{"http://ns.adobe.com/xap/1.0/sType/ResourceEvent#", "stEvt"},
	{"http://ns.adobe.com/xap/1.0/sType/ResourceRef#", "stRef"},
	{"http://ns.adobe.com/xap/1.0/sType/Version#", "stVer"},
	{"http://ns.adobe.com/xap/1.0/sType/Job#", "stJob"},
	{"http://ns.adobe.com/xap/1.0/sType/Dimensions#", "stDim"},
	{"http://ns.adobe.com/xap/1.0/sType/Font#", "stFnt"},
	{"http://ns.adobe.com/xap/1.0/g/", "xmpG"},
	{"http://ns.adobe.com/xap/1.0/g/img/", "xmpGImg"},
	{"http://ns.adobe.com/xap/1.0/rights/", "xmpRights"},
	{"http://ns.adobe.com/xap/1.0/bj/", "xmpBJ"},
	{"http://ns.adobe.com/xap/1.0/t/pg/", "xmpTPg"},
	{"http://ns.adobe.com/xmp/Identifier/qual/1.0/", "xmpidq"},
	{"http://ns.adobe.com/xmp/sType/Area#", "stArea"},
	{"http://ns.adobe.com/xmp/note/", "xmpNote"},
	{"http://ns.adobe.com/pdf/1.3/", "pdf"},
	{"http://ns.adobe.com/pdfx/1.3/", "pdfx"},
	{"http://ns.adobe.com/photoshop/1.0/", "photoshop"},
	{"http://ns.adobe.com/camera-raw-settings/1.0/", "crs"},
	{"http://ns.adobe.com/exif/1.0/", "exif"},
	{"http://ns.adobe.com/exif/1.0/aux/", "aux"},
	{"http://ns.adobe.com/tiff/1.0/", "tiff"},
	{"http://cipa.jp/exif/1.0/", "exifEX"},
	{"http://ns.adobe.com/xmp/1.0/DynamicMedia/", "xmpDM"},
	{"http://ns.adobe.com/xmp/transform/", "xf"},
	{"http://ns.adobe.com/xmp/sType/Time#", "stTme"},
	{"http://ns.adobe.com/swf/1.0/", "swf"},
	{"http://www.aiim.org/pdfa/ns/schema#", "pdfaSchema"},
	{"http://www.aiim.org/pdfa/ns/property#", "pdfaProperty"},
	{"http://www.aiim.org/pdfa/ns/type#", "pdfaType"},
	{"http://www.aiim.org/pdfa/ns/field#", "pdfaField"},
	{"http://www.aiim.org/pdfa/ns/id/", "pdfaid"},
	{"http://www.aiim.org/pdfa/ns/extension/", "pdfaExtension"},
	{"http://ns.useplus.org/ldf/xmp/1.0/", "plus"},
	{"http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/", "Iptc4xmpCore"},
	{"http://iptc.org/std/Iptc4xmpExt/2008-02-29/", "Iptc4xmpExt"},
	{"http://ns.useplus.org/ldf/xmp/1.0/licensor/", "licensor"},
	{"http://purl.org/dc/terms/", "dcterms"},
	{"http://creativecommons.org/ns#", "cc"},
	{"http://ns.adobe.com/xap/1.0/f/", "xmpF"},
	{"http://ns.google.com/photos/1.0/panorama/", "GPano"},
	{"http://ns.google.com/photos/1.0/camera/", "GCamera"},
	{"http://www.w3.org/1999/xhtml", "xhtml"},
}

// predefinedAlias describes one row of the alias table a [Registry] seeds
// itself with. AliasNS/AliasProp is the legacy/simple name that
// applications may keep reading and writing; ActualNS/ActualProp is the
// schema-correct target it resolves to.
type predefinedAlias struct {
	aliasNS, aliasProp   string
	actualNS, actualProp string
	form                 AliasForm
}

// predefinedAliases mirrors the standard alias table of the XMP
// specification (part 1, section 8): legacy single-value names from the
// xmp, xmpRights, pdf, photoshop, tiff and exif namespaces mapped onto
// their canonical homes, mostly in Dublin Core and XMP Basic (a few land in
// xmpRights and photoshop).
var predefinedAliases = []predefinedAlias{
	{xmpNamespace, "Author", dcNamespace, "creator", AliasArrayOrdered},
	{xmpNamespace, "Authors", dcNamespace, "creator", AliasArrayOrdered},
	{xmpNamespace, "Description", dcNamespace, "description", AliasArrayAltText},
	{xmpNamespace, "Format", dcNamespace, "format", AliasSimple},
	{xmpNamespace, "Keywords", dcNamespace, "subject", AliasArrayOrdered},
	{xmpNamespace, "Locale", dcNamespace, "language", AliasArrayOrdered},
	{xmpNamespace, "Title", dcNamespace, "title", AliasArrayAltText},
	{xmpRightsNamespace, "Copyright", dcNamespace, "rights", AliasArrayAltText},

	{"http://ns.adobe.com/pdf/1.3/", "Author", dcNamespace, "creator", AliasArrayOrdered},
	{"http://ns.adobe.com/pdf/1.3/", "BaseURL", xmpNamespace, "BaseURL", AliasSimple},
	{"http://ns.adobe.com/pdf/1.3/", "CreationDate", xmpNamespace, "CreateDate", AliasSimple},
	{"http://ns.adobe.com/pdf/1.3/", "Creator", xmpNamespace, "CreatorTool", AliasSimple},
	{"http://ns.adobe.com/pdf/1.3/", "ModDate", xmpNamespace, "ModifyDate", AliasSimple},
	{"http://ns.adobe.com/pdf/1.3/", "Subject", dcNamespace, "description", AliasArrayAltText},
	{"http://ns.adobe.com/pdf/1.3/", "Title", dcNamespace, "title", AliasArrayAltText},

	{photoshopNamespace, "Author", dcNamespace, "creator", AliasArrayOrdered},
	{photoshopNamespace, "Caption", dcNamespace, "description", AliasArrayAltText},
	{photoshopNamespace, "Copyright", dcNamespace, "rights", AliasArrayAltText},
	{photoshopNamespace, "Keywords", dcNamespace, "subject", AliasArrayOrdered},
	{photoshopNamespace, "Marked", xmpRightsNamespace, "Marked", AliasSimple},
	{photoshopNamespace, "Title", dcNamespace, "title", AliasArrayAltText},
	{photoshopNamespace, "WebStatement", xmpRightsNamespace, "WebStatement", AliasSimple},

	{"http://ns.adobe.com/tiff/1.0/", "Artist", dcNamespace, "creator", AliasArrayOrdered},
	{"http://ns.adobe.com/tiff/1.0/", "Copyright", dcNamespace, "rights", AliasArrayAltText},
	{"http://ns.adobe.com/tiff/1.0/", "DateTime", xmpNamespace, "ModifyDate", AliasSimple},
	{"http://ns.adobe.com/tiff/1.0/", "ImageDescription", dcNamespace, "description", AliasArrayAltText},
	{"http://ns.adobe.com/tiff/1.0/", "Software", xmpNamespace, "CreatorTool", AliasSimple},

	{exifNamespace, "Artist", dcNamespace, "creator", AliasArrayOrdered},
	{exifNamespace, "Copyright", dcNamespace, "rights", AliasArrayAltText},
	{exifNamespace, "DateTimeDigitized", xmpNamespace, "CreateDate", AliasSimple},
	{exifNamespace, "DateTimeOriginal", photoshopNamespace, "DateCreated", AliasSimple},
	{exifNamespace, "ImageDescription", dcNamespace, "description", AliasArrayAltText},
	{exifNamespace, "Software", xmpNamespace, "CreatorTool", AliasSimple},
}

func isASCIILetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// isLegalPrefixToken decides whether a candidate prefix is a legal QName
// part (the ASCII subset of the XML NCName production, which covers every
// prefix XMP assigns in practice).
func isLegalPrefixToken(s string) bool {
	if s == "" || strings.Contains(s, ":") {
		return false
	}
	if !isASCIILetter(s[0]) && s[0] != '_' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isASCIILetter(c) && c != '_' && c != '-' && c != '.' && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

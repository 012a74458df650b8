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

// Package xmp reads, edits and writes Extensible Metadata Platform (XMP)
// packets, the RDF/XML-based metadata format embedded in image, document,
// audio and video files.
//
// # Documents and Nodes
//
// The main type in this package is [Document], an in-memory graph of XMP
// properties grouped by schema (namespace). Each property is a [Node]: a
// simple text value, a structure of named fields, an array (Bag, Seq, Alt
// or language-alternative AltText), optionally annotated with qualifiers
// such as xml:lang. [Parse] builds a Document from serialized RDF/XML;
// [Serialize] writes one back out, wrapped in the <?xpacket?> envelope
// used for embedding.
//
// # Paths
//
// Nested values are addressed with a small path language: "dc:title",
// "dc:creator[1]", "dc:creator[last()]", "Iptc4xmpCore:CreatorContactInfo/
// Iptc4xmpCore:CiEmailWork", "dc:title/?xml:lang". [ParsePath] parses a
// path expression; the Compose functions render one back. Document
// accessors such as [Document.GetProperty] and [Document.SetProperty]
// take a schema namespace URI plus a path string.
//
// # The Registry
//
// A [Registry] holds the prefix bindings and alias table the parser,
// serializer and path layer share. [NewRegistry] seeds it with the
// standard XMP namespaces (dc, xmp, xmpMM, tiff, exif, photoshop, ...)
// and the standard aliases (for example photoshop:Author for dc:creator).
// Parsing reconciles aliased properties onto their actual names; see
// [Normalize].
//
// # Models
//
// Models read or write a whole namespace's worth of properties at once
// through plain Go structs: [DublinCore], [Basic], [RightsManagement] and
// [MediaManagement]. Use [Document.GetModel] and [Document.SetModel].
//
// # Embedding in JPEG
//
// JPEG files limit an XMP packet to roughly 64 KB. [PackageForJPEG]
// serializes a Document and, when it is too large, splits off an extended
// packet linked through xmpNote:HasExtendedXMP.
package xmp

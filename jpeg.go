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
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// jpegPacketLimit is the largest standard XMP packet a JPEG APP1 segment
// can hold, leaving room for the segment header and namespace marker.
const jpegPacketLimit = 65000

// JPEGPackets is the result of [PackageForJPEG]: the standard packet that
// goes into the main APP1 segment, plus (when the metadata did not fit in
// one segment) the extended packet and the digest linking the two.
type JPEGPackets struct {
	// Standard is the main packet, always at most 65,000 bytes.
	Standard []byte

	// Extended is the overflow packet, serialized without the packet
	// wrapper; nil when everything fit in Standard.
	Extended []byte

	// Digest is the uppercase MD5 digest of Extended, the value written to
	// xmpNote:HasExtendedXMP; empty when Extended is nil.
	Digest string
}

// PackageForJPEG serializes d for embedding in a JPEG file. If the packet
// exceeds the 65,000-byte segment limit, top-level properties are moved to
// an extended packet until the standard packet fits, in the order the XMP
// packaging convention prescribes: xmp:Thumbnails first, then the Camera
// Raw schema wholesale, then photoshop:History, then whatever remains,
// largest first. The standard packet keeps an xmpNote:HasExtendedXMP
// property carrying the extended packet's digest.
func PackageForJPEG(reg *Registry, d *Document, params SerializeParams) (*JPEGPackets, error) {
	out, err := Serialize(reg, d, params)
	if err != nil {
		return nil, err
	}
	if len(out) <= jpegPacketLimit {
		return &JPEGPackets{Standard: out}, nil
	}

	std := d.Clone()
	ext := NewDocument()

	for _, move := range []func() bool{
		func() bool { return moveProperty(std, ext, xmpNamespace, "Thumbnails") },
		func() bool { return moveSchema(std, ext, crsNamespace) },
		func() bool { return moveProperty(std, ext, photoshopNamespace, "History") },
	} {
		if !move() {
			continue
		}
		out, err = Serialize(reg, std, params)
		if err != nil {
			return nil, err
		}
		if len(out) <= jpegPacketLimit {
			return finishJPEGPackets(reg, std, ext, params)
		}
	}

	// Largest remaining top-level properties, by estimated serialized size.
	for {
		ns, name, ok := largestProperty(std)
		if !ok {
			return nil, newErr(BadSerialize, nil, "packet cannot be reduced below the JPEG segment limit")
		}
		moveProperty(std, ext, ns, name)
		out, err = Serialize(reg, std, params)
		if err != nil {
			return nil, err
		}
		if len(out) <= jpegPacketLimit {
			return finishJPEGPackets(reg, std, ext, params)
		}
	}
}

func finishJPEGPackets(reg *Registry, std, ext *Document, params SerializeParams) (*JPEGPackets, error) {
	extParams := params
	extParams.Options |= OmitPacketWrapper
	extParams.Padding = 0
	extParams.Options &^= ExactPacketLength | ReadOnlyPacket
	extOut, err := Serialize(reg, ext, extParams)
	if err != nil {
		return nil, err
	}
	sum := md5.Sum(extOut)
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))

	if err := std.SetProperty(reg, xmpNoteNamespace, "xmpNote:HasExtendedXMP", digest, 0); err != nil {
		return nil, err
	}
	stdOut, err := Serialize(reg, std, params)
	if err != nil {
		return nil, err
	}
	if len(stdOut) > jpegPacketLimit {
		return nil, newErr(BadSerialize, nil, "standard packet still exceeds the JPEG segment limit")
	}
	return &JPEGPackets{Standard: stdOut, Extended: extOut, Digest: digest}, nil
}

// moveProperty transplants the top-level property ns/name from src to dst,
// reporting whether anything moved.
func moveProperty(src, dst *Document, ns, name string) bool {
	schema := src.schema(ns, false)
	if schema == nil {
		return false
	}
	n, i := schema.findChild(ns, name)
	if n == nil {
		return false
	}
	schema.removeChildAt(i)
	src.deleteEmptySchema(ns)
	dst.schema(ns, true).addChild(n)
	return true
}

// moveSchema transplants every property of ns from src to dst.
func moveSchema(src, dst *Document, ns string) bool {
	schema := src.schema(ns, false)
	if schema == nil || len(schema.Children) == 0 {
		return false
	}
	target := dst.schema(ns, true)
	for _, c := range schema.Children {
		target.addChild(c)
	}
	schema.Children = nil
	src.deleteEmptySchema(ns)
	return true
}

// largestProperty finds the top-level property of src with the largest
// estimated serialized size.
func largestProperty(src *Document) (ns, name string, ok bool) {
	type cand struct {
		ns, name string
		size     int
	}
	var cands []cand
	for _, schemaNS := range src.Schemas() {
		for _, c := range src.schemas[schemaNS].Children {
			cands = append(cands, cand{schemaNS, c.Name, estimateSize(c)})
		}
	}
	if len(cands) == 0 {
		return "", "", false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].size != cands[j].size {
			return cands[i].size > cands[j].size
		}
		if cands[i].ns != cands[j].ns {
			return cands[i].ns < cands[j].ns
		}
		return cands[i].name < cands[j].name
	})
	return cands[0].ns, cands[0].name, true
}

// estimateSize approximates a subtree's serialized footprint: element tags
// for every node plus value and qualifier text. It only needs to rank
// properties against each other, not predict exact byte counts.
func estimateSize(n *Node) int {
	size := 2*len(n.Name) + len(n.Value) + 16
	for _, q := range n.Qualifiers {
		size += estimateSize(q)
	}
	for _, c := range n.Children {
		size += estimateSize(c)
	}
	return size
}

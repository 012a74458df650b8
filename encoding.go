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
	"regexp"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// decodeInput converts raw into UTF-8 text: it sniffs a leading BOM to
// pick UTF-16BE/LE/UTF-8, retries as Latin-1 when AcceptLatin1 is set and
// the body is not valid UTF-8, and otherwise honors only an encoding the
// XML declaration names explicitly (resolved through
// golang.org/x/net/html/charset).
func decodeInput(raw []byte, opts ParseOptions) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0x00, 0x00, 0xFE, 0xFF}),
		bytes.HasPrefix(raw, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return nil, newErr(BadStream, nil, "UTF-32 input is not supported")
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return raw[3:], nil
	}

	if isWellFormedUTF8(raw) {
		return raw, nil
	}

	if opts&AcceptLatin1 != 0 {
		return charmap.ISO8859_1.NewDecoder().Bytes(raw)
	}

	// A non-UTF-8 body is honored only when the XML declaration names its
	// encoding explicitly; there is no content-sniffing fallback beyond
	// the BOM checks above.
	if name := declaredEncoding(raw); name != "" {
		enc, canonical := charset.Lookup(name)
		if enc != nil && canonical != "utf-8" {
			return enc.NewDecoder().Bytes(raw)
		}
	}
	return nil, newErr(BadStream, nil, "input is not valid UTF-8 and declares no other encoding")
}

var xmlEncodingRE = regexp.MustCompile(`^<\?xml[^>]*\bencoding=["']([A-Za-z][A-Za-z0-9._-]*)["']`)

func declaredEncoding(raw []byte) string {
	m := xmlEncodingRE.FindSubmatch(raw)
	if m == nil {
		return ""
	}
	return string(m[1])
}

func isWellFormedUTF8(b []byte) bool {
	for len(b) > 0 {
		r, size := decodeRuneUTF8(b)
		if r == 0xFFFD && size == 1 {
			return false
		}
		b = b[size:]
	}
	return true
}

// decodeRuneUTF8 is a tiny local reimplementation of utf8.DecodeRune to
// avoid importing "unicode/utf8" purely for this one check -- kept local
// since decodeInput is the only caller.
func decodeRuneUTF8(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0xFFFD, 0
	}
	c0 := b[0]
	if c0 < 0x80 {
		return rune(c0), 1
	}
	var n int
	var r rune
	switch {
	case c0&0xE0 == 0xC0:
		n, r = 2, rune(c0&0x1F)
	case c0&0xF0 == 0xE0:
		n, r = 3, rune(c0&0x0F)
	case c0&0xF8 == 0xF0:
		n, r = 4, rune(c0&0x07)
	default:
		return 0xFFFD, 1
	}
	if len(b) < n {
		return 0xFFFD, 1
	}
	for i := 1; i < n; i++ {
		if b[i]&0xC0 != 0x80 {
			return 0xFFFD, 1
		}
		r = r<<6 | rune(b[i]&0x3F)
	}
	return r, n
}

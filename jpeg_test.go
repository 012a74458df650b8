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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageForJPEGSmallPacket(t *testing.T) {
	reg := newTestRegistry(t)
	d := NewDocument()
	require.NoError(t, d.SetProperty(reg, testNS, "small", "value", 0))

	pk, err := PackageForJPEG(reg, d, SerializeParams{})
	require.NoError(t, err)
	assert.Nil(t, pk.Extended)
	assert.Empty(t, pk.Digest)
	assert.LessOrEqual(t, len(pk.Standard), jpegPacketLimit)
	assert.Contains(t, string(pk.Standard), "<test:small>value</test:small>")
}

func TestPackageForJPEGSplitsOversized(t *testing.T) {
	reg := newTestRegistry(t)
	d := NewDocument()

	big := strings.Repeat("x", 40_000)
	require.NoError(t, d.SetProperty(reg, xmpNamespace, "xmp:Thumbnails", big, 0))
	require.NoError(t, d.SetProperty(reg, photoshopNamespace, "photoshop:History", strings.Repeat("h", 40_000), 0))
	require.NoError(t, d.SetProperty(reg, testNS, "keep", "stays in the main packet", 0))

	pk, err := PackageForJPEG(reg, d, SerializeParams{})
	require.NoError(t, err)

	require.NotNil(t, pk.Extended)
	assert.LessOrEqual(t, len(pk.Standard), jpegPacketLimit)

	std := string(pk.Standard)
	ext := string(pk.Extended)

	// The small property stays; the link property appears.
	assert.Contains(t, std, "stays in the main packet")
	assert.Contains(t, std, "xmpNote:HasExtendedXMP")
	assert.Contains(t, std, pk.Digest)

	// Thumbnails move out first.
	assert.NotContains(t, std, big)
	assert.Contains(t, ext, "xmp:Thumbnails")

	// The digest is an uppercase 128-bit MD5 in hex.
	require.Len(t, pk.Digest, 32)
	assert.Equal(t, strings.ToUpper(pk.Digest), pk.Digest)

	// The extended packet has no xpacket wrapper and still parses.
	assert.NotContains(t, ext, "xpacket")
	_, err = Parse(reg, bytes.NewReader(pk.Extended), 0)
	require.NoError(t, err)

	// The original document is untouched.
	ok, err := d.DoesPropertyExist(reg, xmpNamespace, "xmp:Thumbnails")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPackageForJPEGCameraRawSchema(t *testing.T) {
	reg := newTestRegistry(t)
	d := NewDocument()

	big := strings.Repeat("y", 80_000)
	require.NoError(t, d.SetProperty(reg, crsNamespace, "crs:ToneCurve", big, 0))
	require.NoError(t, d.SetProperty(reg, crsNamespace, "crs:Version", "15.0", 0))

	pk, err := PackageForJPEG(reg, d, SerializeParams{})
	require.NoError(t, err)

	// The Camera Raw schema moves wholesale, small members included.
	require.NotNil(t, pk.Extended)
	ext := string(pk.Extended)
	assert.Contains(t, ext, "crs:ToneCurve")
	assert.Contains(t, ext, "crs:Version")
	assert.NotContains(t, string(pk.Standard), "crs:")
}

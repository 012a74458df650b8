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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	err := newErr(BadXml, cause, "while parsing %q", "input")

	assert.Equal(t, `xmp: BadXml: while parsing "input": boom`, err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, BadXml, CodeOf(err))
}

func TestCodeOfWrappedError(t *testing.T) {
	inner := newErr(BadSchema, nil, "inner")
	outer := fmt.Errorf("context: %w", inner)
	assert.Equal(t, BadSchema, CodeOf(outer))

	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, Unknown, CodeOf(nil))
}

func TestWrapErrPassthrough(t *testing.T) {
	typed := newErr(BadXPath, nil, "typed")
	assert.Same(t, typed, wrapErr(BadStream, typed))

	plain := errors.New("plain")
	wrapped := wrapErr(BadStream, plain)
	require.Error(t, wrapped)
	assert.Equal(t, BadStream, CodeOf(wrapped))
	assert.ErrorIs(t, wrapped, plain)

	assert.NoError(t, wrapErr(BadStream, nil))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "BadSerialize", BadSerialize.String())
	assert.Equal(t, "Unknown", Code(999).String())
}

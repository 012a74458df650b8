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

import "fmt"

// Code identifies the category of an [Error].
type Code int

// The error codes a caller can switch on. These numbers are part of the
// public API: once assigned they are never renumbered.
const (
	Unknown Code = iota
	BadParam
	BadOptions
	BadSchema
	BadXPath
	BadRdf
	BadXmp
	BadXml
	BadStream
	BadValue
	BadSerialize
	InternalFailure
)

var codeNames = map[Code]string{
	Unknown:         "Unknown",
	BadParam:        "BadParam",
	BadOptions:      "BadOptions",
	BadSchema:       "BadSchema",
	BadXPath:        "BadXPath",
	BadRdf:          "BadRdf",
	BadXmp:          "BadXmp",
	BadXml:          "BadXml",
	BadStream:       "BadStream",
	BadValue:        "BadValue",
	BadSerialize:    "BadSerialize",
	InternalFailure: "InternalFailure",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "Unknown"
}

// Error is the single error type returned by every public operation in this
// package. It always carries a stable [Code] plus a human-readable message,
// and preserves whatever underlying error (from the XML tokenizer, an I/O
// stream, etc.) triggered it.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xmp: %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("xmp: %s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newErr builds an [Error], wrapping err if a caller-level cause is known.
func newErr(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// wrapErr re-wraps err as an [Error] with the given code unless it already
// is one, in which case it is returned unchanged (mirrors the pass-through
// behaviour of arturoeanton-go-xml's wrapError).
func wrapErr(code Code, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: code, Msg: err.Error(), Err: err}
}

// CodeOf extracts the [Code] of err, returning [Unknown] if err is not (or
// does not wrap) an [*Error].
func CodeOf(err error) Code {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown
	}
	return e.Code
}

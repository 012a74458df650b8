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
	"time"
)

// xmpDateLayouts are the ISO-8601 profile variants the XMP date/time value
// type permits, from most to least precise. ParseDate tries each in turn.
var xmpDateLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate parses s as an XMP date/time value. XMP permits truncated
// forms (year only, year-month only, date only) as well as full
// date-times with an optional fractional second and a mandatory timezone
// offset (or "Z").
func ParseDate(s string) (time.Time, error) {
	for _, layout := range xmpDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newErr(BadValue, nil, "not a valid XMP date: %q", s)
}

// FormatDate renders t in the full XMP date-time form
// (YYYY-MM-DDThh:mm:ss[.sss]TZD), omitting the fractional-second part when
// t has no sub-second component.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.999999999Z07:00")
}

// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package property

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Codec converts between the tool's text form and typed values. Decoded
// values are nil, bool, int64, float64 or string. Values a codec does not
// model pass through untouched. Both directions are idempotent.
type Codec interface {
	Decode(v any) any
	Encode(v any, humanize bool) string
}

var codecs = map[Type]Codec{
	TypeBool:    boolCodec{on: "on", off: "off"},
	TypeBoolAlt: boolCodec{on: "yes", off: "no"},
	TypeSize:    sizeCodec{},
	TypeNumeric: numericCodec{},
	TypeStr:     strCodec{},
}

// CodecFor returns the codec for t, falling back to Str.
func CodecFor(t Type) Codec {
	if c, ok := codecs[t]; ok {
		return c
	}
	return codecs[TypeStr]
}

// Decode is a shortcut for CodecFor(t).Decode(v).
func Decode(t Type, v any) any {
	return CodecFor(t).Decode(v)
}

// Encode is a shortcut for CodecFor(t).Encode(v, humanize).
func Encode(t Type, v any, humanize bool) string {
	return CodecFor(t).Encode(v, humanize)
}

type boolCodec struct {
	on, off string
}

// Both dialects are accepted on decode; a pool reporting "yes" for an
// on/off property still compares equal.
func (boolCodec) Decode(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch s {
	case "on", "yes":
		return true
	case "off", "no":
		return false
	case "none":
		return nil
	}
	return s
}

func (c boolCodec) Encode(v any, _ bool) string {
	switch d := c.Decode(v).(type) {
	case nil:
		return "none"
	case bool:
		if d {
			return c.on
		}
		return c.off
	default:
		return toText(d)
	}
}

var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

type numericCodec struct{}

func (numericCodec) Decode(v any) any {
	if n, ok := normalizeNumber(v); ok {
		return n
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "none" {
		return nil
	}
	return parseNumber(s)
}

func (c numericCodec) Encode(v any, _ bool) string {
	d := c.Decode(v)
	if d == nil {
		return "none"
	}
	return toText(d)
}

// parseNumber returns int64, then float64, then s itself.
func parseNumber(s string) any {
	if !plainNumber.MatchString(s) {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

type strCodec struct{}

func (strCodec) Decode(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return toText(v)
	}
	if s == "none" {
		return nil
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}

func (c strCodec) Encode(v any, _ bool) string {
	d := c.Decode(v)
	if d == nil {
		return "none"
	}
	s := d.(string)
	s = strings.ReplaceAll(s, `"`, `\"`)
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		s = `"` + s + `"`
	}
	return s
}

// Unquote strips the display quoting added by the Str encoder, leaving the
// literal value an argv element should carry.
func Unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}

// normalizeNumber folds Go numeric kinds onto int64 / float64.
func normalizeNumber(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToNumber(uint64(n)), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToNumber(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return nil, false
}

func uintToNumber(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "none"
	}
	if n, ok := normalizeNumber(v); ok {
		return toText(n)
	}
	return fmt.Sprint(v)
}

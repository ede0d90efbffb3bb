// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package property

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

const sizeUnits = "KMGTPE"

var sizePattern = regexp.MustCompile(`^(\d+|\d+\.\d+)([KkMmGgTtPpEe][Bb]?)$`)

type sizeCodec struct{}

// Decode turns "4.20M" into 4404019. Fractions are scaled with exact integer
// arithmetic and floored to whole bytes.
func (sizeCodec) Decode(v any) any {
	if n, ok := normalizeNumber(v); ok {
		if f, isFloat := n.(float64); isFloat && f <= math.MaxInt64 && f >= math.MinInt64 {
			return int64(math.Floor(f))
		}
		return n
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "none" {
		return nil
	}
	if m := sizePattern.FindStringSubmatch(s); m != nil {
		if b, ok := scaleSize(m[1], m[2]); ok {
			return b
		}
		return s
	}
	if plainNumber.MatchString(s) {
		if n, ok := parseNumber(s).(int64); ok {
			return n
		}
	}
	return s
}

func (c sizeCodec) Encode(v any, humanize bool) string {
	switch d := c.Decode(v).(type) {
	case nil:
		return "none"
	case int64:
		if humanize && d > 1024 {
			return humanizeBytes(d)
		}
		return strconv.FormatInt(d, 10)
	default:
		return toText(d)
	}
}

func scaleSize(number, unit string) (int64, bool) {
	idx := strings.IndexByte(sizeUnits, strings.ToUpper(unit)[0])
	if idx < 0 {
		return 0, false
	}

	digits, scale := number, 0
	if dot := strings.IndexByte(number, '.'); dot >= 0 {
		digits = number[:dot] + number[dot+1:]
		scale = len(number) - dot - 1
	}

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, false
	}
	mult := new(big.Int).Exp(big.NewInt(1024), big.NewInt(int64(idx+1)), nil)
	n.Mul(n, mult)
	n.Quo(n, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil))

	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// humanizeBytes picks the largest unit not exceeding n. Exact multiples
// print without decimals; otherwise the first of 2, 1, 0 fractional digits
// whose full text fits in five characters wins.
func humanizeBytes(n int64) string {
	power := 0
	div := int64(1)
	for power < len(sizeUnits) && n/div >= 1024 {
		div *= 1024
		power++
	}
	if power == 0 {
		return strconv.FormatInt(n, 10)
	}
	unit := string(sizeUnits[power-1])

	if n%div == 0 {
		return fmt.Sprintf("%d%s", n/div, unit)
	}

	f := float64(n) / float64(div)
	var out string
	for _, prec := range []int{2, 1, 0} {
		out = strconv.FormatFloat(f, 'f', prec, 64) + unit
		if len(out) <= 5 {
			break
		}
	}
	return out
}

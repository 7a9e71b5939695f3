// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"errors"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// durationPattern: sign, days, hours, minutes, seconds with optional fraction
var durationPattern = regexp.MustCompile(`^([-+]?)P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

var (
	secondsPerDay    = decimal.NewFromInt(86400)
	secondsPerHour   = decimal.NewFromInt(3600)
	secondsPerMinute = decimal.NewFromInt(60)

	errDurationRange = errors.New("duration outside the nanosecond range of time.Duration")

	typeSignedDuration = reflect.TypeOf(SignedDuration{})
)

// SignedDuration is a Duration host value that remembers an explicit leading
// plus sign, so "+PT6S" formats back to "+PT6S"
type SignedDuration struct {
	Seconds decimal.Decimal
	Plus    bool
}

// durationType implements Edm.Duration as an exact number of seconds
type durationType struct{}

func (durationType) defaultType() reflect.Type {
	return typeDecimal
}

func (durationType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	m := durationPattern.FindStringSubmatch(literal)
	if m == nil || (m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "") || strings.HasSuffix(literal, "T") {
		return nil, illegalContent(Duration, literal)
	}

	total := decimal.Zero
	for _, part := range []struct {
		digits string
		unit   decimal.Decimal
	}{
		{m[2], secondsPerDay},
		{m[3], secondsPerHour},
		{m[4], secondsPerMinute},
		{m[5], decimal.NewFromInt(1)},
	} {
		if part.digits == "" {
			continue
		}
		v, err := decimal.NewFromString(part.digits)
		if err != nil {
			return nil, &Error{Kind: IllegalContent, Type: Duration, Literal: literal, Err: err}
		}
		total = total.Add(v.Mul(part.unit))
	}
	if m[1] == "-" {
		total = total.Neg()
	}

	if _, decimals := countDigits(total.String()); !facets.withinPrecision(decimals) {
		return nil, facetMismatch(Duration, literal, "fractional seconds exceed precision")
	}

	switch rt {
	case typeGoDuration:
		return goDuration(literal, total)
	case typeSignedDuration:
		return SignedDuration{Seconds: total, Plus: m[1] == "+"}, nil
	}
	return convertDecimal(Duration, literal, total, rt)
}

func (durationType) format(value any, facets Facets) (string, error) {
	var (
		d    decimal.Decimal
		plus bool
	)
	switch v := value.(type) {
	case time.Duration:
		d = decimal.New(int64(v), -9)
	case SignedDuration:
		d, plus = v.Seconds, v.Plus
	default:
		var err error
		if d, err = decimalOf(Duration, value); err != nil {
			return "", err
		}
	}

	if _, decimals := countDigits(d.String()); !facets.withinPrecision(decimals) {
		return "", facetMismatch(Duration, d.String(), "fractional seconds exceed precision")
	}

	var b strings.Builder
	switch {
	case d.Sign() < 0:
		b.WriteByte('-')
		d = d.Neg()
	case plus:
		b.WriteByte('+')
	}
	b.WriteByte('P')

	seconds := d.BigInt()
	days, rest := new(big.Int).QuoRem(seconds, big.NewInt(86400), new(big.Int))
	if days.Sign() != 0 {
		b.WriteString(days.String())
		b.WriteByte('D')
	}
	b.WriteByte('T')

	hours, rest := new(big.Int).QuoRem(rest, big.NewInt(3600), new(big.Int))
	if hours.Sign() != 0 {
		b.WriteString(hours.String())
		b.WriteByte('H')
	}
	minutes := new(big.Int).Quo(rest, big.NewInt(60))
	if minutes.Sign() != 0 {
		b.WriteString(minutes.String())
		b.WriteByte('M')
	}

	b.WriteString(d.Mod(secondsPerMinute).String())
	b.WriteByte('S')
	return b.String(), nil
}

func goDuration(literal string, seconds decimal.Decimal) (any, error) {
	ns := seconds.Shift(9)
	if !ns.IsInteger() {
		return nil, unconvertible(Duration, literal, errSubNanosecond)
	}
	n := ns.BigInt()
	if !n.IsInt64() {
		return nil, unconvertible(Duration, literal, errDurationRange)
	}
	return time.Duration(n.Int64()), nil
}

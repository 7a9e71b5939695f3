// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var (
	datePattern      = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})$`)
	dateTimePattern  = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})T(\d{2}):(\d{2})(?::(\d{2})(?:\.(\d+))?)?$`)
	offsetPattern    = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})T(\d{2}):(\d{2})(?::(\d{2})(?:\.(\d+))?)?(Z|[+-]\d{2}:\d{2})$`)
	timeOfDayPattern = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2})(?:\.(\d+))?)?$`)

	// legacyDatePattern is the OData v2 JSON form /Date(milliseconds[+-hhmm])/
	legacyDatePattern = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

	typeTime          = reflect.TypeOf(time.Time{})
	typeGoDuration    = reflect.TypeOf(time.Duration(0))
	typeCivilDate     = reflect.TypeOf(civil.Date{})
	typeCivilTime     = reflect.TypeOf(civil.Time{})
	typeCivilDateTime = reflect.TypeOf(civil.DateTime{})

	errSubNanosecond = errors.New("more than nine fractional second digits")
)

// dateType implements Edm.Date
type dateType struct{}

func (dateType) defaultType() reflect.Type {
	return typeCivilDate
}

func (dateType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	m := datePattern.FindStringSubmatch(literal)
	if m == nil {
		return nil, illegalContent(Date, literal)
	}
	d, ok := civilDate(m[1], m[2], m[3])
	if !ok {
		return nil, illegalContent(Date, literal)
	}

	switch rt {
	case typeCivilDate:
		return d, nil
	case typeTime:
		return d.In(time.UTC), nil
	case typeInt64:
		return d.In(time.UTC).UnixMilli(), nil
	}
	return nil, typeNotSupported(Date, rt.String())
}

func (dateType) format(value any, _ Facets) (string, error) {
	var d civil.Date
	switch v := value.(type) {
	case civil.Date:
		if !v.IsValid() {
			return "", valueNotValid(Date, value)
		}
		d = v
	case time.Time:
		d = civil.DateOf(v)
	case int64:
		d = civil.DateOf(time.UnixMilli(v).UTC())
	default:
		return "", typeNotSupported(Date, reflect.TypeOf(value).String())
	}

	var b strings.Builder
	writeDate(&b, d)
	return b.String(), nil
}

// dateTimeType implements the OData v3 Edm.DateTime, a date-time without offset
type dateTimeType struct{}

func (dateTimeType) defaultType() reflect.Type {
	return typeCivilDateTime
}

func (dateTimeType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	var dt civil.DateTime
	if m := legacyDatePattern.FindStringSubmatch(literal); m != nil {
		t, err := parseLegacyDate(DateTime, literal, m)
		if err != nil {
			return nil, err
		}
		dt = civil.DateTimeOf(t.UTC())
	} else {
		m := dateTimePattern.FindStringSubmatch(literal)
		if m == nil {
			return nil, illegalContent(DateTime, literal)
		}
		var err error
		if dt, err = civilDateTime(DateTime, literal, m, facets); err != nil {
			return nil, err
		}
	}

	switch rt {
	case typeCivilDateTime:
		return dt, nil
	case typeTime:
		return dt.In(time.UTC), nil
	case typeInt64:
		return dt.In(time.UTC).UnixMilli(), nil
	}
	return nil, typeNotSupported(DateTime, rt.String())
}

func (dateTimeType) format(value any, facets Facets) (string, error) {
	var dt civil.DateTime
	switch v := value.(type) {
	case civil.DateTime:
		if !v.IsValid() {
			return "", valueNotValid(DateTime, value)
		}
		dt = v
	case time.Time:
		dt = civil.DateTimeOf(v)
	case int64:
		dt = civil.DateTimeOf(time.UnixMilli(v).UTC())
	default:
		return "", typeNotSupported(DateTime, reflect.TypeOf(value).String())
	}

	var b strings.Builder
	writeDate(&b, dt.Date)
	b.WriteByte('T')
	if err := writeTime(&b, DateTime, dt.Time, facets); err != nil {
		return "", err
	}
	return b.String(), nil
}

// dateTimeOffsetType implements Edm.DateTimeOffset
type dateTimeOffsetType struct{}

func (dateTimeOffsetType) defaultType() reflect.Type {
	return typeTime
}

func (dateTimeOffsetType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	var t time.Time
	if m := legacyDatePattern.FindStringSubmatch(literal); m != nil {
		var err error
		if t, err = parseLegacyDate(DateTimeOffset, literal, m); err != nil {
			return nil, err
		}
	} else {
		m := offsetPattern.FindStringSubmatch(literal)
		if m == nil {
			// literals without an offset are read as UTC
			m = offsetPattern.FindStringSubmatch(literal + "Z")
		}
		if m == nil {
			return nil, illegalContent(DateTimeOffset, literal)
		}

		dt, err := civilDateTime(DateTimeOffset, literal, m, facets)
		if err != nil {
			return nil, err
		}
		loc, ok := parseOffset(m[8])
		if !ok {
			return nil, illegalContent(DateTimeOffset, literal)
		}
		t = dt.In(loc)
	}

	switch rt {
	case typeTime:
		return t, nil
	case typeInt64:
		return t.UnixMilli(), nil
	}
	return nil, typeNotSupported(DateTimeOffset, rt.String())
}

func (dateTimeOffsetType) format(value any, facets Facets) (string, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case int64:
		t = time.UnixMilli(v).UTC()
	default:
		return "", typeNotSupported(DateTimeOffset, reflect.TypeOf(value).String())
	}

	dt := civil.DateTimeOf(t)
	var b strings.Builder
	writeDate(&b, dt.Date)
	b.WriteByte('T')
	if err := writeTime(&b, DateTimeOffset, dt.Time, facets); err != nil {
		return "", err
	}

	_, offset := t.Zone()
	if offset == 0 {
		b.WriteByte('Z')
		return b.String(), nil
	}
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	b.WriteByte(sign)
	fmt.Fprintf(&b, "%02d:%02d", offset/3600, (offset%3600)/60)
	return b.String(), nil
}

// timeOfDayType implements Edm.TimeOfDay
type timeOfDayType struct{}

func (timeOfDayType) defaultType() reflect.Type {
	return typeCivilTime
}

func (timeOfDayType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	m := timeOfDayPattern.FindStringSubmatch(literal)
	if m == nil {
		return nil, illegalContent(TimeOfDay, literal)
	}
	ct, err := civilTime(TimeOfDay, literal, m[1], m[2], m[3], m[4], facets)
	if err != nil {
		return nil, err
	}

	sinceMidnight := time.Duration(ct.Hour)*time.Hour + time.Duration(ct.Minute)*time.Minute +
		time.Duration(ct.Second)*time.Second + time.Duration(ct.Nanosecond)
	switch rt {
	case typeCivilTime:
		return ct, nil
	case typeGoDuration:
		return sinceMidnight, nil
	case typeTime:
		return time.Unix(0, 0).UTC().Add(sinceMidnight), nil
	case typeInt64:
		// legacy callers only see milliseconds
		return sinceMidnight.Milliseconds(), nil
	}
	return nil, typeNotSupported(TimeOfDay, rt.String())
}

func (timeOfDayType) format(value any, facets Facets) (string, error) {
	var ct civil.Time
	switch v := value.(type) {
	case civil.Time:
		if !v.IsValid() {
			return "", valueNotValid(TimeOfDay, value)
		}
		ct = v
	case time.Time:
		ct = civil.TimeOf(v)
	case time.Duration:
		if v < 0 || v >= 24*time.Hour {
			return "", valueNotValid(TimeOfDay, value)
		}
		ct = civil.TimeOf(time.Unix(0, 0).UTC().Add(v))
	case int64:
		if v < 0 || v >= (24*time.Hour).Milliseconds() {
			return "", valueNotValid(TimeOfDay, value)
		}
		ct = civil.TimeOf(time.UnixMilli(v).UTC())
	default:
		return "", typeNotSupported(TimeOfDay, reflect.TypeOf(value).String())
	}

	var b strings.Builder
	if err := writeTime(&b, TimeOfDay, ct, facets); err != nil {
		return "", err
	}
	return b.String(), nil
}

func civilDate(year, month, day string) (civil.Date, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return civil.Date{}, false
	}
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	cd := civil.Date{Year: y, Month: time.Month(mo), Day: d}
	return cd, cd.IsValid()
}

// civilDateTime builds a date-time from the first seven groups of
// dateTimePattern or offsetPattern
func civilDateTime(k Kind, literal string, m []string, facets Facets) (civil.DateTime, error) {
	d, ok := civilDate(m[1], m[2], m[3])
	if !ok {
		return civil.DateTime{}, illegalContent(k, literal)
	}
	t, err := civilTime(k, literal, m[4], m[5], m[6], m[7], facets)
	if err != nil {
		return civil.DateTime{}, err
	}
	return civil.DateTime{Date: d, Time: t}, nil
}

// civilTime validates clock fields; missing seconds default to zero and the
// fraction is bounded by the precision facet after trimming trailing zeros
func civilTime(k Kind, literal, hour, minute, second, fraction string, facets Facets) (civil.Time, error) {
	h, _ := strconv.Atoi(hour)
	mi, _ := strconv.Atoi(minute)
	s := 0
	if second != "" {
		s, _ = strconv.Atoi(second)
	}

	significant := strings.TrimRight(fraction, "0")
	if !facets.withinPrecision(len(significant)) {
		return civil.Time{}, facetMismatch(k, literal,
			fmt.Sprintf("%d fractional digits exceed precision %d", len(significant), *facets.Precision))
	}
	if len(significant) > 9 {
		return civil.Time{}, unconvertible(k, literal, errSubNanosecond)
	}
	ns := 0
	if significant != "" {
		ns, _ = strconv.Atoi(significant + strings.Repeat("0", 9-len(significant)))
	}

	t := civil.Time{Hour: h, Minute: mi, Second: s, Nanosecond: ns}
	if !t.IsValid() {
		return civil.Time{}, illegalContent(k, literal)
	}
	return t, nil
}

// parseOffset reads "Z" or "+hh:mm"
func parseOffset(s string) (*time.Location, bool) {
	if s == "Z" {
		return time.UTC, true
	}
	h, _ := strconv.Atoi(s[1:3])
	m, _ := strconv.Atoi(s[4:6])
	if h > 23 || m > 59 {
		return nil, false
	}
	offset := h*3600 + m*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone("", offset), true
}

// parseLegacyDate reads the instant and optional offset of /Date(ms+hhmm)/
func parseLegacyDate(k Kind, literal string, m []string) (time.Time, error) {
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, &Error{Kind: IllegalContent, Type: k, Literal: literal, Err: err}
	}
	t := time.UnixMilli(ms).UTC()
	if m[2] == "" {
		return t, nil
	}

	h, _ := strconv.Atoi(m[2][1:3])
	mi, _ := strconv.Atoi(m[2][3:5])
	if h > 23 || mi > 59 {
		return time.Time{}, illegalContent(k, literal)
	}
	offset := h*3600 + mi*60
	if m[2][0] == '-' {
		offset = -offset
	}
	return t.In(time.FixedZone("", offset)), nil
}

func writeDate(b *strings.Builder, d civil.Date) {
	y := d.Year
	if y < 0 {
		b.WriteByte('-')
		y = -y
	}
	fmt.Fprintf(b, "%04d-%02d-%02d", y, int(d.Month), d.Day)
}

// writeTime writes hh:mm:ss plus the fraction when non-zero
func writeTime(b *strings.Builder, k Kind, t civil.Time, facets Facets) error {
	fmt.Fprintf(b, "%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond == 0 {
		return nil
	}

	fraction := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
	if !facets.withinPrecision(len(fraction)) {
		return facetMismatch(k, "", fmt.Sprintf("%d fractional digits exceed precision %d", len(fraction), *facets.Precision))
	}
	b.WriteByte('.')
	b.WriteString(fraction)
	return nil
}

// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	c := MustLookup(Date)

	d, err := Parse[civil.Date](c, "2012-02-29", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2012, Month: time.February, Day: 29}, d)

	ts, err := Parse[time.Time](c, "2012-02-29", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2012, 2, 29, 0, 0, 0, 0, time.UTC), ts)

	for _, lit := range []string{"2013-02-29", "2012-13-01", "12-02-29", "2012-2-29", "2012-02-29T00:00"} {
		_, err := c.ValueOfString(Ptr(lit), NoFacets(), nil)
		assert.ErrorIs(t, err, ErrIllegalContent, lit)
	}

	s, err := Format(c, civil.Date{Year: 9, Month: time.January, Day: 2}, NoFacets())
	require.NoError(t, err)
	assert.Equal(t, "0009-01-02", s)

	s, err = Format(c, time.Date(2020, 12, 31, 23, 0, 0, 0, time.UTC), NoFacets())
	require.NoError(t, err)
	assert.Equal(t, "2020-12-31", s)

	_, err = Format(c, civil.Date{Year: 2013, Month: time.February, Day: 29}, NoFacets())
	assert.ErrorIs(t, err, ErrValueNotValid)
}

func TestDateTimeOffset(t *testing.T) {
	c := MustLookup(DateTimeOffset)

	tests := []struct {
		literal   string
		facets    Facets
		expected  time.Time
		canonical string
		errKind   ErrorKind
	}{
		{
			literal:   "2012-02-29T01:02:03Z",
			expected:  time.Date(2012, 2, 29, 1, 2, 3, 0, time.UTC),
			canonical: "2012-02-29T01:02:03Z",
		},
		{
			literal:   "2012-02-29T01:02:03.5+01:30",
			expected:  time.Date(2012, 2, 29, 1, 2, 3, 500000000, time.FixedZone("", 90*60)),
			canonical: "2012-02-29T01:02:03.5+01:30",
		},
		{
			literal:   "2012-02-29T01:02",
			expected:  time.Date(2012, 2, 29, 1, 2, 0, 0, time.UTC),
			canonical: "2012-02-29T01:02:00Z",
		},
		{
			literal:   "2012-02-29T01:02:03.1200-05:00",
			facets:    NoFacets().WithPrecision(2),
			expected:  time.Date(2012, 2, 29, 1, 2, 3, 120000000, time.FixedZone("", -5*3600)),
			canonical: "2012-02-29T01:02:03.12-05:00",
		},
		{
			literal:   "/Date(1330477323000)/",
			expected:  time.Date(2012, 2, 29, 1, 2, 3, 0, time.UTC),
			canonical: "2012-02-29T01:02:03Z",
		},
		{literal: "2012-02-29T01:02:03.123Z", facets: NoFacets().WithPrecision(2), errKind: FacetMismatch},
		{literal: "2012-02-29T01:02:03.0123456789Z", errKind: Unconvertible},
		{literal: "2012-02-29T25:00:00Z", errKind: IllegalContent},
		{literal: "2012-02-29T01:02:03+24:00", errKind: IllegalContent},
		{literal: "2012-02-29 01:02:03Z", errKind: IllegalContent},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			v, err := Parse[time.Time](c, tt.literal, tt.facets)
			if tt.errKind != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.errKind, KindOf(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(v), "got %s", v)

			s, err := Format(c, v, tt.facets)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, s)
		})
	}

	ms, err := Parse[int64](c, "2012-02-29T01:02:03Z", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, int64(1330477323000), ms)

	s, err := Format(c, int64(1330477323000), NoFacets())
	require.NoError(t, err)
	assert.Equal(t, "2012-02-29T01:02:03Z", s)
}

func TestDateTimeOffsetLegacyOffset(t *testing.T) {
	v, err := Parse[time.Time](MustLookup(DateTimeOffset), "/Date(1330477323000+0100)/", NoFacets())
	require.NoError(t, err)
	_, offset := v.Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, int64(1330477323), v.Unix())
}

func TestDateTime(t *testing.T) {
	c := MustLookup(DateTime)

	dt, err := Parse[civil.DateTime](c, "2012-02-29T01:02", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, civil.DateTime{
		Date: civil.Date{Year: 2012, Month: time.February, Day: 29},
		Time: civil.Time{Hour: 1, Minute: 2},
	}, dt)

	s, err := Format(c, dt, NoFacets())
	require.NoError(t, err)
	assert.Equal(t, "2012-02-29T01:02:00", s)

	legacy, err := Parse[civil.DateTime](c, "/Date(1330477323000)/", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 1, Minute: 2, Second: 3}, legacy.Time)

	_, err = c.ValueOfString(Ptr("2012-02-29T01:02:03Z"), NoFacets(), nil)
	assert.ErrorIs(t, err, ErrIllegalContent, "DateTime carries no offset")

	_, err = Format(c, civil.DateTime{
		Date: civil.Date{Year: 2012, Month: time.February, Day: 29},
		Time: civil.Time{Hour: 1, Nanosecond: 123000000},
	}, NoFacets().WithPrecision(2))
	assert.ErrorIs(t, err, ErrFacetMismatch)
}

func TestTimeOfDay(t *testing.T) {
	c := MustLookup(TimeOfDay)

	ct, err := Parse[civil.Time](c, "23:59:59.5", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 23, Minute: 59, Second: 59, Nanosecond: 500000000}, ct)

	d, err := Parse[time.Duration](c, "01:00", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	ms, err := Parse[int64](c, "00:00:01.9999", NoFacets())
	require.NoError(t, err)
	assert.Equal(t, int64(1999), ms)

	for _, lit := range []string{"24:00:00", "12:60", "1:00", "12:00:00Z"} {
		_, err := c.ValueOfString(Ptr(lit), NoFacets(), nil)
		assert.ErrorIs(t, err, ErrIllegalContent, lit)
	}

	s, err := Format(c, 90*time.Minute, NoFacets())
	require.NoError(t, err)
	assert.Equal(t, "01:30:00", s)

	s, err = Format(c, ct, NoFacets())
	require.NoError(t, err)
	assert.Equal(t, "23:59:59.5", s)

	_, err = Format(c, 25*time.Hour, NoFacets())
	assert.ErrorIs(t, err, ErrValueNotValid)
}

func TestDuration(t *testing.T) {
	c := MustLookup(Duration)

	tests := []struct {
		literal   string
		seconds   string
		canonical string
	}{
		{"PT6S", "6", "PT6S"},
		{"-P9DT51M10.5063807S", "-780670.5063807", "-P9DT51M10.5063807S"},
		{"P1D", "86400", "P1DT0S"},
		{"PT1H30M", "5400", "PT1H30M0S"},
		{"+PT0.5S", "0.5", "PT0.5S"},
		{"PT90S", "90", "PT1M30S"},
		{"PT0S", "0", "PT0S"},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			d, err := Parse[decimal.Decimal](c, tt.literal, NoFacets())
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.seconds).Equal(d), "got %s", d)

			s, err := Format(c, d, NoFacets())
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, s)
		})
	}

	t.Run("time.Duration", func(t *testing.T) {
		d, err := Parse[time.Duration](c, "PT6S", NoFacets())
		require.NoError(t, err)
		assert.Equal(t, 6*time.Second, d)

		s, err := Format(c, -(26*time.Hour + 1500*time.Millisecond), NoFacets())
		require.NoError(t, err)
		assert.Equal(t, "-P1DT2H1.5S", s)

		_, err = Parse[time.Duration](c, "PT0.0000000001S", NoFacets())
		assert.ErrorIs(t, err, ErrUnconvertible)
	})

	t.Run("explicit sign", func(t *testing.T) {
		for _, lit := range []string{"+PT6S", "-PT6S", "PT6S", "+P1DT0S"} {
			d, err := Parse[SignedDuration](c, lit, NoFacets())
			require.NoError(t, err, lit)
			s, err := Format(c, d, NoFacets())
			require.NoError(t, err)
			assert.Equal(t, lit, s)
		}

		d, err := Parse[SignedDuration](c, "+PT1.5S", NoFacets())
		require.NoError(t, err)
		assert.True(t, d.Plus)
		assert.True(t, decimal.RequireFromString("1.5").Equal(d.Seconds))
	})

	t.Run("invalid", func(t *testing.T) {
		for _, lit := range []string{"P", "PT", "P1DT", "T6S", "PT6", "P1H", "PT-6S", "pt6s"} {
			_, err := c.ValueOfString(Ptr(lit), NoFacets(), nil)
			assert.ErrorIs(t, err, ErrIllegalContent, lit)
		}
	})

	t.Run("precision", func(t *testing.T) {
		_, err := c.ValueOfString(Ptr("PT1.123S"), NoFacets().WithPrecision(2), nil)
		assert.ErrorIs(t, err, ErrFacetMismatch)

		_, err = c.ValueOfString(Ptr("PT1.120S"), NoFacets().WithPrecision(2), nil)
		assert.NoError(t, err)
	})
}

// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestIntegralRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64().Draw(t, "n")
		c := MustLookup(Int64)

		s, err := Format(c, n, NoFacets())
		if err != nil {
			t.Fatalf("format %d: %v", n, err)
		}
		back, err := Parse[int64](c, s, NoFacets())
		if err != nil || back != n {
			t.Fatalf("round trip %d -> %q -> %d (%v)", n, s, back, err)
		}
	})
}

func TestIntegralWideningProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int16().Draw(t, "n")
		s, err := Format(MustLookup(Int16), n, NoFacets())
		if err != nil {
			t.Fatalf("format %d: %v", n, err)
		}

		// an Int16 literal is accepted by every kind compatible with Int16
		for _, k := range []Kind{Int32, Int64, Single, Double, Decimal} {
			c := MustLookup(k)
			if !c.IsCompatible(Int16) {
				t.Fatalf("%s should accept Int16", k)
			}
			if !c.Validate(&s, NoFacets()) {
				t.Fatalf("%s rejected %q", k, s)
			}
		}
	})
}

func TestBigIntegralFormatProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(math.MinInt32-1000, math.MaxInt32+1000).Draw(t, "n")
		_, err := Format(MustLookup(Int32), big.NewInt(n), NoFacets())
		fits := n >= math.MinInt32 && n <= math.MaxInt32
		if fits != (err == nil) {
			t.Fatalf("%d: fits=%v err=%v", n, fits, err)
		}
	})
}

func TestDoubleRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.Float64().Draw(t, "f")
		c := MustLookup(Double)

		s, err := Format(c, f, NoFacets())
		if err != nil {
			t.Fatalf("format %v: %v", f, err)
		}
		back, err := Parse[float64](c, s, NoFacets())
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if math.IsNaN(f) {
			if !math.IsNaN(back) {
				t.Fatalf("NaN came back as %v", back)
			}
			return
		}
		if back != f {
			t.Fatalf("round trip %v -> %q -> %v", f, s, back)
		}
	})
}

func TestDecimalRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unscaled := rapid.Int64().Draw(t, "unscaled")
		scale := rapid.IntRange(0, 20).Draw(t, "scale")
		d := decimal.New(unscaled, int32(-scale))
		c := MustLookup(Decimal)

		s, err := Format(c, d, NoFacets())
		if err != nil {
			t.Fatalf("format %s: %v", d, err)
		}
		back, err := Parse[decimal.Decimal](c, s, NoFacets())
		if err != nil || !back.Equal(d) {
			t.Fatalf("round trip %s -> %q -> %s (%v)", d, s, back, err)
		}

		digits, decimals := countDigits(s)
		precise := NoFacets().WithPrecision(digits + decimals).WithScale(decimals)
		if !c.Validate(&s, precise) {
			t.Fatalf("%q rejected with its own precision and scale", s)
		}
	})
}

func TestDecimalExponentFacetProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		literal := rapid.StringMatching(`-?[0-9]{1,6}(\.[0-9]{1,4})?E-?[0-9]{1,2}`).Draw(t, "literal")
		facets := NoFacets().
			WithPrecision(rapid.IntRange(1, 40).Draw(t, "precision")).
			WithScale(rapid.IntRange(0, 40).Draw(t, "scale"))
		c := MustLookup(Decimal)

		d, err := Parse[decimal.Decimal](c, literal, facets)
		if err != nil {
			return
		}
		if _, err := Format(c, d, facets); err != nil {
			t.Fatalf("%q parsed under %s but does not format: %v", literal, facets, err)
		}
	})
}

func TestDurationRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := time.Duration(rapid.Int64().Draw(t, "ns"))
		c := MustLookup(Duration)

		s, err := Format(c, d, NoFacets())
		if err != nil {
			t.Fatalf("format %v: %v", d, err)
		}
		back, err := Parse[time.Duration](c, s, NoFacets())
		if err != nil || back != d {
			t.Fatalf("round trip %v -> %q -> %v (%v)", d, s, back, err)
		}
	})
}

func TestTimeOfDayRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ct := civil.Time{
			Hour:       rapid.IntRange(0, 23).Draw(t, "hour"),
			Minute:     rapid.IntRange(0, 59).Draw(t, "minute"),
			Second:     rapid.IntRange(0, 59).Draw(t, "second"),
			Nanosecond: rapid.IntRange(0, 999999999).Draw(t, "ns"),
		}
		c := MustLookup(TimeOfDay)

		s, err := Format(c, ct, NoFacets())
		if err != nil {
			t.Fatalf("format %v: %v", ct, err)
		}
		back, err := Parse[civil.Time](c, s, NoFacets())
		if err != nil || back != ct {
			t.Fatalf("round trip %v -> %q -> %v (%v)", ct, s, back, err)
		}
	})
}

func TestGuidRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var id uuid.UUID
		copy(id[:], rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "bytes"))
		c := MustLookup(Guid)

		s, err := Format(c, id, NoFacets())
		if err != nil {
			t.Fatalf("format %v: %v", id, err)
		}
		if s != strings.ToLower(s) {
			t.Fatalf("%q is not lower case", s)
		}
		back, err := Parse[uuid.UUID](c, strings.ToUpper(s), NoFacets())
		if err != nil || back != id {
			t.Fatalf("round trip %v -> %q -> %v (%v)", id, s, back, err)
		}
	})
}

func TestBinaryRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "bytes")
		c := MustLookup(Binary)

		s, err := Format(c, b, NoFacets().WithMaxLength(len(b)))
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		back, err := Parse[[]byte](c, s, NoFacets().WithMaxLength(len(b)))
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if string(back) != string(b) {
			t.Fatalf("round trip %x -> %q -> %x", b, s, back)
		}
	})
}

func TestStringURIRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		c := MustLookup(String)

		back, err := c.FromURILiteral(c.ToURILiteral(s))
		if err != nil || back != s {
			t.Fatalf("uri round trip %q -> %q (%v)", s, back, err)
		}
	})
}

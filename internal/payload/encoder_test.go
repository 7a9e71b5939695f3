package payload

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmcp/odata-edm/internal/edm"
)

func TestEncodeEntity(t *testing.T) {
	e := NewEncoder(loadMetadata(t, v4Metadata), Options{})

	data, err := e.EncodeEntity("Product", Entity{
		"ID":       uuid.MustParse("9F2C1A4E-0B7D-4E33-9A52-2F4F6C1D8E70"),
		"Name":     "Widget",
		"Price":    decimal.RequireFromString("12.5"),
		"Stock":    int64(9007199254740993),
		"Rating":   math.Inf(1),
		"InStock":  false,
		"Released": time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600)),
		"Tags":     []string{"red", "blue"},
		"Address":  Entity{"City": "Berlin", "Zip": nil},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"ID": "9f2c1a4e-0b7d-4e33-9a52-2f4f6c1d8e70",
		"Name": "Widget",
		"Price": 12.5,
		"Stock": 9007199254740993,
		"Rating": "INF",
		"InStock": false,
		"Released": "2024-03-01T10:00:00+02:00",
		"Tags": ["red", "blue"],
		"Address": {"City": "Berlin", "Zip": null}
	}`, string(data))
}

func TestEncodeEntityIEEE754Compatible(t *testing.T) {
	e := NewEncoder(loadMetadata(t, v4Metadata), Options{IEEE754Compatible: true})

	data, err := e.EncodeEntity("Product", Entity{
		"Price":  decimal.RequireFromString("12.5"),
		"Stock":  int64(9007199254740993),
		"Rating": 0.5,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Price": "12.5", "Stock": "9007199254740993", "Rating": 0.5}`, string(data))
}

func TestEncodeEntityContext(t *testing.T) {
	e := NewEncoder(loadMetadata(t, v4Metadata), Options{Context: "$metadata#Products/$entity"})

	data, err := e.EncodeEntity("Product", Entity{"Name": "Widget"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"@odata.context": "$metadata#Products/$entity", "Name": "Widget"}`, string(data))
}

func TestEncodeEntityVerbose(t *testing.T) {
	e := NewEncoder(loadMetadata(t, v2Metadata), Options{Verbose: true, LegacyDates: true})

	data, err := e.EncodeEntity("SALES.Order", Entity{
		"OrderID": 7,
		"CreatedAt": civil.DateTime{
			Date: civil.Date{Year: 2012, Month: time.February, Day: 29},
			Time: civil.Time{Hour: 1, Minute: 2, Second: 3},
		},
		"ChangedAt": time.UnixMilli(1330477323000).In(time.FixedZone("", -(5*3600 + 30*60))),
		"Items":     []int16{1, 2},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"d": {
		"OrderID": 7,
		"CreatedAt": "/Date(1330477323000)/",
		"ChangedAt": "/Date(1330477323000-0530)/",
		"Items": {"results": [1, 2]}
	}}`, string(data))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	md := loadMetadata(t, v2Metadata)
	opts := Options{Verbose: true, LegacyDates: true, IEEE754Compatible: true}

	in := Entity{
		"OrderID":   int32(42),
		"CreatedAt": civil.DateTime{Date: civil.Date{Year: 2024, Month: time.May, Day: 17}, Time: civil.Time{Hour: 23, Minute: 59, Second: 58}},
		"Amount":    decimal.RequireFromString("-100.125"),
		"Items":     []any{int16(3)},
	}
	data, err := NewEncoder(md, opts).EncodeEntity("Order", in)
	require.NoError(t, err)

	out, err := NewDecoder(md, opts).DecodeEntity("Order", data)
	require.NoError(t, err)
	assert.Equal(t, in["OrderID"], out["OrderID"])
	assert.Equal(t, in["CreatedAt"], out["CreatedAt"])
	assert.True(t, in["Amount"].(decimal.Decimal).Equal(out["Amount"].(decimal.Decimal)))
	assert.Equal(t, in["Items"], out["Items"])
}

func TestEncodeEntityErrors(t *testing.T) {
	md := loadMetadata(t, v4Metadata)

	tests := []struct {
		name   string
		opts   Options
		entity Entity
		paths  []string
		kind   edm.ErrorKind
	}{
		{"max length", Options{}, Entity{"Name": "far too long"}, []string{"Name"}, edm.FacetMismatch},
		{"wrong host type", Options{}, Entity{"Stock": "12"}, []string{"Stock"}, edm.TypeNotSupported},
		{"null for non-nullable", Options{}, Entity{"ID": nil}, []string{"ID"}, edm.ConstraintViolation},
		{"collection item", Options{}, Entity{"Tags": []string{"ok", "too long"}}, []string{"Tags[1]"}, edm.FacetMismatch},
		{"nested", Options{}, Entity{"Address": Entity{"City": 12}}, []string{"Address/City"}, edm.TypeNotSupported},
		{"strict", Options{Strict: true}, Entity{"Color": "red"}, []string{"Color"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncoder(md, tt.opts).EncodeEntity("Product", tt.entity)
			require.Error(t, err)
			assert.Equal(t, tt.paths, errorPaths(err))
			assert.Equal(t, tt.kind, edm.KindOf(err))
		})
	}
}

func TestEncodeEntityPassesUndeclaredThrough(t *testing.T) {
	e := NewEncoder(loadMetadata(t, v4Metadata), Options{})

	data, err := e.EncodeEntity("Product", Entity{"Color": "red"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Color": "red"}`, string(data))

	_, err = e.EncodeEntity("Missing", Entity{})
	assert.ErrorContains(t, err, "not found")
}

package main

import (
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/geo"
)

// returnTypes names the host types a user may request with --return-type
var returnTypes = map[string]reflect.Type{
	"bool":           reflect.TypeOf(false),
	"string":         reflect.TypeOf(""),
	"int8":           reflect.TypeOf(int8(0)),
	"uint8":          reflect.TypeOf(uint8(0)),
	"int16":          reflect.TypeOf(int16(0)),
	"int32":          reflect.TypeOf(int32(0)),
	"int64":          reflect.TypeOf(int64(0)),
	"big.Int":        reflect.TypeOf((*big.Int)(nil)),
	"float32":        reflect.TypeOf(float32(0)),
	"float64":        reflect.TypeOf(float64(0)),
	"decimal":        reflect.TypeOf(decimal.Decimal{}),
	"[]byte":         reflect.TypeOf([]byte(nil)),
	"uuid":           reflect.TypeOf(uuid.UUID{}),
	"url":            reflect.TypeOf((*url.URL)(nil)),
	"time.Time":      reflect.TypeOf(time.Time{}),
	"time.Duration":  reflect.TypeOf(time.Duration(0)),
	"civil.Date":     reflect.TypeOf(civil.Date{}),
	"civil.Time":     reflect.TypeOf(civil.Time{}),
	"civil.DateTime": reflect.TypeOf(civil.DateTime{}),
	"signed":         reflect.TypeOf(edm.SignedDuration{}),
	"geo":            reflect.TypeOf((*geo.Geospatial)(nil)).Elem(),
}

func returnTypeNames() []string {
	names := make([]string, 0, len(returnTypes))
	for name := range returnTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveReturnType maps a --return-type value to a reflect.Type; an empty
// name selects the codec's default type
func resolveReturnType(name string) (reflect.Type, error) {
	if name == "" {
		return nil, nil
	}
	rt, ok := returnTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown return type %q", name)
	}
	return rt, nil
}

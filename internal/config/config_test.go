package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/payload"
)

func TestDefaultIsUnbounded(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, edm.NoFacets(), cfg.Facets())
	assert.False(t, cfg.HasMetadata())
}

func TestFacets(t *testing.T) {
	cfg := Default()
	cfg.MaxLength = 10
	cfg.Precision = 5
	cfg.Scale = 2
	cfg.NonNullable = true
	cfg.NoUnicode = true

	want := edm.NoFacets().
		WithNullable(false).
		WithMaxLength(10).
		WithPrecision(5).
		WithScale(2).
		WithUnicode(false)
	assert.Equal(t, want, cfg.Facets())

	cfg.Precision = 0
	cfg.Scale = Unset
	assert.Equal(t, edm.NoFacets().WithNullable(false).WithMaxLength(10).WithPrecision(0).WithUnicode(false), cfg.Facets())
}

func TestPayloadOptions(t *testing.T) {
	cfg := Default()
	cfg.IEEE754Compatible = true
	cfg.VerboseJSON = true
	cfg.Strict = true

	assert.Equal(t, payload.Options{IEEE754Compatible: true, Verbose: true, Strict: true}, cfg.PayloadOptions())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"negative max length", func(c *Config) { c.MaxLength = -2 }, "--max-length"},
		{"scale above precision", func(c *Config) { c.Precision = 3; c.Scale = 4 }, "exceeds --precision"},
		{"payload size", func(c *Config) { c.MaxPayloadSize = 0 }, "--max-payload-size"},
		{"type without metadata", func(c *Config) { c.TypeName = "Product" }, "requires --metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := Default()
	cfg.Scale = 4
	assert.NoError(t, cfg.Validate(), "scale alone is allowed")
}

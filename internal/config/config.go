package config

import (
	"fmt"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/payload"
)

// Unset marks a numeric facet flag that was not given
const Unset = -1

// Config holds all configuration options for the edm-codec CLI
type Config struct {
	// Output and debugging
	Verbose bool `mapstructure:"verbose"`
	Trace   bool `mapstructure:"trace"`

	// Facets applied by parse, normalize and validate
	MaxLength   int  `mapstructure:"max_length"` // Unset for unbounded
	Precision   int  `mapstructure:"precision"`  // Unset for unbounded
	Scale       int  `mapstructure:"scale"`      // Unset for unbounded
	NonNullable bool `mapstructure:"non_nullable"`
	NoUnicode   bool `mapstructure:"no_unicode"`

	// Host type requested from parse, e.g. "int64" or "time.Time"
	ReturnType string `mapstructure:"return_type"`

	// Metadata-driven payload checks
	MetadataFile string `mapstructure:"metadata"`
	TypeName     string `mapstructure:"type"`

	// JSON dialect options
	IEEE754Compatible  bool   `mapstructure:"ieee754"`              // Int64 and Decimal as strings
	LegacyDates        bool   `mapstructure:"legacy_dates"`         // /Date(ms)/ for DateTime values
	VerboseJSON        bool   `mapstructure:"verbose_json"`         // v2 {"d": ...} envelope
	Strict             bool   `mapstructure:"strict"`               // Reject undeclared properties
	RequireNonNullable bool   `mapstructure:"require_non_nullable"` // Reject missing non-nullable properties
	Context            string `mapstructure:"context"`              // @odata.context written by convert

	// Payload size limit in bytes
	MaxPayloadSize int64 `mapstructure:"max_payload_size"`
}

// Default returns a configuration with every facet unbounded
func Default() *Config {
	return &Config{
		MaxLength:      Unset,
		Precision:      Unset,
		Scale:          Unset,
		MaxPayloadSize: constants.DefaultMaxPayloadSize,
	}
}

// Facets builds the facet set selected by the facet options
func (c *Config) Facets() edm.Facets {
	f := edm.NoFacets()
	if c.NonNullable {
		f = f.WithNullable(false)
	}
	if c.MaxLength != Unset {
		f = f.WithMaxLength(c.MaxLength)
	}
	if c.Precision != Unset {
		f = f.WithPrecision(c.Precision)
	}
	if c.Scale != Unset {
		f = f.WithScale(c.Scale)
	}
	if c.NoUnicode {
		f = f.WithUnicode(false)
	}
	return f
}

// PayloadOptions returns the JSON dialect used by the payload commands
func (c *Config) PayloadOptions() payload.Options {
	return payload.Options{
		IEEE754Compatible:  c.IEEE754Compatible,
		LegacyDates:        c.LegacyDates,
		Verbose:            c.VerboseJSON,
		Strict:             c.Strict,
		RequireNonNullable: c.RequireNonNullable,
		Context:            c.Context,
	}
}

// HasMetadata returns true if a metadata document is configured
func (c *Config) HasMetadata() bool {
	return c.MetadataFile != ""
}

// Validate checks option values that flags cannot constrain
func (c *Config) Validate() error {
	for name, v := range map[string]int{"max-length": c.MaxLength, "precision": c.Precision, "scale": c.Scale} {
		if v < Unset {
			return fmt.Errorf("--%s must not be negative, got %d", name, v)
		}
	}
	if c.Precision != Unset && c.Scale != Unset && c.Scale > c.Precision {
		return fmt.Errorf("--scale %d exceeds --precision %d", c.Scale, c.Precision)
	}
	if c.MaxPayloadSize <= 0 {
		return fmt.Errorf("--max-payload-size must be positive, got %d", c.MaxPayloadSize)
	}
	if c.TypeName != "" && !c.HasMetadata() {
		return fmt.Errorf("--type requires --metadata")
	}
	return nil
}

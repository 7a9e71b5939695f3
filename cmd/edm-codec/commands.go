package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/metadata"
	"github.com/zmcp/odata-edm/internal/models"
	"github.com/zmcp/odata-edm/internal/payload"
)

// kindInfo describes one primitive kind for the kinds command
type kindInfo struct {
	Name        edm.Kind   `json:"name"`
	DefaultType string     `json:"default_type"`
	Geospatial  bool       `json:"geospatial,omitempty"`
	Compatible  []edm.Kind `json:"compatible,omitempty"`
}

func (a *app) kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the supported primitive types as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []kindInfo
			for _, k := range edm.Kinds() {
				c := edm.MustLookup(k)
				info := kindInfo{Name: k, DefaultType: c.DefaultType().String(), Geospatial: k.IsGeospatial()}
				for _, other := range edm.Kinds() {
					if other != k && c.IsCompatible(other) {
						info.Compatible = append(info.Compatible, other)
					}
				}
				infos = append(infos, info)
			}
			return writeJSON(cmd.OutOrStdout(), infos)
		},
	}
}

// literalArgs stops flag parsing at TYPE, so literals such as "-5" or
// "-PT6S" are not read as flags
func literalArgs(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	return literalArgs(&cobra.Command{
		Use:   "parse TYPE [LITERAL]",
		Short: "Parse a literal into a host value; without LITERAL, parse null",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := edm.LookupName(args[0])
			if err != nil {
				return err
			}
			rt, err := resolveReturnType(a.cfg.ReturnType)
			if err != nil {
				return err
			}

			var literal *string
			if len(args) == 2 {
				literal = &args[1]
			}
			facets := a.cfg.Facets()
			a.log.WithFields(logrus.Fields{"type": c.Kind(), "facets": facets}).Debug("Parsing literal")

			value, err := c.ValueOfString(literal, facets, rt)
			a.traceParse(c.Kind(), literal, facets, value, err)
			if err != nil {
				return err
			}
			if value == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "null")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\t%T\n", value, value)
			return nil
		},
	})
}

func (a *app) normalizeCmd() *cobra.Command {
	return literalArgs(&cobra.Command{
		Use:   "normalize TYPE LITERAL",
		Short: "Parse a literal and write it back in canonical form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := edm.LookupName(args[0])
			if err != nil {
				return err
			}
			rt, err := resolveReturnType(a.cfg.ReturnType)
			if err != nil {
				return err
			}
			facets := a.cfg.Facets()

			value, err := c.ValueOfString(&args[1], facets, rt)
			a.traceParse(c.Kind(), &args[1], facets, value, err)
			if err != nil {
				return err
			}
			canonical, err := c.ValueToString(value, facets)
			if a.tracer != nil {
				a.tracer.LogFormat(c.Kind(), value, facets, canonical, err)
			}
			if err != nil {
				return err
			}
			if *canonical != args[1] {
				a.log.WithField("input", args[1]).Debug("Literal was not canonical")
			}
			fmt.Fprintln(cmd.OutOrStdout(), *canonical)
			return nil
		},
	})
}

func (a *app) validateCmd() *cobra.Command {
	return literalArgs(&cobra.Command{
		Use:   "validate TYPE LITERAL...",
		Short: "Report whether each literal is valid for the type and facets",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := edm.LookupName(args[0])
			if err != nil {
				return err
			}
			facets := a.cfg.Facets()

			invalid := 0
			for i := range args[1:] {
				literal := &args[i+1]
				value, err := c.ValueOfString(literal, facets, nil)
				a.traceParse(c.Kind(), literal, facets, value, err)
				if err != nil {
					invalid++
					fmt.Fprintf(cmd.OutOrStdout(), "invalid\t%s\t%s\n", *literal, edm.KindOf(err))
					a.log.WithError(err).Debug("Validation failed")
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "valid\t%s\n", *literal)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d literals are not valid %s values", invalid, len(args)-1, c.Kind().FullQualifiedName())
			}
			return nil
		},
	})
}

func (a *app) uriCmd() *cobra.Command {
	uriCmd := &cobra.Command{
		Use:   "uri",
		Short: "Convert between plain and URI literals",
	}
	uriCmd.AddCommand(
		literalArgs(&cobra.Command{
			Use:   "to TYPE LITERAL",
			Short: "Wrap a literal with the type's URI prefix and suffix",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := edm.LookupName(args[0])
				if err != nil {
					return err
				}
				if !c.Validate(&args[1], a.cfg.Facets()) {
					a.log.WithField("literal", args[1]).Warn("Literal is not valid for the type")
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ToURILiteral(args[1]))
				return nil
			},
		}),
		literalArgs(&cobra.Command{
			Use:   "from TYPE LITERAL",
			Short: "Strip the type's URI prefix and suffix",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := edm.LookupName(args[0])
				if err != nil {
					return err
				}
				literal, err := c.FromURILiteral(args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), literal)
				return nil
			},
		}),
	)
	return uriCmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [PAYLOAD]",
		Short: "Check a JSON entity against the facets in --metadata for --type",
		Long: `Check a JSON entity against the facets in --metadata for --type.

PAYLOAD is a file name; without it, or with "-", the entity is read from
stdin. Every invalid property is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, entity, err := a.decodePayload(cmd, args)
			if err != nil {
				return err
			}
			t, _ := md.Type(a.cfg.TypeName)
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d properties valid for %s\n", len(entity), t.QualifiedName())
			return nil
		},
	}
}

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [PAYLOAD]",
		Short: "Check a JSON entity and write it back in canonical form",
		Long: `Check a JSON entity and write it back in canonical form.

The output dialect follows --ieee754, --legacy-dates and --verbose-json, so
convert also translates between OData v2 and v4 JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, entity, err := a.decodePayload(cmd, args)
			if err != nil {
				return err
			}

			opts := a.cfg.PayloadOptions()
			a.log.WithField("content_type", opts.ContentType()).Debug("Encoding entity")
			enc := payload.NewEncoder(md, opts)
			if a.tracer != nil {
				enc.SetObserver(a.tracer)
			}
			data, err := enc.EncodeEntity(a.cfg.TypeName, entity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Summarize --metadata, or list the properties of --type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := a.loadMetadata()
			if err != nil {
				return err
			}
			if a.cfg.TypeName == "" {
				return writeJSON(cmd.OutOrStdout(), md.Summarize())
			}

			t, ok := md.Type(a.cfg.TypeName)
			if !ok {
				return fmt.Errorf("type %s not found in metadata", a.cfg.TypeName)
			}
			return writeJSON(cmd.OutOrStdout(), md.Properties(t))
		},
	}
}

func (a *app) loadMetadata() (*models.Metadata, error) {
	if !a.cfg.HasMetadata() {
		return nil, fmt.Errorf("--metadata is required")
	}
	data, err := os.ReadFile(a.cfg.MetadataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	md, err := metadata.ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	a.log.WithFields(logrus.Fields{
		"version":    md.Version,
		"namespace":  md.SchemaNamespace,
		"types":      len(md.Types),
		"operations": len(md.Operations),
	}).Debug("Loaded metadata")
	return md, nil
}

func (a *app) decodePayload(cmd *cobra.Command, args []string) (*models.Metadata, payload.Entity, error) {
	if a.cfg.TypeName == "" {
		return nil, nil, fmt.Errorf("--type is required")
	}
	md, err := a.loadMetadata()
	if err != nil {
		return nil, nil, err
	}
	data, err := a.readPayload(cmd, args)
	if err != nil {
		return nil, nil, err
	}

	dec := payload.NewDecoder(md, a.cfg.PayloadOptions())
	if a.tracer != nil {
		dec.SetObserver(a.tracer)
	}
	entity, err := dec.DecodeEntity(a.cfg.TypeName, data)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil, nil, fmt.Errorf("payload is not a valid %s", a.cfg.TypeName)
	}
	return md, entity, nil
}

// readPayload reads the named file, or stdin for no name or "-"
func (a *app) readPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	r := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open payload: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, a.cfg.MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if int64(len(data)) > a.cfg.MaxPayloadSize {
		return nil, fmt.Errorf("payload exceeds %d bytes", a.cfg.MaxPayloadSize)
	}
	return data, nil
}

func (a *app) traceParse(kind edm.Kind, literal *string, facets edm.Facets, value any, err error) {
	if a.tracer != nil {
		a.tracer.LogParse(kind, literal, facets, value, err)
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

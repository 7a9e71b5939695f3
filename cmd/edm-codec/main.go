package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zmcp/odata-edm/internal/config"
	"github.com/zmcp/odata-edm/internal/debug"
)

// app carries the state shared by all subcommands
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	tracer *debug.TraceLogger
}

func init() {
	// Load .env file if it exists
	godotenv.Load()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{cfg: config.Default(), log: logrus.New()}
	a.log.SetOutput(os.Stderr)
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	rootCmd := &cobra.Command{
		Use:   "edm-codec",
		Short: "OData EDM primitive type codec",
		Long: `OData EDM primitive type codec.

Parses, formats and validates OData literals of the Edm primitive types
using the facets of a property, and checks JSON entity payloads against
the properties declared in a $metadata document.

Commands taking TYPE read every argument after it as a literal, so flags
go before TYPE and negative literals need no "--".

Examples:
  edm-codec parse --precision 4 --scale 2 Edm.Decimal 12.50
  edm-codec normalize Edm.Duration PT90S
  edm-codec validate Edm.Guid 01234567-89ab-cdef-0123-456789abcdef
  edm-codec uri to Edm.Binary AQID
  edm-codec check --metadata metadata.xml --type Product product.json`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()

	// Output and debugging options
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", false, "Enable verbose output to stderr")
	flags.BoolVar(&a.cfg.Trace, "trace", false, "Write every conversion as JSON lines to a trace file in the temp directory")

	// Facet options
	flags.IntVar(&a.cfg.MaxLength, "max-length", config.Unset, "MaxLength facet (-1 for unbounded)")
	flags.IntVar(&a.cfg.Precision, "precision", config.Unset, "Precision facet (-1 for unbounded)")
	flags.IntVar(&a.cfg.Scale, "scale", config.Unset, "Scale facet (-1 for unbounded)")
	flags.BoolVar(&a.cfg.NonNullable, "non-nullable", false, "Reject null (Nullable=false)")
	flags.BoolVar(&a.cfg.NoUnicode, "no-unicode", false, "Unicode=false facet")
	flags.StringVar(&a.cfg.ReturnType, "return-type", "", "Host type requested from parse: "+strings.Join(returnTypeNames(), ", "))

	// Payload options
	flags.StringVar(&a.cfg.MetadataFile, "metadata", "", "Path to a $metadata EDMX document")
	flags.StringVar(&a.cfg.TypeName, "type", "", "Entity or complex type of the payload")
	flags.BoolVar(&a.cfg.IEEE754Compatible, "ieee754", false, "Write Int64 and Decimal as JSON strings")
	flags.BoolVar(&a.cfg.LegacyDates, "legacy-dates", false, "Write DateTime values as /Date(ms)/")
	flags.BoolVar(&a.cfg.VerboseJSON, "verbose-json", false, "Wrap encoded entities in the v2 {\"d\": ...} envelope")
	flags.BoolVar(&a.cfg.Strict, "strict", false, "Reject properties not declared by the type")
	flags.BoolVar(&a.cfg.RequireNonNullable, "require-non-nullable", false, "Reject payloads missing a non-nullable property")
	flags.StringVar(&a.cfg.Context, "context", "", "@odata.context written by convert (v4 JSON only)")
	flags.Int64Var(&a.cfg.MaxPayloadSize, "max-payload-size", a.cfg.MaxPayloadSize, "Maximum payload size in bytes")

	// Bind flags to viper for environment variable support
	for _, name := range []string{
		"verbose", "trace", "max-length", "precision", "scale", "non-nullable", "no-unicode",
		"return-type", "metadata", "type", "ieee754", "legacy-dates", "verbose-json", "strict",
		"require-non-nullable", "context", "max-payload-size",
	} {
		viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	// Set up environment variable mapping
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetEnvPrefix("ODATA")

	rootCmd.AddCommand(
		a.kindsCmd(),
		a.parseCmd(),
		a.normalizeCmd(),
		a.validateCmd(),
		a.uriCmd(),
		a.checkCmd(),
		a.convertCmd(),
		a.describeCmd(),
	)
	return rootCmd, a
}

// setup merges environment variables into the config and opens the tracer
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := viper.Unmarshal(a.cfg); err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log.SetOutput(cmd.ErrOrStderr())
	if a.cfg.Verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}

	if a.cfg.Trace && a.tracer == nil {
		tracer, err := debug.NewTraceLogger(true)
		if err != nil {
			a.log.WithError(err).Error("Failed to create trace logger")
		} else {
			a.tracer = tracer
			a.log.WithField("file", tracer.GetFilename()).Info("Trace logging enabled")
		}
	}
	return nil
}

func (a *app) close() {
	if a.tracer != nil {
		a.tracer.Close()
		a.tracer = nil
	}
}

func main() {
	rootCmd, a := newRootCmd()
	err := rootCmd.Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// eml2csv - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Called with two file
// arguments the root command converts them; the other commands are attached
// to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (eml2csv COUNTS_EML CANDIDATES_EML)
//   ├── identifyCmd (eml2csv identify FILE...)
//   └── versionCmd (eml2csv version)
//
// CONFIGURATION:
//   Settings come from the optional --config file; flags that are set on the
//   command line override it.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiesraad/eml2csv/internal/config"
	"github.com/kiesraad/eml2csv/internal/converter"
	"github.com/kiesraad/eml2csv/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the optional configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// outputPath is the explicit report path. Empty means automatic naming.
var outputPath string

// outputDir is where automatically named reports are written.
var outputDir string

// format is the report format, "csv" or "xlsx".
var format string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "eml2csv COUNTS_EML CANDIDATES_EML",
	Short: "Convert EML election results to the OSV4-3 CSV table",
	Long: `eml2csv converts a municipal count (EML-510b) and the matching candidate
lists (EML-230b) into the OSV4-3 tabulation table, one column per polling
station.

The two files must belong to the same election and contest. If no --output
is given, the report is named after the election and the municipality, for
example osv4-3_telling_tk2025_gemeente_westmaasenwaal.csv.

NOTE: an existing output file is overwritten.

Example Usage:
  eml2csv Telling_TK2025_gemeente_West_Maas_en_Waal.eml.xml Kandidatenlijsten_TK2025.eml.xml
  eml2csv counts.eml.xml candidates.eml.xml --output uitslag.csv
  eml2csv counts.eml.xml candidates.eml.xml --format xlsx --output-dir ./uitslagen`,
	Args:          cobra.ExactArgs(2),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runConvert,
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to an optional YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Report file to write. If left blank, the name is generated and the file is written to the output directory")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", `Directory for generated report names (default ".")`)
	rootCmd.Flags().StringVar(&format, "format", "", `Report format, "csv" or "xlsx" (default "csv")`)
}

// =============================================================================
// CONVERT
// =============================================================================

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	result := converter.New(converter.Options{
		CountsPath:     args[0],
		CandidatesPath: args[1],
		OutputPath:     outputPath,
		OutputDir:      cfg.OutputDir,
		Format:         cfg.Format,
	}, logger).Run()

	if !result.Success {
		return result.Error
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, %d reporting units, %d affiliations, %d candidates)\n",
		result.OutputFile, result.Stats.Bytes, result.Stats.ReportingUnits, result.Stats.Affiliations, result.Stats.Candidates)
	return nil
}

// loadConfig reads the configuration file and applies the flags that were set
// on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
}

// =============================================================================
// eml2csv - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the whole
// pipeline for one pair of EML files, from XML parsing to the written report.
//
// CONVERSION PIPELINE:
//   1. Parse the counts (510b) and candidates (230b) documents
//   2. Validate that they form a pair
//   3. Extract metadata, statistics rows and the candidate registry
//   4. Build the vote matrix
//   5. Assemble the report rows
//   6. Render CSV or XLSX and write it atomically
//
// Any failure aborts the run and nothing is written. One conversion runs per
// invocation; the converter holds no shared state.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kiesraad/eml2csv/internal/config"
	"github.com/kiesraad/eml2csv/internal/csvwriter"
	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/extractor"
	"github.com/kiesraad/eml2csv/internal/logging"
	"github.com/kiesraad/eml2csv/internal/report"
	"github.com/kiesraad/eml2csv/internal/types"
	"github.com/kiesraad/eml2csv/internal/validation"
	"github.com/kiesraad/eml2csv/internal/xlsxwriter"
	"github.com/kiesraad/eml2csv/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one conversion.
type Result struct {
	// RunID identifies the run in the log output.
	RunID string

	// CountsPath and CandidatesPath are the input files.
	CountsPath     string
	CandidatesPath string

	// OutputFile is the path of the written report.
	// This is empty if the conversion failed.
	OutputFile string

	// Success indicates whether the conversion was successful.
	Success bool

	// Error contains the error if the conversion failed.
	Error error

	// Stats contains conversion statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the conversion.
type ProcessingStats struct {
	ReportingUnits int
	Affiliations   int
	Candidates     int

	// Rows is the number of report rows written.
	Rows int

	// Bytes is the size of the written report file.
	Bytes int64

	// ProcessingTime is the time taken by the whole run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options selects the inputs and the output of a conversion.
type Options struct {
	CountsPath     string
	CandidatesPath string

	// OutputPath is used as given when set. Otherwise the report is named
	// automatically and placed in OutputDir.
	OutputPath string
	OutputDir  string

	// Format is config.FormatCSV or config.FormatXLSX.
	Format string
}

// Converter converts one pair of EML files.
type Converter struct {
	options Options
	logger  Logger
	runID   string
}

// Logger is the logging interface used by the converter. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter. A nil logger discards all records.
func New(options Options, logger Logger) *Converter {
	if logger == nil {
		logger = logging.Discard()
	}
	if options.Format == "" {
		options.Format = config.FormatCSV
	}
	return &Converter{
		options: options,
		logger:  logger,
		runID:   uuid.New().String(),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline.
//
// RETURNS:
//   - A Result describing the outcome. Result.Error wraps the first failure.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{
		RunID:          c.runID,
		CountsPath:     c.options.CountsPath,
		CandidatesPath: c.options.CandidatesPath,
	}

	c.logger.Info("converting",
		"run", c.runID,
		"counts", c.options.CountsPath,
		"candidates", c.options.CandidatesPath,
		"format", c.options.Format)

	// =========================================================================
	// STEP 1: PARSE INPUT DOCUMENTS
	// =========================================================================

	counts, err := emldoc.ParseFile(c.options.CountsPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read counts file: %w", err)
		return c.finish(result, startTime)
	}
	candidates, err := emldoc.ParseFile(c.options.CandidatesPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read candidates file: %w", err)
		return c.finish(result, startTime)
	}
	c.logger.Debug("parsed input documents", "run", c.runID)

	// =========================================================================
	// STEP 2-5: VALIDATE, EXTRACT AND ASSEMBLE
	// =========================================================================

	converted, err := Convert(counts, candidates)
	if err != nil {
		result.Error = err
		return c.finish(result, startTime)
	}

	result.Stats.ReportingUnits = len(converted.Metadata.ReportingUnits)
	result.Stats.Affiliations = len(converted.Registry)
	result.Stats.Candidates = converted.Registry.CandidateCount()
	result.Stats.Rows = len(converted.Report.Rows)
	c.logger.Debug("assembled report",
		"run", c.runID,
		"reporting_units", result.Stats.ReportingUnits,
		"affiliations", result.Stats.Affiliations,
		"candidates", result.Stats.Candidates,
		"rows", result.Stats.Rows)

	// =========================================================================
	// STEP 6: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.writeOutput(converted)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return c.finish(result, startTime)
	}
	size, err := utils.GetFileSize(outputPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to inspect output: %w", err)
		return c.finish(result, startTime)
	}

	result.OutputFile = outputPath
	result.Stats.Bytes = size
	result.Success = true
	c.logger.Info("wrote report", "run", c.runID, "output", outputPath, "bytes", size)

	return c.finish(result, startTime)
}

func (c *Converter) finish(result Result, startTime time.Time) Result {
	result.Stats.ProcessingTime = time.Since(startTime)
	if result.Error != nil {
		c.logger.Error("conversion failed", "run", c.runID, "error", result.Error)
	}
	return result
}

// writeOutput resolves the output path and writes the rendered report to it.
func (c *Converter) writeOutput(converted *Converted) (string, error) {
	fm := utils.NewFileManager(c.options.OutputDir)

	m := converted.Metadata
	autoName := utils.OutputFileName(m.ElectionID, m.AuthorityType, m.AuthorityName, c.options.Format)
	outputPath := fm.OutputPath(c.options.OutputPath, autoName)
	if c.options.OutputPath == "" {
		if err := fm.EnsureOutputDir(); err != nil {
			return "", err
		}
	}

	if utils.FileExists(outputPath) {
		c.logger.Warn("overwriting existing file", "run", c.runID, "output", outputPath)
	}

	records := converted.Report.Records()
	err := utils.WriteFileAtomic(outputPath, func(w io.Writer) error {
		return Render(w, records, c.options.Format)
	})
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

// =============================================================================
// PURE CONVERSION
// =============================================================================

// Converted holds the outcome of a conversion before it is written.
type Converted struct {
	Metadata *extractor.Metadata
	Registry types.Registry
	Report   *report.Report
}

// Convert validates the document pair and assembles the report. It performs
// no I/O and returns identical output for identical input.
func Convert(counts, candidates *emldoc.Document) (*Converted, error) {
	if err := validation.Validate(counts, candidates); err != nil {
		return nil, err
	}

	metadata, err := extractor.ExtractMetadata(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to extract metadata: %w", err)
	}
	rows, err := extractor.ExtractMetadataRows(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to extract statistics: %w", err)
	}
	registry, err := extractor.BuildRegistry(candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate list: %w", err)
	}
	votes, err := extractor.BuildVoteMatrix(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to read vote counts: %w", err)
	}

	r, err := report.Assemble(report.Input{
		Metadata:     metadata,
		MetadataRows: rows,
		Registry:     registry,
		Votes:        votes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble report: %w", err)
	}

	return &Converted{Metadata: metadata, Registry: registry, Report: r}, nil
}

// Render writes records to w in the given format.
func Render(w io.Writer, records [][]string, format string) error {
	switch format {
	case config.FormatCSV:
		return csvwriter.Write(w, records)
	case config.FormatXLSX:
		return xlsxwriter.Write(w, records)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

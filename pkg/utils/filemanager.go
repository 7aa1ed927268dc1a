// =============================================================================
// eml2csv - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a conversion:
//   - Output directory management
//   - Automatic output file naming
//   - Atomic output writes
//
// ATOMIC WRITES:
//   Output is first written to "<name>.<uuid>.tmp" in the destination
//   directory and then renamed over the destination. When rendering or
//   writing fails the temporary file is removed, so a failed run never leaves
//   a partial report behind.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager resolves and writes output files.
type FileManager struct {
	// OutputDir is the directory where automatically named output files are
	// placed. Explicit output paths are used as given.
	OutputDir string
}

// NewFileManager creates a new FileManager for the given output directory.
func NewFileManager(outputDir string) *FileManager {
	if outputDir == "" {
		outputDir = "."
	}
	return &FileManager{OutputDir: outputDir}
}

// OutputPath returns explicit when it is set, else autoName inside OutputDir.
func (fm *FileManager) OutputPath(explicit, autoName string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(fm.OutputDir, autoName)
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	return EnsureDir(fm.OutputDir)
}

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

var nonAlphanumeric = regexp.MustCompile(`[^0-9a-zA-Z]`)

// Normalise removes every character outside [0-9A-Za-z] and lowercases the
// rest.
func Normalise(s string) string {
	return strings.ToLower(nonAlphanumeric.ReplaceAllString(s, ""))
}

// OutputFileName builds the automatic report name.
//
// PARAMETERS:
//   - electionID: The election identifier, e.g. "TK2025" or "GR2022_Juinen".
//     Only the first six characters of the normalised id are used, because
//     municipal election ids already carry the authority name.
//   - authorityType: "Gemeente" or "Openbaar lichaam".
//   - authorityName: The managing authority name.
//   - extension: The file extension without the dot, e.g. "csv".
//
// EXAMPLE:
//   OutputFileName("TK2025", "Gemeente", "West Maas en Waal", "csv")
//   returns "osv4-3_telling_tk2025_gemeente_westmaasenwaal.csv"
func OutputFileName(electionID, authorityType, authorityName, extension string) string {
	id := Normalise(electionID)
	if len(id) > 6 {
		id = id[:6]
	}
	kind := strings.ReplaceAll(strings.ToLower(authorityType), " ", "_")
	return fmt.Sprintf("osv4-3_telling_%s_%s_%s.%s", id, kind, Normalise(authorityName), extension)
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic calls render with a temporary file next to path and renames
// the temporary file to path once render succeeded.
//
// RETURNS:
//   - An error if render fails or the file cannot be created, synced or
//     renamed. No file exists at path or at the temporary path afterwards
//     unless the write succeeded.
func WriteFileAtomic(path string, render func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = render(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

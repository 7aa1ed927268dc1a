// =============================================================================
// eml2csv - Main Entry Point
// =============================================================================
//
// USAGE:
//   eml2csv COUNTS_EML CANDIDATES_EML  - Convert a count and its candidate lists
//   eml2csv identify FILE...           - Show the EML type and ids of files
//   eml2csv version                    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : EML loading, extraction, report assembly and writers
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/kiesraad/eml2csv/cmd"
)

func main() {
	cmd.Execute()
}
